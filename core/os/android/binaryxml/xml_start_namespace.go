// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package binaryxml

import (
	"bytes"

	"github.com/google/binaryxml/core/data/binary"
	"github.com/google/binaryxml/core/data/endian"
	"github.com/google/binaryxml/core/os/device"
)

type xmlStartNamespace struct {
	xmlNode
	namespacePrefix stringPoolRef
	namespaceURI    stringPoolRef
}

func (c *xmlStartNamespace) decode(header, data []byte) error {
	if err := c.decodeHeader(header); err != nil {
		return err
	}
	r := endian.Reader(bytes.NewReader(data), device.LittleEndian)
	c.namespacePrefix = c.root().decodeString(r)
	c.namespaceURI = c.root().decodeString(r)
	return r.Error()
}

func (c *xmlStartNamespace) xml(ctx *xmlContext) string {
	c.updateContext(ctx)
	return ""
}

func (c *xmlStartNamespace) updateContext(ctx *xmlContext) {
	ctx.stack.push(c)
	ctx.pending = append(ctx.pending, c)
}

func (c *xmlStartNamespace) encode() []byte {
	return encodeChunk(resXMLStartNamespaceType, c.encodeHeader, func(w binary.Writer) {
		c.namespacePrefix.encode(w)
		c.namespaceURI.encode(w)
	})
}
