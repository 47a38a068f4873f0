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
	"github.com/pkg/errors"
)

type xmlEndElement struct {
	xmlNode
	namespace stringPoolRef
	name      stringPoolRef
}

func (c *xmlEndElement) decode(header, data []byte) error {
	if err := c.decodeHeader(header); err != nil {
		return err
	}
	r := endian.Reader(bytes.NewReader(data), device.LittleEndian)
	c.namespace = c.root().decodeString(r)
	c.name = c.root().decodeString(r)
	return r.Error()
}

func (c *xmlEndElement) checkContext(ctx *xmlContext) error {
	se, ok := ctx.stack.head().(*xmlStartElement)
	if !ok {
		return errors.Wrapf(ErrUnbalancedTag, "</%s> at line %d closes %v",
			c.name.get(), c.lineNumber, describe(ctx.stack.head()))
	}
	if !se.name.sameString(c.name) || !se.namespace.sameString(c.namespace) {
		return errors.Wrapf(ErrUnbalancedTag, "</%s> at line %d closes <%s> from line %d",
			c.name.get(), c.lineNumber, se.name.get(), se.lineNumber)
	}
	return nil
}

func (c *xmlEndElement) xml(ctx *xmlContext) string {
	name := ctx.qualify(c.namespace, c.name)
	c.updateContext(ctx)
	return ctx.margin(0) + "</" + name + ">"
}

func (c *xmlEndElement) updateContext(ctx *xmlContext) {
	ctx.stack.pop()
	ctx.indent--
}

func (c *xmlEndElement) encode() []byte {
	return encodeChunk(resXMLEndElementType, c.encodeHeader, func(w binary.Writer) {
		c.namespace.encode(w)
		c.name.encode(w)
	})
}
