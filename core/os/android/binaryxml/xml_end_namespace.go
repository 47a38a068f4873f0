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

type xmlEndNamespace struct {
	xmlNode
	namespacePrefix stringPoolRef
	namespaceURI    stringPoolRef
}

func (c *xmlEndNamespace) decode(header, data []byte) error {
	if err := c.decodeHeader(header); err != nil {
		return err
	}
	r := endian.Reader(bytes.NewReader(data), device.LittleEndian)
	c.namespacePrefix = c.root().decodeString(r)
	c.namespaceURI = c.root().decodeString(r)
	return r.Error()
}

func (c *xmlEndNamespace) checkContext(ctx *xmlContext) error {
	ns, ok := ctx.stack.head().(*xmlStartNamespace)
	if !ok {
		return errors.Wrapf(ErrUnbalancedTag, "end of namespace %q at line %d closes %v",
			c.namespaceURI.get(), c.lineNumber, describe(ctx.stack.head()))
	}
	if !ns.namespacePrefix.sameString(c.namespacePrefix) || !ns.namespaceURI.sameString(c.namespaceURI) {
		return errors.Wrapf(ErrUnbalancedTag, "end of namespace %s=%q at line %d closes %s=%q",
			c.namespacePrefix.get(), c.namespaceURI.get(), c.lineNumber, ns.namespacePrefix.get(), ns.namespaceURI.get())
	}
	return nil
}

func (c *xmlEndNamespace) xml(ctx *xmlContext) string {
	c.updateContext(ctx)
	return ""
}

func (c *xmlEndNamespace) updateContext(ctx *xmlContext) {
	ctx.stack.pop()
}

func (c *xmlEndNamespace) encode() []byte {
	return encodeChunk(resXMLEndNamespaceType, c.encodeHeader, func(w binary.Writer) {
		c.namespacePrefix.encode(w)
		c.namespaceURI.encode(w)
	})
}

// describe names an open chunk for error messages.
func describe(c chunk) string {
	switch c := c.(type) {
	case nil:
		return "nothing"
	case *xmlStartElement:
		return "element <" + c.name.get() + ">"
	case *xmlStartNamespace:
		return "namespace " + c.namespaceURI.get()
	default:
		return "chunk"
	}
}
