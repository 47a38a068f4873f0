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

type xmlStartElement struct {
	xmlNode
	namespace  stringPoolRef
	name       stringPoolRef
	attributes xmlAttributeList
	// 1-based indices of the id, class and style attributes, 0 if absent.
	idIndex    uint16
	classIndex uint16
	styleIndex uint16
}

func (c *xmlStartElement) decode(header, data []byte) error {
	if err := c.decodeHeader(header); err != nil {
		return err
	}

	r := endian.Reader(bytes.NewReader(data), device.LittleEndian)
	c.namespace = c.root().decodeString(r)
	c.name = c.root().decodeString(r)
	attributeStart := r.Uint16()
	attributeSize := r.Uint16()
	attributeCount := r.Uint16()
	c.idIndex = r.Uint16()
	c.classIndex = r.Uint16()
	c.styleIndex = r.Uint16()
	if err := r.Error(); err != nil {
		return err
	}
	if attributeSize < xmlAttributeSize {
		return errors.Wrapf(ErrInvalidChunkHeader, "attribute size was %d, expected at least %d",
			attributeSize, xmlAttributeSize)
	}
	end := int(attributeStart) + int(attributeCount)*int(attributeSize)
	if end > len(data) {
		return errors.Wrapf(ErrTruncatedStream, "%d attributes of %d bytes at %d exceed %d bytes",
			attributeCount, attributeSize, attributeStart, len(data))
	}

	c.attributes = make([]xmlAttribute, attributeCount)
	for i := range c.attributes {
		start := int(attributeStart) + i*int(attributeSize)
		r = endian.Reader(bytes.NewReader(data[start:start+int(attributeSize)]), device.LittleEndian)
		if err := c.attributes[i].decode(r, c.root()); err != nil {
			return err
		}
	}
	return nil
}

func (c *xmlStartElement) checkContext(ctx *xmlContext) error {
	if !ctx.isBound(c.namespace) {
		return errors.Wrapf(ErrUnboundNamespace, "element <%s> at line %d uses namespace %q",
			c.name.get(), c.lineNumber, c.namespace.get())
	}
	for _, at := range c.attributes {
		if !ctx.isBound(at.namespace) {
			return errors.Wrapf(ErrUnboundNamespace, "attribute %s of <%s> at line %d uses namespace %q",
				at.name.get(), c.name.get(), c.lineNumber, at.namespace.get())
		}
	}
	return nil
}

func (c *xmlStartElement) updateContext(ctx *xmlContext) {
	ctx.indent++
	ctx.stack.push(c)
	ctx.pending = nil
}

func (c *xmlStartElement) xml(ctx *xmlContext) string {
	b := bytes.Buffer{}
	b.WriteString(ctx.margin(0))
	b.WriteRune('<')
	b.WriteString(ctx.qualify(c.namespace, c.name))
	for _, ns := range ctx.pending {
		b.WriteRune('\n')
		b.WriteString(ctx.margin(2))
		if prefix := ns.namespacePrefix.get(); prefix != "" {
			b.WriteString(`xmlns:`)
			b.WriteString(prefix)
		} else {
			b.WriteString(`xmlns`)
		}
		b.WriteString(`="`)
		b.WriteString(escape(ns.namespaceURI.get()))
		b.WriteRune('"')
	}
	b.WriteString(c.attributes.xml(ctx))
	b.WriteRune('>')
	c.updateContext(ctx)
	return b.String()
}

func (c *xmlStartElement) encode() []byte {
	return encodeChunk(resXMLStartElementType, c.encodeHeader, func(w binary.Writer) {
		c.namespace.encode(w)
		c.name.encode(w)
		w.Uint16(20)                        // attributeStart
		w.Uint16(xmlAttributeSize)          // attributeSize
		w.Uint16(uint16(len(c.attributes))) // attributeCount
		w.Uint16(c.idIndex)
		w.Uint16(c.classIndex)
		w.Uint16(c.styleIndex)
		for _, at := range c.attributes {
			at.encode(w)
		}
	})
}

// addAttribute inserts attr before the first attribute that sorts after it.
// Existing attributes keep their relative order.
func (c *xmlStartElement) addAttribute(attr *xmlAttribute) {
	pos := len(c.attributes)
	for i := range c.attributes {
		if attr.less(&c.attributes[i], c.root()) {
			pos = i
			break
		}
	}
	c.attributes = append(c.attributes[:pos], append(xmlAttributeList{*attr}, c.attributes[pos:]...)...)
	for _, index := range []*uint16{&c.idIndex, &c.classIndex, &c.styleIndex} {
		if *index > uint16(pos) {
			*index++
		}
	}
}

// attribute returns the attribute with the given local name, or the one whose
// name maps to resourceID.
func (c *xmlStartElement) attribute(name string, resourceID uint32) (*xmlAttribute, bool) {
	for i := range c.attributes {
		at := &c.attributes[i]
		if resourceID != 0 && at.resourceID(c.root()) == resourceID {
			return at, true
		}
	}
	for i := range c.attributes {
		at := &c.attributes[i]
		if at.name.get() == name {
			return at, true
		}
	}
	return nil, false
}
