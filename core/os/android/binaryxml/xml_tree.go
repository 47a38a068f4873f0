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
	"context"

	"github.com/google/binaryxml/core/data/binary"
	"github.com/google/binaryxml/core/log"
	"github.com/pkg/errors"
)

// xmlTree is the outer RES_XML_TYPE chunk. The string pool and resource map
// are held apart from the node chunks and always encoded first.
type xmlTree struct {
	rootHolder
	header      []byte // header bytes past the chunk envelope, carried verbatim.
	strings     *stringPool
	resourceMap *xmlResourceMap
	chunks      []chunk
}

func (c xmlTree) xml(ctx *xmlContext) string {
	b := bytes.Buffer{}
	for _, chunk := range c.chunks {
		if s := chunk.xml(ctx); s != "" {
			b.WriteString(s)
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (c *xmlTree) visit(visitor chunkVisitor) {
	ctx := newXmlContext(c.strings)

	visitor(ctx, c, beforeContextChange)
	for _, chunk := range c.chunks {
		visitor(ctx, chunk, beforeContextChange)
		ctxChange, ok := chunk.(contextChange)
		if ok {
			ctxChange.updateContext(ctx)
			visitor(ctx, chunk, afterContextChange)
		}
	}
}

// decode is reached only for a document chunk nested inside another, which is
// not valid. The outer document chunk is decoded by decodeXmlTree.
func (c *xmlTree) decode(header, data []byte) error {
	return errors.Wrap(ErrInvalidChunkHeader, "document chunk nested in a document")
}

// decodeChunks decodes the children of the tree, checking that elements and
// namespaces nest and that namespaces are bound where they are used.
func (c *xmlTree) decodeChunks(ctx context.Context, r *chunkReader) error {
	scope := newXmlContext(nil)
	for !r.done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := decodeChunk(ctx, r, c)
		if err != nil {
			return err
		}
		switch chunk := chunk.(type) {
		case *stringPool:
			if c.strings != nil {
				return errors.Wrap(ErrInvalidChunkHeader, "second string pool in document")
			}
			c.strings = chunk
			continue
		case *xmlResourceMap:
			if c.resourceMap == nil && len(c.chunks) == 0 {
				c.resourceMap = chunk
				continue
			}
		}
		if check, ok := chunk.(scopeCheck); ok {
			if err := check.checkContext(scope); err != nil {
				return err
			}
		}
		if ctxChange, ok := chunk.(contextChange); ok {
			ctxChange.updateContext(scope)
		}
		c.chunks = append(c.chunks, chunk)
	}
	if len(scope.stack) > 0 {
		return errors.Wrapf(ErrUnterminatedDocument, "%d open at end of document, innermost %v",
			len(scope.stack), describe(scope.stack.head()))
	}
	resources := 0
	if c.resourceMap != nil {
		resources = len(c.resourceMap.ids)
	}
	log.D(ctx, "Decoded binary XML: %d strings, %d resource ids, %d chunks",
		c.strings.count(), resources, len(c.chunks))
	return nil
}

func (c *xmlTree) encode() []byte {
	return c.encodeTraced(nil)
}

// encodeTraced encodes the tree and reports every chunk to trace in the order
// it appears in the output.
func (c *xmlTree) encodeTraced(trace ChunkTracer) []byte {
	children := []chunk{}
	if c.strings != nil {
		children = append(children, c.strings)
	}
	if c.resourceMap != nil {
		children = append(children, c.resourceMap)
	}
	children = append(children, c.chunks...)

	encoded := make([][]byte, len(children))
	for i, chunk := range children {
		encoded[i] = chunk.encode()
	}
	out := encodeChunk(resXMLType, func(w binary.Writer) {
		w.Data(c.header)
	}, func(w binary.Writer) {
		for _, data := range encoded {
			w.Data(data)
		}
	})

	if trace != nil {
		traceChunk(trace, out, 0)
		position := int64(chunkHeaderSize + len(c.header))
		for _, data := range encoded {
			traceChunk(trace, data, position)
			position += int64(len(data))
		}
	}
	return out
}

func (c *xmlTree) toXmlString() string {
	return c.xml(newXmlContext(c.strings))
}

// decodeString reads a string pool index. Missing strings are returned as
// invalidStringPoolRef. An index outside the pool sets the reader's error.
func (c *xmlTree) decodeString(r binary.Reader) stringPoolRef {
	idx := r.Uint32()
	if r.Error() != nil || idx == missingString {
		return invalidStringPoolRef
	}
	if uint64(idx) >= uint64(c.strings.count()) {
		r.SetError(errors.Wrapf(ErrStringIndexOutOfRange, "string %d, pool has %d strings", idx, c.strings.count()))
		return invalidStringPoolRef
	}
	return stringPoolRef{c.strings, idx}
}

func (c *xmlTree) pool() *stringPool {
	if c.strings == nil {
		c.strings = &stringPool{flags: utf8Flag}
		c.strings.setRoot(c)
	}
	return c.strings
}

// ensureAttributeNameMapsToResource finds a name mapping to the given resource id.
// If such a name does not exist, it is added to the string pool after the last
// string associated with a resource id, shifting all the strings after it. The
// resource map is updated to associate this string's position in the pool with
// the given resource id.
func (xml *xmlTree) ensureAttributeNameMapsToResource(resourceId uint32, attrName string) (stringPoolRef, error) {
	strings := xml.pool()
	if xml.resourceMap == nil {
		xml.resourceMap = &xmlResourceMap{}
		xml.resourceMap.setRoot(xml)
	}
	attrIdx, foundAttr := xml.resourceMap.indexOf(resourceId)
	if foundAttr {
		poolRef, found := strings.findFromStringPoolIndex(attrIdx)
		if !found {
			return invalidStringPoolRef, errors.Wrapf(ErrStringIndexOutOfRange,
				"resource 0x%08x maps to string %d, pool has %d strings", resourceId, attrIdx, strings.count())
		}
		return poolRef, nil
	}

	insertIndex := len(xml.resourceMap.ids)
	if insertIndex > strings.count() {
		return invalidStringPoolRef, errors.Wrapf(ErrStringIndexOutOfRange,
			"resource map has %d ids, pool has %d strings", insertIndex, strings.count())
	}
	xml.resourceMap.ids = append(xml.resourceMap.ids, resourceId)
	return strings.insertStringAtIndex(attrName, insertIndex), nil
}

// rootElement returns the first element of the document.
func (xml *xmlTree) rootElement() (*xmlStartElement, bool) {
	for _, c := range xml.chunks {
		if se, ok := c.(*xmlStartElement); ok {
			return se, true
		}
	}
	return nil, false
}

// unmappedRef returns a reference to str outside the resource mapped prefix of
// the pool, appending str if needed.
func (xml *xmlTree) unmappedRef(str string) stringPoolRef {
	mapped := 0
	if xml.resourceMap != nil {
		mapped = len(xml.resourceMap.ids)
	}
	p := xml.pool()
	for i, ptr := range p.ptrs {
		if ptr >= mapped && p.strings[ptr] == str {
			return stringPoolRef{p, uint32(i)}
		}
	}
	return p.insertStringAtIndex(str, len(p.strings))
}
