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

// Package binaryxml decodes and encodes the compiled binary XML format used by
// Android for AndroidManifest.xml and other compiled XML resources.
package binaryxml

import (
	"context"
	"fmt"
	"io"

	"github.com/google/binaryxml/core/data/binary"
	"github.com/google/binaryxml/core/log"
	"github.com/pkg/errors"
)

// AOSP references:
// https://android.googlesource.com/platform/frameworks/base/+/master/tools/aapt2/XmlFlattener.cpp
// https://android.googlesource.com/platform/frameworks/base/+/master/include/androidfw/ResourceTypes.h

const (
	resNullType              = 0x0000
	resStringPoolType        = 0x0001
	resTableType             = 0x0002
	resXMLType               = 0x0003
	resXMLFirstChunkType     = 0x0100
	resXMLStartNamespaceType = 0x0100
	resXMLEndNamespaceType   = 0x0101
	resXMLStartElementType   = 0x0102
	resXMLEndElementType     = 0x0103
	resXMLCDataType          = 0x0104
	resXMLLastChunkType      = 0x017f
	resXMLResourceMapType    = 0x0180
	resTablePackageType      = 0x0200
	resTableTypeType         = 0x0201
	resTableTypeSpecType     = 0x0202
	resTableLibraryType      = 0x0203
)

func chunkTypeName(ty uint16) string {
	switch ty {
	case resNullType:
		return "Null"
	case resStringPoolType:
		return "StringPool"
	case resTableType:
		return "Table"
	case resXMLType:
		return "Xml"
	case resXMLStartNamespaceType:
		return "XmlStartNamespace"
	case resXMLEndNamespaceType:
		return "XmlEndNamespace"
	case resXMLStartElementType:
		return "XmlStartElement"
	case resXMLEndElementType:
		return "XmlEndElement"
	case resXMLCDataType:
		return "XmlCData"
	case resXMLResourceMapType:
		return "XmlResourceMap"
	case resTablePackageType:
		return "TablePackage"
	case resTableTypeType:
		return "TableType"
	case resTableTypeSpecType:
		return "TableTypeSpec"
	case resTableLibraryType:
		return "TableLibrary"
	default:
		return fmt.Sprintf("Unknown<0x%04x>", ty)
	}
}

const (
	beforeContextChange = 0x00
	afterContextChange  = 0x01
)

type chunkVisitor func(*xmlContext, chunk, int)

type contextChange interface {
	updateContext(*xmlContext)
}

// scopeCheck is implemented by chunks that must be valid against the open
// elements and namespaces before they are applied.
type scopeCheck interface {
	checkContext(*xmlContext) error
}

// Decode decodes a binary Android XML file to a string.
func Decode(ctx context.Context, data []byte) (string, error) {
	xmlTree, err := decodeXmlTree(ctx, data, nil)
	if err != nil {
		return "", log.Err(ctx, err, "Decoding binary XML")
	}
	return xmlTree.toXmlString(), nil
}

type rootHolder struct {
	rootNode *xmlTree
}

func (rh *rootHolder) root() *xmlTree {
	return rh.rootNode
}

func (rh *rootHolder) setRoot(x *xmlTree) {
	rh.rootNode = x
}

type chunk interface {
	root() *xmlTree
	setRoot(x *xmlTree)

	decode(header, data []byte) error
	xml(*xmlContext) string
	encode() []byte
}

func decodeXmlTree(ctx context.Context, data []byte, trace ChunkTracer) (*xmlTree, error) {
	if len(data) >= 2 {
		if ty := uint16(data[0]) | uint16(data[1])<<8; ty != resXMLType {
			return nil, errors.Wrapf(ErrUnknownRootChunk, "root chunk is %v", chunkTypeName(ty))
		}
	}

	r := &chunkReader{data: data, trace: trace}
	h, header, payload, err := r.next()
	if err != nil {
		return nil, err
	}

	if !r.done() {
		return nil, errors.Wrapf(ErrInvalidChunkHeader, "%d bytes follow the %d byte document chunk",
			len(data)-int(h.size), h.size)
	}

	tree := &xmlTree{header: header}
	tree.setRoot(tree)
	if err := tree.decodeChunks(ctx, r.children(h, payload)); err != nil {
		return nil, err
	}
	return tree, nil
}

func decodeChunk(ctx context.Context, r *chunkReader, x *xmlTree) (chunk, error) {
	h, header, data, err := r.next()
	if err != nil {
		return nil, err
	}
	var c chunk
	switch h.ty {
	case resXMLResourceMapType:
		c = &xmlResourceMap{}
	case resStringPoolType:
		c = &stringPool{}
	case resXMLCDataType:
		c = &xmlCData{}
	case resXMLEndElementType:
		c = &xmlEndElement{}
	case resXMLEndNamespaceType:
		c = &xmlEndNamespace{}
	case resXMLStartElementType:
		c = &xmlStartElement{}
	case resXMLStartNamespaceType:
		c = &xmlStartNamespace{}
	case resXMLType:
		c = &xmlTree{}
	default:
		log.W(ctx, "Carrying unknown chunk %v at %d (%d bytes) through unchanged", h.name(), h.position, h.size)
		c = &xmlUnknownChunk{ty: h.ty}
	}
	c.setRoot(x)
	err = c.decode(header, data)
	switch errors.Cause(err) {
	case nil:
		return c, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return nil, errors.Wrapf(ErrTruncatedStream, "chunk %v at %d read past end of data", h.name(), h.position)
	default:
		return nil, errors.Wrapf(err, "chunk %v at %d", h.name(), h.position)
	}
}

// decodeLength reads a UTF-16 string pool length: one unit, or two when the
// high bit of the first is set.
func decodeLength(r binary.Reader) uint32 {
	length := uint32(r.Uint16())
	if length&0x8000 != 0 {
		length = ((length & 0x7fff) << 16) | uint32(r.Uint16())
	}
	return length
}

func encodeLength(w binary.Writer, length uint32) {
	if length > 0x7fff {
		w.Uint16(uint16(0x8000 | (length>>16)&0x7fff))
		w.Uint16(uint16(length))
		return
	}
	w.Uint16(uint16(length))
}

// decodeLength8 reads a UTF-8 string pool length: one byte, or two when the
// high bit of the first is set.
func decodeLength8(r binary.Reader) uint32 {
	length := uint32(r.Uint8())
	if length&0x80 != 0 {
		length = ((length & 0x7f) << 8) | uint32(r.Uint8())
	}
	return length
}

func encodeLength8(w binary.Writer, length uint32) {
	if length > 0x7f {
		w.Uint8(uint8(0x80 | (length>>8)&0x7f))
		w.Uint8(uint8(length))
		return
	}
	w.Uint8(uint8(length))
}
