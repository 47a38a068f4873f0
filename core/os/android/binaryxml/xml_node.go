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

// xmlNode is the header shared by the namespace, element and CDATA chunks.
type xmlNode struct {
	rootHolder
	lineNumber uint32
	comment    stringPoolRef
	extra      []byte // header bytes past the comment, carried verbatim.
}

func (n *xmlNode) decodeHeader(header []byte) error {
	r := endian.Reader(bytes.NewReader(header), device.LittleEndian)
	n.lineNumber = r.Uint32()
	n.comment = n.root().decodeString(r)
	if err := r.Error(); err != nil {
		return err
	}
	if len(header) > 8 {
		n.extra = append([]byte{}, header[8:]...)
	}
	return nil
}

func (n *xmlNode) encodeHeader(w binary.Writer) {
	w.Uint32(n.lineNumber)
	n.comment.encode(w)
	w.Data(n.extra)
}

// xmlUnknownChunk is a chunk of a type this package does not interpret.
type xmlUnknownChunk struct {
	rootHolder
	ty     uint16
	header []byte
	data   []byte
}

func (c *xmlUnknownChunk) decode(header, data []byte) error {
	c.header = append([]byte{}, header...)
	c.data = append([]byte{}, data...)
	return nil
}

func (xmlUnknownChunk) xml(*xmlContext) string { return "" }

func (c *xmlUnknownChunk) encode() []byte {
	return encodeChunk(c.ty, func(w binary.Writer) {
		w.Data(c.header)
	}, func(w binary.Writer) {
		w.Data(c.data)
	})
}
