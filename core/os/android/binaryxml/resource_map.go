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

// xmlResourceMap holds the resource ids of the first len(ids) strings of the
// pool. Only attribute names are mapped.
type xmlResourceMap struct {
	rootHolder
	ids []uint32
}

func (c *xmlResourceMap) decode(header, data []byte) error {
	if len(data)%4 != 0 {
		return errors.Wrapf(ErrInvalidChunkHeader, "resource map payload of %d bytes", len(data))
	}
	r := endian.Reader(bytes.NewReader(data), device.LittleEndian)
	c.ids = make([]uint32, len(data)/4)
	for i := range c.ids {
		c.ids[i] = r.Uint32()
	}
	return r.Error()
}

func (xmlResourceMap) xml(*xmlContext) string { return "" }

func (c *xmlResourceMap) encode() []byte {
	return encodeChunk(resXMLResourceMapType, func(w binary.Writer) {}, func(w binary.Writer) {
		for _, id := range c.ids {
			w.Uint32(id)
		}
	})
}

func (c *xmlResourceMap) indexOf(resourceId uint32) (uint32, bool) {
	if c == nil {
		return 0, false
	}
	for i, id := range c.ids {
		if id == resourceId {
			return uint32(i), true
		}
	}
	return 0, false
}

// idAt returns the resource id of the string at the encoded pool index idx.
func (c *xmlResourceMap) idAt(idx uint32) (uint32, bool) {
	if c == nil || uint64(idx) >= uint64(len(c.ids)) {
		return 0, false
	}
	return c.ids[idx], true
}
