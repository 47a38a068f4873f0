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

type xmlCData struct {
	xmlNode
	data       stringPoolRef
	typedValue typedValue
}

func (c *xmlCData) decode(header, data []byte) error {
	if err := c.decodeHeader(header); err != nil {
		return err
	}

	r := endian.Reader(bytes.NewReader(data), device.LittleEndian)
	c.data = c.root().decodeString(r)
	tv, err := decodeValue(r, c.root())
	if err != nil {
		return err
	}
	c.typedValue = tv
	return nil
}

func (c *xmlCData) text() string {
	if c.data.isValid() {
		return c.data.get()
	}
	s, _ := c.typedValue.resolve()
	return s
}

func (c *xmlCData) xml(ctx *xmlContext) string {
	return ctx.margin(0) + "<![CDATA[" + c.text() + "]]>"
}

func (c *xmlCData) encode() []byte {
	return encodeChunk(resXMLCDataType, c.encodeHeader, func(w binary.Writer) {
		c.data.encode(w)
		c.typedValue.encode(w)
	})
}
