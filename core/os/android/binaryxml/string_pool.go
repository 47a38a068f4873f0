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
	"unicode/utf16"
	"unicode/utf8"

	"github.com/google/binaryxml/core/data/binary"
	"github.com/google/binaryxml/core/data/endian"
	"github.com/google/binaryxml/core/os/device"
	"github.com/pkg/errors"
)

type stringPoolRef struct {
	sp  *stringPool
	idx uint32
}

const missingString = 0xffffffff

var invalidStringPoolRef stringPoolRef = stringPoolRef{nil, missingString}

func (r stringPoolRef) isValid() bool {
	return r.idx != missingString && r.sp != nil && int(r.idx) < len(r.sp.ptrs)
}

func (r stringPoolRef) encode(w binary.Writer) {
	w.Uint32(r.stringPoolIndex())
}

func (r stringPoolRef) stringPoolIndex() uint32 {
	if !r.isValid() {
		return missingString
	}
	return uint32(r.sp.ptrs[r.idx])
}

func (r stringPoolRef) get() string {
	if r.isValid() {
		return r.sp.strings[r.sp.ptrs[r.idx]]
	}
	return ""
}

// sameString returns true if both references are missing, or both resolve to
// the same text.
func (r stringPoolRef) sameString(o stringPoolRef) bool {
	if r.isValid() != o.isValid() {
		return false
	}
	return r.get() == o.get()
}

const (
	sortedFlag = 1 << 0
	utf8Flag   = 1 << 8

	stringPoolHeaderSize = chunkHeaderSize + 5*4

	// spanEnd terminates the span list of a style.
	spanEnd = 0xffffffff
	// maxEncodedLength is the longest length the UTF-8 length prefix can hold.
	maxEncodedLength = 0x7fff
)

// stringPoolSpan is a styled range of a pool string. name is the style tag.
type stringPoolSpan struct {
	name      stringPoolRef
	firstChar uint32
	lastChar  uint32
}

// See:
// https://android.googlesource.com/platform/frameworks/base/+/master/tools/aapt2/StringPool.cpp
type stringPool struct {
	rootHolder
	strings []string
	styles  [][]stringPoolSpan // styles[i] holds the spans of strings[i].
	flags   uint32
	ptrs    []int // ptrs maps indices in stringPoolRefs to indices in the raw strings array.
}

func (c *stringPool) count() int {
	if c == nil {
		return 0
	}
	return len(c.strings)
}

// section returns the part of data starting at the chunk relative offset start.
func section(data []byte, start, dataOffset uint32, what string) ([]byte, error) {
	if start < dataOffset || uint64(start-dataOffset) > uint64(len(data)) {
		return nil, errors.Wrapf(ErrStringIndexOutOfRange,
			"%s start %d outside pool data [%d, %d]", what, start, dataOffset, uint64(dataOffset)+uint64(len(data)))
	}
	return data[start-dataOffset:], nil
}

func (c *stringPool) decode(header, data []byte) error {
	// dataOffset is the offset of data relative to the start of the chunk.
	dataOffset := uint32(chunkHeaderSize + len(header))

	r := endian.Reader(bytes.NewReader(header), device.LittleEndian)
	stringCount := r.Uint32()
	styleCount := r.Uint32()
	c.flags = r.Uint32()
	stringsStart := r.Uint32()
	stylesStart := r.Uint32()
	if err := r.Error(); err != nil {
		return err
	}
	if styleCount > stringCount {
		return errors.Wrapf(ErrStringIndexOutOfRange, "%d styles for %d strings", styleCount, stringCount)
	}
	if (uint64(stringCount)+uint64(styleCount))*4 > uint64(len(data)) {
		return errors.Wrapf(ErrTruncatedStream, "offset tables for %d strings and %d styles exceed %d bytes",
			stringCount, styleCount, len(data))
	}

	r = endian.Reader(bytes.NewReader(data), device.LittleEndian)
	indices := make([]uint32, stringCount)
	for i := range indices {
		indices[i] = r.Uint32()
	}
	styleIndices := make([]uint32, styleCount)
	for i := range styleIndices {
		styleIndices[i] = r.Uint32()
	}

	c.ptrs = make([]int, stringCount)
	c.strings = make([]string, stringCount)
	if stringCount > 0 {
		block, err := section(data, stringsStart, dataOffset, "strings")
		if err != nil {
			return err
		}
		for i, offset := range indices {
			if uint64(offset) >= uint64(len(block)) {
				return errors.Wrapf(ErrStringIndexOutOfRange,
					"string %d at offset %d outside %d bytes of string data", i, offset, len(block))
			}
			var str string
			if c.flags&utf8Flag != 0 {
				str, err = decodeUTF8Entry(block[offset:])
			} else {
				str, err = decodeUTF16Entry(block[offset:])
			}
			if err != nil {
				return err
			}
			c.strings[i] = str
			c.ptrs[i] = i
		}
	}

	c.styles = make([][]stringPoolSpan, styleCount)
	if styleCount > 0 {
		block, err := section(data, stylesStart, dataOffset, "styles")
		if err != nil {
			return err
		}
		for i, offset := range styleIndices {
			if uint64(offset) >= uint64(len(block)) {
				return errors.Wrapf(ErrStringIndexOutOfRange,
					"style %d at offset %d outside %d bytes of style data", i, offset, len(block))
			}
			spans, err := c.decodeSpans(block[offset:], stringCount)
			if err != nil {
				return err
			}
			c.styles[i] = spans
		}
	}
	return nil
}

func (c *stringPool) decodeSpans(data []byte, stringCount uint32) ([]stringPoolSpan, error) {
	r := endian.Reader(bytes.NewReader(data), device.LittleEndian)
	spans := []stringPoolSpan{}
	for {
		name := r.Uint32()
		if err := r.Error(); err != nil {
			return nil, err
		}
		if name == spanEnd {
			return spans, nil
		}
		if name >= stringCount {
			return nil, errors.Wrapf(ErrStringIndexOutOfRange, "span name %d, pool has %d strings", name, stringCount)
		}
		span := stringPoolSpan{
			name:      stringPoolRef{c, name},
			firstChar: r.Uint32(),
			lastChar:  r.Uint32(),
		}
		spans = append(spans, span)
	}
}

func decodeUTF16Entry(data []byte) (string, error) {
	r := endian.Reader(bytes.NewReader(data), device.LittleEndian)
	runeCount := decodeLength(r)
	if uint64(runeCount)*2 > uint64(len(data)) {
		return "", errors.Wrapf(ErrTruncatedStream, "UTF-16 string of %d units in %d bytes", runeCount, len(data))
	}
	str := make([]uint16, runeCount)
	for i := range str {
		str[i] = r.Uint16()
	}
	return string(utf16.Decode(str)), r.Error()
}

func decodeUTF8Entry(data []byte) (string, error) {
	r := endian.Reader(bytes.NewReader(data), device.LittleEndian)
	decodeLength8(r) // UTF-16 length, derived again on encode.
	byteCount := decodeLength8(r)
	if uint64(byteCount) > uint64(len(data)) {
		return "", errors.Wrapf(ErrTruncatedStream, "UTF-8 string of %d bytes in %d bytes", byteCount, len(data))
	}
	str := make([]byte, byteCount)
	r.Data(str)
	return string(str), r.Error()
}

func (stringPool) xml(*xmlContext) string { return "" }

func utf16Length(str string) int {
	n := 0
	for _, r := range str {
		if r >= 0x10000 && r <= utf8.MaxRune {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func utf16EncodeStringPoolEntry(w binary.Writer, str string) {
	runes := utf16.Encode([]rune(str))
	encodeLength(w, uint32(len(runes)))
	for _, rune := range runes {
		w.Uint16(rune)
	}
	w.Uint16(0)
}

func utf8EncodeStringPoolEntry(w binary.Writer, str string) {
	encodeLength8(w, uint32(utf16Length(str)))
	encodeLength8(w, uint32(len(str)))
	w.Data([]byte(str))
	w.Uint8(0)
}

// isUTF8 returns true if the pool is to be encoded as UTF-8. A UTF-8 pool falls
// back to UTF-16 when a string is too long for the UTF-8 length prefix.
func (c *stringPool) isUTF8() bool {
	if c.flags&utf8Flag == 0 {
		return false
	}
	for _, s := range c.strings {
		if len(s) > maxEncodedLength || utf16Length(s) > maxEncodedLength {
			return false
		}
	}
	return true
}

func (c *stringPool) encode() []byte {
	utf8Pool := c.isUTF8()
	flags := c.flags &^ utf8Flag
	if utf8Pool {
		flags |= utf8Flag
	}

	var stringData bytes.Buffer
	sw := endian.Writer(&stringData, device.LittleEndian)
	stringOffsets := make([]uint32, len(c.strings))
	for i, str := range c.strings {
		stringOffsets[i] = uint32(stringData.Len())
		if utf8Pool {
			utf8EncodeStringPoolEntry(sw, str)
		} else {
			utf16EncodeStringPoolEntry(sw, str)
		}
	}
	// The string data is padded to a 4 byte boundary.
	for stringData.Len()%4 != 0 {
		sw.Uint8(0)
	}

	var styleData bytes.Buffer
	yw := endian.Writer(&styleData, device.LittleEndian)
	styleOffsets := make([]uint32, len(c.styles))
	for i, spans := range c.styles {
		styleOffsets[i] = uint32(styleData.Len())
		for _, span := range spans {
			span.name.encode(yw)
			yw.Uint32(span.firstChar)
			yw.Uint32(span.lastChar)
		}
		yw.Uint32(spanEnd)
	}
	if len(c.styles) > 0 {
		// aapt2 closes the style data with a full span worth of END markers.
		yw.Uint32(spanEnd)
		yw.Uint32(spanEnd)
	}

	stringsStart := uint32(stringPoolHeaderSize + 4*len(stringOffsets) + 4*len(styleOffsets))
	stylesStart := uint32(0)
	if len(c.styles) > 0 {
		stylesStart = stringsStart + uint32(stringData.Len())
	}

	return encodeChunk(resStringPoolType, func(w binary.Writer) {
		w.Uint32(uint32(len(c.strings)))
		w.Uint32(uint32(len(c.styles)))
		w.Uint32(flags)
		w.Uint32(stringsStart)
		w.Uint32(stylesStart)
	}, func(w binary.Writer) {
		for _, offset := range stringOffsets {
			w.Uint32(offset)
		}
		for _, offset := range styleOffsets {
			w.Uint32(offset)
		}
		w.Data(stringData.Bytes())
		w.Data(styleData.Bytes())
	})
}

// lookup returns the string stored at the encoded pool index idx.
func (p *stringPool) lookup(idx uint32) (string, bool) {
	if p == nil || uint64(idx) >= uint64(len(p.strings)) {
		return "", false
	}
	return p.strings[idx], true
}

// findFromStringPoolIndex returns a pool reference for the string at the given
// index in the encoded pool.
func (p *stringPool) findFromStringPoolIndex(idx uint32) (stringPoolRef, bool) {
	for i, ptr := range p.ptrs {
		if uint32(ptr) == idx {
			return stringPoolRef{p, uint32(i)}, true
		}
	}
	return invalidStringPoolRef, false
}

func (p *stringPool) find(str string) (stringPoolRef, bool) {
	for i, ptr := range p.ptrs {
		if p.strings[ptr] == str {
			return stringPoolRef{p, uint32(i)}, true
		}
	}
	return invalidStringPoolRef, false
}

// ref returns a reference to str, appending it to the pool if it is not
// already present.
func (p *stringPool) ref(str string) stringPoolRef {
	ref, found := p.find(str)
	if found {
		return ref
	}
	return p.insertStringAtIndex(str, len(p.strings))
}

// insertStringAtIndex inserts a string at a given index in the pool and then
// updates the ptrs array, so that existing pool references continue to work.
// This index is the final position of the string in the encoded string pool.
func (p *stringPool) insertStringAtIndex(str string, index int) stringPoolRef {
	p.strings = append(p.strings[:index], append([]string{str}, p.strings[index:]...)...)
	if index < len(p.styles) {
		p.styles = append(p.styles[:index], append([][]stringPoolSpan{{}}, p.styles[index:]...)...)
	}
	for i, ptr := range p.ptrs {
		if ptr >= index {
			p.ptrs[i] = ptr + 1
		}
	}
	p.ptrs = append(p.ptrs, index)
	return stringPoolRef{p, uint32(len(p.ptrs) - 1)}
}
