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
	"strings"
	"testing"

	"github.com/google/binaryxml/core/assert"
	"github.com/google/binaryxml/core/data/endian"
	"github.com/google/binaryxml/core/log"
	"github.com/google/binaryxml/core/os/device"
)

func decodePool(data []byte) (*stringPool, error) {
	r := &chunkReader{data: data}
	_, header, payload, err := r.next()
	if err != nil {
		return nil, err
	}
	p := &stringPool{}
	return p, p.decode(header, payload)
}

func TestStringPoolEncodings(t *testing.T) {
	assert := assert.To(t)
	strs := []string{"", "plain", "héllo", "日本", "😀"}
	for _, flags := range []uint32{0, utf8Flag, sortedFlag | utf8Flag} {
		p := testPool(strs...)
		p.flags = flags
		data := p.encode()
		assert.For("aligned").ThatInteger(len(data) % 4).Equals(0)

		got, err := decodePool(data)
		assert.For("err").ThatError(err).Succeeded()
		assert.For("strings").ThatSlice(got.strings).Equals(strs)
		assert.For("flags").That(got.flags).Equals(flags)
		assert.For("re-encoded").ThatSlice(got.encode()).Equals(data)
	}
}

func TestStringPoolEntryLayout(t *testing.T) {
	assert := assert.To(t)
	p := testPool("😀")
	p.flags = utf8Flag
	data := p.encode()
	// Header, one offset, then the UTF-16 length, the UTF-8 length, the bytes,
	// the terminator and padding.
	assert.For("utf8 entry").ThatSlice(data[32:]).Equals([]byte{2, 4, 0xf0, 0x9f, 0x98, 0x80, 0, 0})

	p.flags = 0
	data = p.encode()
	assert.For("utf16 entry").ThatSlice(data[32:]).Equals([]byte{2, 0, 0x3d, 0xd8, 0x00, 0xde, 0, 0})
}

func TestStringPoolFallsBackToUTF16(t *testing.T) {
	assert := assert.To(t)
	long := strings.Repeat("x", 0x8000)
	p := testPool("short", long)
	p.flags = utf8Flag
	data := p.encode()

	got, err := decodePool(data)
	assert.For("err").ThatError(err).Succeeded()
	assert.For("utf8").That(got.flags & utf8Flag).Equals(uint32(0))
	assert.For("strings").ThatSlice(got.strings).Equals([]string{"short", long})
	// "short" takes 2+10+2 bytes, then the extended length of the long string.
	assert.For("long length").ThatSlice(data[36+14 : 36+18]).Equals([]byte{0x00, 0x80, 0x00, 0x80})
}

func TestStringPoolStyles(t *testing.T) {
	assert := assert.To(t)
	p := testPool("bold and italic", "b", "i")
	p.styles = [][]stringPoolSpan{
		{{name: stringPoolRef{p, 1}, firstChar: 0, lastChar: 3}, {name: stringPoolRef{p, 2}, firstChar: 9, lastChar: 14}},
	}
	data := p.encode()
	assert.For("end").ThatSlice(data[len(data)-12:]).Equals(bytes.Repeat([]byte{0xff}, 12))

	got, err := decodePool(data)
	assert.For("err").ThatError(err).Succeeded()
	assert.For("styles").ThatSlice(got.styles).IsLength(1)
	spans := got.styles[0]
	assert.For("spans").ThatSlice(spans).IsLength(2)
	assert.For("span name").ThatString(spans[0].name.get()).Equals("b")
	assert.For("span range").That([2]uint32{spans[1].firstChar, spans[1].lastChar}).Equals([2]uint32{9, 14})
	assert.For("span name").ThatString(spans[1].name.get()).Equals("i")
	assert.For("re-encoded").ThatSlice(got.encode()).Equals(data)
}

func TestStringPoolInsertKeepsReferences(t *testing.T) {
	assert := assert.To(t)
	p := testPool("a", "b", "c")
	c := stringPoolRef{p, 2}
	x := p.insertStringAtIndex("x", 1)
	assert.For("strings").ThatSlice(p.strings).Equals([]string{"a", "x", "b", "c"})
	assert.For("c").ThatString(c.get()).Equals("c")
	assert.For("c index").That(c.stringPoolIndex()).Equals(uint32(3))
	assert.For("x index").That(x.stringPoolIndex()).Equals(uint32(1))
	assert.For("dedup").That(p.ref("b").stringPoolIndex()).Equals(uint32(2))
	assert.For("append").That(p.ref("d").stringPoolIndex()).Equals(uint32(4))
	assert.For("missing").ThatString(invalidStringPoolRef.get()).Equals("")
	assert.For("missing index").That(invalidStringPoolRef.stringPoolIndex()).Equals(uint32(missingString))
}

func TestStringPoolCorruption(t *testing.T) {
	ctx := log.Testing(t)
	badOffset := manifest(false)
	// The string offset table starts after the outer and pool headers.
	putU32(badOffset[8+28:], 0xfff0)

	badCount := manifest(false)
	putU32(badCount[16:], 0x10000000)

	badStart := manifest(false)
	putU32(badStart[8+20:], 0xffff)

	for _, test := range []struct {
		name string
		data []byte
		err  error
	}{
		{"offset", badOffset, ErrStringIndexOutOfRange},
		{"count", badCount, ErrTruncatedStream},
		{"strings start", badStart, ErrStringIndexOutOfRange},
	} {
		_, err := Parse(ctx, test.data, nil)
		assert.For(t, test.name).ThatError(err).HasCause(test.err)
	}
}

func TestLengthPrefixes(t *testing.T) {
	assert := assert.To(t)
	for _, n := range []uint32{0, 0x7f, 0x80, 0x7fff, 0x8000, 0x12345678} {
		buf := bytes.Buffer{}
		w := endian.Writer(&buf, device.LittleEndian)
		encodeLength(w, n)
		if n <= 0x7fff {
			encodeLength8(w, n)
		}
		r := endian.Reader(&buf, device.LittleEndian)
		assert.For("length %d", n).That(decodeLength(r)).Equals(n)
		if n <= 0x7fff {
			assert.For("length8 %d", n).That(decodeLength8(r)).Equals(n)
		}
		assert.For("err").ThatError(r.Error()).Succeeded()
	}
}
