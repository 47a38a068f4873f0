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

const chunkHeaderSize = 8

// ChunkTracer is called once per chunk, in the order the chunks appear in the
// stream, with the chunk type name, the total chunk size in bytes and the
// offset of the chunk from the start of the stream.
type ChunkTracer func(chunkType string, size uint32, position int64)

type chunkHeader struct {
	ty         uint16
	headerSize uint16
	size       uint32
	position   int64
}

func (h chunkHeader) name() string { return chunkTypeName(h.ty) }

// chunkReader walks a sequence of sibling chunks held in an owned buffer.
type chunkReader struct {
	data  []byte
	base  int64 // stream position of data[0]
	pos   int
	trace ChunkTracer
}

func (r *chunkReader) done() bool { return r.pos >= len(r.data) }

// next reads the envelope of the next chunk and returns its type specific
// header bytes and its payload.
func (r *chunkReader) next() (chunkHeader, []byte, []byte, error) {
	position := r.base + int64(r.pos)
	rest := r.data[r.pos:]
	if len(rest) < chunkHeaderSize {
		return chunkHeader{}, nil, nil, errors.Wrapf(ErrTruncatedStream,
			"chunk header at %d needs %d bytes, %d remain", position, chunkHeaderSize, len(rest))
	}
	br := endian.Reader(bytes.NewReader(rest[:chunkHeaderSize]), device.LittleEndian)
	h := chunkHeader{
		ty:         br.Uint16(),
		headerSize: br.Uint16(),
		size:       br.Uint32(),
		position:   position,
	}
	if h.headerSize < chunkHeaderSize {
		return h, nil, nil, errors.Wrapf(ErrInvalidChunkHeader,
			"chunk %v at %d has header size %d", h.name(), position, h.headerSize)
	}
	if h.size < uint32(h.headerSize) {
		return h, nil, nil, errors.Wrapf(ErrInvalidChunkHeader,
			"chunk %v at %d has size %d smaller than its header size %d", h.name(), position, h.size, h.headerSize)
	}
	if uint64(h.size) > uint64(len(rest)) {
		return h, nil, nil, errors.Wrapf(ErrTruncatedStream,
			"chunk %v at %d declares %d bytes, %d remain", h.name(), position, h.size, len(rest))
	}
	r.pos += int(h.size)
	if r.trace != nil {
		r.trace(h.name(), h.size, h.position)
	}
	return h, rest[chunkHeaderSize:h.headerSize], rest[h.headerSize:h.size], nil
}

// children returns a reader over the chunks held in the payload of h.
func (r *chunkReader) children(h chunkHeader, data []byte) *chunkReader {
	return &chunkReader{
		data:  data,
		base:  h.position + int64(h.headerSize),
		trace: r.trace,
	}
}

// encodeChunk takes functions that output chunk-specific header and data to a writer, and then uses them to
// compute header and chunk sizes, as well as writing the whole chunk to a byte array, which is then returned.
func encodeChunk(chunkType uint16, headerf func(w binary.Writer), dataf func(w binary.Writer)) []byte {
	var headerBuffer bytes.Buffer
	headerf(endian.Writer(&headerBuffer, device.LittleEndian))
	headerBytes := headerBuffer.Bytes()

	var dataBuffer bytes.Buffer
	dataf(endian.Writer(&dataBuffer, device.LittleEndian))
	dataBytes := dataBuffer.Bytes()

	var chunkBuffer bytes.Buffer
	w := endian.Writer(&chunkBuffer, device.LittleEndian)
	w.Uint16(chunkType)
	w.Uint16(uint16(len(headerBytes) + chunkHeaderSize))
	w.Uint32(uint32(len(headerBytes) + len(dataBytes) + chunkHeaderSize))
	w.Data(headerBytes)
	w.Data(dataBytes)

	return chunkBuffer.Bytes()
}

// traceChunk reports an encoded chunk placed at position in the output.
func traceChunk(trace ChunkTracer, encoded []byte, position int64) {
	if trace == nil || len(encoded) < chunkHeaderSize {
		return
	}
	ty := uint16(encoded[0]) | uint16(encoded[1])<<8
	trace(chunkTypeName(ty), uint32(len(encoded)), position)
}
