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

// Package endian implements binary.Reader and binary.Writer for a fixed byte
// order.
package endian

import (
	eb "encoding/binary"
	"io"
	"math"

	"github.com/google/binaryxml/core/data/binary"
	"github.com/google/binaryxml/core/os/device"
)

func byteOrder(endian device.Endian) eb.ByteOrder {
	switch endian {
	case device.LittleEndian:
		return eb.LittleEndian
	case device.BigEndian:
		return eb.BigEndian
	default:
		return eb.LittleEndian
	}
}

// Reader creates a binary.Reader that reads from the provided io.Reader, with
// the specified byte order.
func Reader(r io.Reader, endian device.Endian) binary.Reader {
	return &reader{reader: r, byteOrder: byteOrder(endian)}
}

// Writer creates a binary.Writer that writes to the supplied stream, with the
// specified byte order.
func Writer(w io.Writer, endian device.Endian) binary.Writer {
	return &writer{writer: w, byteOrder: byteOrder(endian)}
}

type reader struct {
	reader    io.Reader
	tmp       [8]byte
	byteOrder eb.ByteOrder
	offset    int
	err       error
}

type writer struct {
	writer    io.Writer
	tmp       [8]byte
	byteOrder eb.ByteOrder
	err       error
}

func (r *reader) read(p []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.reader, p)
	r.offset += n
	if err != nil {
		r.err = err
		return false
	}
	return true
}

func (r *reader) Data(p []byte) {
	r.read(p)
}

func (w *writer) Data(data []byte) {
	if w.err != nil {
		return
	}
	n, err := w.writer.Write(data)
	if err != nil {
		w.err = err
	} else if n != len(data) {
		w.err = io.ErrShortWrite
	}
}

func (r *reader) Uint8() uint8 {
	if !r.read(r.tmp[:1]) {
		return 0
	}
	return r.tmp[0]
}

func (w *writer) Uint8(v uint8) {
	w.tmp[0] = v
	w.Data(w.tmp[:1])
}

func (r *reader) Uint16() uint16 {
	if !r.read(r.tmp[:2]) {
		return 0
	}
	return r.byteOrder.Uint16(r.tmp[:])
}

func (w *writer) Uint16(v uint16) {
	w.byteOrder.PutUint16(w.tmp[:], v)
	w.Data(w.tmp[:2])
}

func (r *reader) Int32() int32 {
	return int32(r.Uint32())
}

func (w *writer) Int32(v int32) {
	w.Uint32(uint32(v))
}

func (r *reader) Uint32() uint32 {
	if !r.read(r.tmp[:4]) {
		return 0
	}
	return r.byteOrder.Uint32(r.tmp[:])
}

func (w *writer) Uint32(v uint32) {
	w.byteOrder.PutUint32(w.tmp[:], v)
	w.Data(w.tmp[:4])
}

func (r *reader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

func (w *writer) Float32(v float32) {
	w.Uint32(math.Float32bits(v))
}

func (r *reader) Offset() int {
	return r.offset
}

func (r *reader) Error() error {
	return r.err
}

func (w *writer) Error() error {
	return w.err
}

func (r *reader) SetError(err error) {
	if r.err != nil {
		return
	}
	r.err = err
}

func (w *writer) SetError(err error) {
	if w.err != nil {
		return
	}
	w.err = err
}
