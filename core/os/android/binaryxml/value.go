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
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/binaryxml/core/data/binary"
	"github.com/pkg/errors"
)

const valueSize = 8

// ValueType is the type tag of a typed attribute value.
type ValueType uint8

const (
	TypeNull             ValueType = 0x00
	TypeReference        ValueType = 0x01
	TypeAttribute        ValueType = 0x02
	TypeString           ValueType = 0x03
	TypeFloat            ValueType = 0x04
	TypeDimension        ValueType = 0x05
	TypeFraction         ValueType = 0x06
	TypeDynamicReference ValueType = 0x07
	TypeDynamicAttribute ValueType = 0x08
	TypeIntDec           ValueType = 0x10
	TypeIntHex           ValueType = 0x11
	TypeIntBoolean       ValueType = 0x12
	TypeIntColorARGB8    ValueType = 0x1c
	TypeIntColorRGB8     ValueType = 0x1d
	TypeIntColorARGB4    ValueType = 0x1e
	TypeIntColorRGB4     ValueType = 0x1f
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "Null"
	case TypeReference:
		return "Reference"
	case TypeAttribute:
		return "Attribute"
	case TypeString:
		return "String"
	case TypeFloat:
		return "Float"
	case TypeDimension:
		return "Dimension"
	case TypeFraction:
		return "Fraction"
	case TypeDynamicReference:
		return "DynamicReference"
	case TypeDynamicAttribute:
		return "DynamicAttribute"
	case TypeIntDec:
		return "IntDec"
	case TypeIntHex:
		return "IntHex"
	case TypeIntBoolean:
		return "IntBoolean"
	case TypeIntColorARGB8:
		return "IntColorARGB8"
	case TypeIntColorRGB8:
		return "IntColorRGB8"
	case TypeIntColorARGB4:
		return "IntColorARGB4"
	case TypeIntColorRGB4:
		return "IntColorRGB4"
	default:
		return fmt.Sprintf("type<%d>", t)
	}
}

// Value is a typed attribute value. For TypeString, Data is a string pool index.
type Value struct {
	Type ValueType
	Data uint32
}

func (v Value) String() string { return fmt.Sprintf("%v(0x%08x)", v.Type, v.Data) }

const (
	nullUndefined = 0
	nullEmpty     = 1

	boolTrue = 0xffffffff
)

// Complex values (dimensions and fractions) hold a signed 24 bit mantissa, a
// radix selecting where the binary point sits in the mantissa and a unit.
const (
	complexUnitShift     = 0
	complexUnitMask      = 0xf
	complexRadixShift    = 4
	complexRadixMask     = 0x3
	complexMantissaShift = 8
	complexMantissaMask  = 0xffffff

	radix23p0 = 0
	radix16p7 = 1
	radix8p15 = 2
	radix0p23 = 3
)

var radixMults = [4]float64{
	1.0 / (1 << 8),
	1.0 / (1 << 15),
	1.0 / (1 << 23),
	1.0 / (1 << 31),
}

type complexUnit struct {
	suffix string
	unit   uint32
}

// The first suffix listed for a unit is the one it resolves to. "%p" must be
// tried before "%".
var (
	dimensionUnits = []complexUnit{
		{"px", 0}, {"dp", 1}, {"dip", 1}, {"sp", 2}, {"pt", 3}, {"in", 4}, {"mm", 5},
	}
	fractionUnits = []complexUnit{
		{"%p", 1}, {"%", 0},
	}
)

func unitSuffix(units []complexUnit, unit uint32) (string, bool) {
	for _, u := range units {
		if u.unit == unit {
			return u.suffix, true
		}
	}
	return "", false
}

func complexToFloat(data uint32) float64 {
	mantissa := int32(data & (complexMantissaMask << complexMantissaShift))
	return float64(mantissa) * radixMults[(data>>complexRadixShift)&complexRadixMask]
}

// floatToComplex packs f into the mantissa and radix bits of a complex value,
// choosing the radix that keeps the most precision and then the coarsest radix
// that represents the rounded mantissa.
func floatToComplex(f float32) uint32 {
	neg := f < 0
	if neg {
		f = -f
	}
	scaled := float32(f * (1 << 23))
	bits := uint64(float32(scaled + 0.5))
	var radix, shift uint32
	switch {
	case bits&0x7fffff == 0:
		radix, shift = radix23p0, 23
	case bits&0xffffffffff800000 == 0:
		radix, shift = radix0p23, 0
	case bits&0xffffffff80000000 == 0:
		radix, shift = radix8p15, 8
	case bits&0xffffff8000000000 == 0:
		radix, shift = radix16p7, 16
	default:
		radix, shift = radix23p0, 23
	}
	mantissa := uint32(bits>>shift) & complexMantissaMask
	radix, mantissa = coarsestRadix(radix, mantissa)
	if neg {
		mantissa = -mantissa & complexMantissaMask
	}
	return radix<<complexRadixShift | mantissa<<complexMantissaShift
}

// coarsestRadix moves mantissa to the radix with the fewest fraction bits that
// still holds it exactly. Resolved text parses back to the same bits.
func coarsestRadix(radix, mantissa uint32) (uint32, uint32) {
	for {
		var coarser, drop uint32
		switch radix {
		case radix0p23:
			coarser, drop = radix8p15, 8
		case radix8p15:
			coarser, drop = radix16p7, 8
		case radix16p7:
			coarser, drop = radix23p0, 7
		default:
			return radix, mantissa
		}
		if mantissa&(1<<drop-1) != 0 {
			return radix, mantissa
		}
		radix, mantissa = coarser, mantissa>>drop
	}
}

func unsupported(v Value) error {
	return errors.Wrapf(ErrUnsupportedValueType, "%v", v)
}

// resolveValue returns the text form of v. String values are looked up in
// pool.
func resolveValue(v Value, pool *stringPool) (string, error) {
	d := v.Data
	switch v.Type {
	case TypeNull:
		switch d {
		case nullUndefined:
			return "", nil
		case nullEmpty:
			return "@empty", nil
		}
		return "", unsupported(v)
	case TypeReference, TypeDynamicReference:
		if d == 0 {
			return "@null", nil
		}
		return fmt.Sprintf("@0x%08x", d), nil
	case TypeAttribute, TypeDynamicAttribute:
		return fmt.Sprintf("?0x%08x", d), nil
	case TypeString:
		str, ok := pool.lookup(d)
		if !ok {
			return "", errors.Wrapf(ErrStringIndexOutOfRange, "string value %d, pool has %d strings", d, pool.count())
		}
		return str, nil
	case TypeFloat:
		return strconv.FormatFloat(float64(math.Float32frombits(d)), 'g', -1, 32), nil
	case TypeDimension:
		suffix, ok := unitSuffix(dimensionUnits, (d>>complexUnitShift)&complexUnitMask)
		if !ok {
			return "", unsupported(v)
		}
		return strconv.FormatFloat(complexToFloat(d), 'f', -1, 32) + suffix, nil
	case TypeFraction:
		suffix, ok := unitSuffix(fractionUnits, (d>>complexUnitShift)&complexUnitMask)
		if !ok {
			return "", unsupported(v)
		}
		return strconv.FormatFloat(complexToFloat(d)*100, 'f', -1, 64) + suffix, nil
	case TypeIntDec:
		return strconv.FormatInt(int64(int32(d)), 10), nil
	case TypeIntHex:
		return fmt.Sprintf("0x%x", d), nil
	case TypeIntBoolean:
		if d != 0 {
			return "true", nil
		}
		return "false", nil
	case TypeIntColorARGB8:
		return fmt.Sprintf("#%08x", d), nil
	case TypeIntColorRGB8:
		return fmt.Sprintf("#%06x", d&0xffffff), nil
	case TypeIntColorARGB4:
		return fmt.Sprintf("#%x%x%x%x", (d>>28)&0xf, (d>>20)&0xf, (d>>12)&0xf, (d>>4)&0xf), nil
	case TypeIntColorRGB4:
		return fmt.Sprintf("#%x%x%x", (d>>20)&0xf, (d>>12)&0xf, (d>>4)&0xf), nil
	default:
		return "", unsupported(v)
	}
}

func cannotMaterialize(text string, hint ValueType) error {
	return errors.Wrapf(ErrUnsupportedValueType, "%q as %v", text, hint)
}

// materializeValue is the inverse of resolveValue. String values are added to
// pool if not already present.
func materializeValue(text string, hint ValueType, pool *stringPool) (Value, error) {
	fail := func() (Value, error) { return Value{}, cannotMaterialize(text, hint) }
	switch hint {
	case TypeNull:
		switch text {
		case "":
			return Value{TypeNull, nullUndefined}, nil
		case "@empty":
			return Value{TypeNull, nullEmpty}, nil
		}
		return fail()
	case TypeReference, TypeDynamicReference:
		if text == "@null" {
			return Value{hint, 0}, nil
		}
		d, ok := parsePrefixedHex(text, "@0x")
		if !ok {
			return fail()
		}
		return Value{hint, d}, nil
	case TypeAttribute, TypeDynamicAttribute:
		d, ok := parsePrefixedHex(text, "?0x")
		if !ok {
			return fail()
		}
		return Value{hint, d}, nil
	case TypeString:
		if pool == nil {
			return fail()
		}
		return Value{TypeString, pool.ref(text).stringPoolIndex()}, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return fail()
		}
		return Value{TypeFloat, math.Float32bits(float32(f))}, nil
	case TypeDimension:
		num, unit, ok := splitUnit(text, dimensionUnits)
		if !ok {
			return fail()
		}
		f, err := strconv.ParseFloat(num, 32)
		if err != nil {
			return fail()
		}
		return Value{TypeDimension, floatToComplex(float32(f)) | unit<<complexUnitShift}, nil
	case TypeFraction:
		num, unit, ok := splitUnit(text, fractionUnits)
		if !ok {
			return fail()
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return fail()
		}
		return Value{TypeFraction, floatToComplex(float32(f/100)) | unit<<complexUnitShift}, nil
	case TypeIntDec:
		i, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return fail()
		}
		return Value{TypeIntDec, uint32(int32(i))}, nil
	case TypeIntHex:
		d, ok := parsePrefixedHex(text, "0x")
		if !ok {
			return fail()
		}
		return Value{TypeIntHex, d}, nil
	case TypeIntBoolean:
		switch text {
		case "true":
			return Value{TypeIntBoolean, boolTrue}, nil
		case "false":
			return Value{TypeIntBoolean, 0}, nil
		}
		return fail()
	case TypeIntColorARGB8, TypeIntColorRGB8, TypeIntColorARGB4, TypeIntColorRGB4:
		v, ok := parseColor(text)
		if !ok {
			return fail()
		}
		return v, nil
	default:
		return fail()
	}
}

func parsePrefixedHex(text, prefix string) (uint32, bool) {
	if !strings.HasPrefix(text, prefix) || len(text) == len(prefix) {
		return 0, false
	}
	d, err := strconv.ParseUint(text[len(prefix):], 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(d), true
}

func splitUnit(text string, units []complexUnit) (string, uint32, bool) {
	for _, u := range units {
		if strings.HasSuffix(text, u.suffix) && len(text) > len(u.suffix) {
			return text[:len(text)-len(u.suffix)], u.unit, true
		}
	}
	return "", 0, false
}

// parseColor parses #rgb, #argb, #rrggbb and #aarrggbb. The form decides the
// color type.
func parseColor(text string) (Value, bool) {
	if !strings.HasPrefix(text, "#") {
		return Value{}, false
	}
	digits := text[1:]
	d, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return Value{}, false
	}
	c := uint32(d)
	expand := func(n uint32) uint32 { return (n & 0xf) * 0x11 }
	switch len(digits) {
	case 3:
		return Value{TypeIntColorRGB4, 0xff000000 | expand(c>>8)<<16 | expand(c>>4)<<8 | expand(c)}, true
	case 4:
		return Value{TypeIntColorARGB4, expand(c>>12)<<24 | expand(c>>8)<<16 | expand(c>>4)<<8 | expand(c)}, true
	case 6:
		return Value{TypeIntColorRGB8, 0xff000000 | c}, true
	case 8:
		return Value{TypeIntColorARGB8, c}, true
	}
	return Value{}, false
}

// typedValue is the Res_value record of an attribute or text chunk. String
// values reference the pool so they follow insertions into it.
type typedValue struct {
	res0 uint8
	ty   ValueType
	data uint32
	str  stringPoolRef
}

func (v typedValue) value() Value {
	if v.ty == TypeString {
		return Value{TypeString, v.str.stringPoolIndex()}
	}
	return Value{v.ty, v.data}
}

func (v typedValue) resolve() (string, error) {
	if v.ty == TypeString {
		if !v.str.isValid() {
			return "", errors.Wrapf(ErrStringIndexOutOfRange, "string value %d", v.str.idx)
		}
		return v.str.get(), nil
	}
	return resolveValue(v.value(), nil)
}

func (v typedValue) encode(w binary.Writer) {
	w.Uint16(valueSize)
	w.Uint8(v.res0)
	w.Uint8(uint8(v.ty))
	w.Uint32(v.value().Data)
}

func decodeValue(r binary.Reader, xml *xmlTree) (typedValue, error) {
	size := r.Uint16()
	if err := r.Error(); err != nil {
		return typedValue{}, err
	}
	if size != valueSize {
		return typedValue{}, errors.Wrapf(ErrInvalidChunkHeader, "value size was %d, expected %d", size, valueSize)
	}
	v := typedValue{res0: r.Uint8(), ty: ValueType(r.Uint8())}
	if v.ty == TypeString {
		v.str = xml.decodeString(r)
	} else {
		v.data = r.Uint32()
		v.str = invalidStringPoolRef
	}
	return v, r.Error()
}

// newTypedValue materializes text as a value of the hinted type in the tree's
// string pool.
func newTypedValue(xml *xmlTree, text string, hint ValueType) (typedValue, error) {
	v, err := materializeValue(text, hint, xml.strings)
	if err != nil {
		return typedValue{}, err
	}
	tv := typedValue{ty: v.Type, data: v.Data, str: invalidStringPoolRef}
	if v.Type == TypeString {
		tv.str, _ = xml.strings.findFromStringPoolIndex(v.Data)
		tv.data = 0
	}
	return tv, nil
}
