package schema

import "math"

// NumKind is one of the fixed-width numeric encodings
type NumKind int

const (
	F32 NumKind = iota
	F64
	U8
	U16
	U32
	I8
	I16
	I32
)

var numKindNames = [...]string{"f32", "f64", "u8", "u16", "u32", "i8", "i16", "i32"}

// NumKinds lists every kind in declaration order
var NumKinds = []NumKind{F32, F64, U8, U16, U32, I8, I16, I32}

// String returns the schema spelling of the kind, e.g. "u16"
func (k NumKind) String() string {
	if k < 0 || int(k) >= len(numKindNames) {
		return "invalid"
	}
	return numKindNames[k]
}

// ParseNumKind looks up a kind by its schema spelling
func ParseNumKind(name string) (NumKind, bool) {
	for i, n := range numKindNames {
		if n == name {
			return NumKind(i), true
		}
	}
	return 0, false
}

// Size returns the encoded width in bytes
func (k NumKind) Size() int {
	switch k {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case F32, U32, I32:
		return 4
	case F64:
		return 8
	}
	return 0
}

// Integral reports whether the kind only holds whole numbers
func (k NumKind) Integral() bool {
	return k != F32 && k != F64
}

// Signed reports whether the kind can hold negative values
func (k NumKind) Signed() bool {
	switch k {
	case U8, U16, U32:
		return false
	}
	return true
}

// Domain returns the inclusive range of values the kind can represent
func (k NumKind) Domain() (min, max float64) {
	switch k {
	case U8:
		return 0, math.MaxUint8
	case U16:
		return 0, math.MaxUint16
	case U32:
		return 0, math.MaxUint32
	case I8:
		return math.MinInt8, math.MaxInt8
	case I16:
		return math.MinInt16, math.MaxInt16
	case I32:
		return math.MinInt32, math.MaxInt32
	case F32:
		return -math.MaxFloat32, math.MaxFloat32
	}
	return -math.MaxFloat64, math.MaxFloat64
}

// Contains reports whether v lies inside the kind's domain
func (k NumKind) Contains(v float64) bool {
	lo, hi := k.Domain()
	return v >= lo && v <= hi
}

// NumTy picks the narrowest encoding able to hold every value in
// [min, max]. Unsigned kinds are preferred; a negative minimum selects the
// signed family; F64 is the fallback when the integer kinds run out.
// Event ids, enum discriminants, and length prefixes all go through here.
func NumTy(min, max float64) NumKind {
	if min > max {
		min, max = max, min
	}
	if min < 0 {
		for _, k := range []NumKind{I8, I16, I32} {
			if k.Contains(min) && k.Contains(max) {
				return k
			}
		}
		return F64
	}
	for _, k := range []NumKind{U8, U16, U32} {
		if k.Contains(max) {
			return k
		}
	}
	return F64
}

// LengthKind is the encoding of every non-exact length and count prefix
const LengthKind = U16
