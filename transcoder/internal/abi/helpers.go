package abi

import (
	"encoding/binary"
	"math"
	"reflect"
)

// MaxElements caps any single container at 16M doubles (128 MB).
const MaxElements = 1 << 24

// SafeMul multiplies non-negative sizes, failing on overflow or when the
// product passes MaxElements.
func SafeMul(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if b != 0 && a > MaxElements/b {
		return 0, false
	}
	return a * b, true
}

func SafeAdd(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// Product returns the element count of dims under the MaxElements cap.
func Product(dims []int) (int, bool) {
	n := 1
	for _, d := range dims {
		var ok bool
		if n, ok = SafeMul(n, d); !ok {
			return 0, false
		}
	}
	return n, true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// TruncateSize converts a size argument to an int by truncation toward
// zero. NaN, infinities, results below one and results above MaxElements
// are rejected.
func TruncateSize(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	t := math.Trunc(v)
	if t < 1 || t > MaxElements {
		return 0, false
	}
	return int(t), true
}

// ExactCount accepts only non-negative integral headers whose encoding is
// canonical, so that re-encoding the count reproduces the same bits.
func ExactCount(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Signbit(v) {
		return 0, false
	}
	if v != math.Trunc(v) || v > MaxElements {
		return 0, false
	}
	return int(v), true
}

// FloatsFromBytes decodes little-endian float64s. The length must be a
// multiple of eight.
func FloatsFromBytes(b []byte) ([]float64, bool) {
	if len(b)%8 != 0 {
		return nil, false
	}
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out, true
}

// BytesFromFloats encodes float64s little-endian, preserving NaN payloads.
func BytesFromFloats(f []float64) []byte {
	out := make([]byte, len(f)*8)
	for i, v := range f {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}
