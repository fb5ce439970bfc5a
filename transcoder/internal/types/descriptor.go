package types

import (
	"strconv"
	"strings"

	"github.com/wippyai/simbridge/transcoder/internal/abi"
)

// Descriptor declares one argument or return slot.
type Descriptor struct {
	Name        string
	Dims        []int // fixed dims, or time series component dims
	Refs        []int // input slot indices holding dynamic sizes
	MaxPoints   int   // time series output capacity
	MaxElements int   // table or dynamic output capacity, in doubles
	TableDim    int   // 0 accepts any table dimension
	Kind        Kind
}

// FixedCount returns the element count of a scalar or fixed array slot.
// It is false for other kinds and for shapes above abi.MaxElements.
func (d Descriptor) FixedCount() (int, bool) {
	switch d.Kind {
	case KindScalar:
		return 1, true
	case KindFixedVector, KindFixedMatrix:
		return abi.Product(d.Dims)
	default:
		return 0, false
	}
}

// String renders the descriptor as kind[shape], e.g. matrix[2x3] or
// dynamic-vector[@0].
func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteString(d.Kind.String())

	switch d.Kind {
	case KindFixedVector, KindFixedMatrix:
		b.WriteByte('[')
		b.WriteString(JoinDims(d.Dims))
		b.WriteByte(']')
	case KindDynamicVector, KindDynamicMatrix:
		b.WriteByte('[')
		for i, r := range d.Refs {
			if i > 0 {
				b.WriteByte('x')
			}
			b.WriteByte('@')
			b.WriteString(strconv.Itoa(r))
		}
		b.WriteByte(']')
	case KindTimeSeries:
		if len(d.Dims) > 0 {
			b.WriteByte('[')
			b.WriteString(JoinDims(d.Dims))
			b.WriteByte(']')
		}
	case KindLookupTable:
		if d.TableDim > 0 {
			b.WriteString("[")
			b.WriteString(strconv.Itoa(d.TableDim))
			b.WriteString("d]")
		}
	}
	return b.String()
}

// JoinDims renders dims as AxBxC.
func JoinDims(dims []int) string {
	parts := make([]string, len(dims))
	for i, v := range dims {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "x")
}
