package layout

import (
	"github.com/wippyai/simbridge/transcoder/internal/abi"
	"github.com/wippyai/simbridge/transcoder/internal/types"
)

// Info is the flat footprint of one slot.
type Info struct {
	Count    int // exact element count, -1 when only known per call
	Capacity int // largest encoded element count as an output, -1 when unbounded
}

// Time series framing: point count, then rows and cols, then data_type and
// time_basis after the data.
const (
	TimeSeriesHead  = 1
	TimeSeriesShape = 2
	TimeSeriesTail  = 2
)

// Calc computes the footprint of d.
func Calc(d types.Descriptor) Info {
	switch d.Kind {
	case types.KindScalar, types.KindFixedVector, types.KindFixedMatrix:
		n, _ := d.FixedCount()
		return Info{Count: n, Capacity: n}
	case types.KindDynamicVector, types.KindDynamicMatrix:
		c := -1
		if d.MaxElements > 0 {
			c = d.MaxElements
		}
		return Info{Count: -1, Capacity: c}
	case types.KindTimeSeries:
		p := d.MaxPoints
		if p <= 0 {
			p = 1
		}
		c, ok := TimeSeriesLen(p, d.Dims)
		if !ok {
			c = -1
		}
		return Info{Count: -1, Capacity: c}
	case types.KindLookupTable:
		c := -1
		if d.MaxElements > 0 {
			c = d.MaxElements
		}
		return Info{Count: -1, Capacity: c}
	default:
		return Info{Count: -1, Capacity: -1}
	}
}

// ComponentSize is max(rows,1)*max(cols,1) for component dims.
func ComponentSize(comp []int) (int, bool) {
	return abi.Product(comp)
}

// TimeSeriesLen returns the encoded length of an n-point series with the
// given component dims.
func TimeSeriesLen(n int, comp []int) (int, bool) {
	per, ok := ComponentSize(comp)
	if !ok {
		return 0, false
	}
	data, ok := abi.SafeMul(per, n)
	if !ok {
		return 0, false
	}
	total := TimeSeriesHead + n + TimeSeriesShape + data + TimeSeriesTail
	return total, total >= 0
}

// TableLen returns the encoded length of a table with the given axis
// counts: dim, the counts, the labels, then the data.
func TableLen(counts []int) (int, bool) {
	data, ok := abi.Product(counts)
	if !ok {
		return 0, false
	}
	total := 1 + len(counts) + data
	for _, c := range counts {
		if total, ok = abi.SafeAdd(total, c); !ok {
			return 0, false
		}
	}
	return total, true
}

// SumCounts adds slot counts, returning -1 when any slot is -1.
func SumCounts(infos []Info, capacity bool) int {
	total := 0
	for _, in := range infos {
		v := in.Count
		if capacity {
			v = in.Capacity
		}
		if v < 0 {
			return -1
		}
		total += v
	}
	return total
}
