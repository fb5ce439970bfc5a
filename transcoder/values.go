package transcoder

import (
	"strconv"

	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder/internal/abi"
	"github.com/wippyai/simbridge/transcoder/internal/types"
)

// Value is a decoded argument or a callback result. Kind reports the kind
// family: vectors and matrices report the fixed kind whether or not their
// slot was declared dynamic.
type Value interface {
	Kind() Kind
	Shape() []int
}

// Scalar is a single double.
type Scalar float64

func (Scalar) Kind() Kind { return KindScalar }

func (Scalar) Shape() []int { return nil }

// Array is a dense row-major array of doubles.
type Array struct {
	Dims []int
	Data []float64
}

// NewVector builds a rank-1 array over data.
func NewVector(data ...float64) *Array {
	return &Array{Dims: []int{len(data)}, Data: data}
}

// NewMatrix builds a rows x cols array. data must hold rows*cols elements.
func NewMatrix(rows, cols int, data []float64) (*Array, error) {
	a := &Array{Dims: []int{rows, cols}, Data: data}
	if err := a.check(); err != nil {
		return nil, err
	}
	return a, nil
}

// Zeros builds a zero-filled array of the given dims.
func Zeros(dims ...int) *Array {
	n, _ := abi.Product(dims)
	return &Array{Dims: append([]int(nil), dims...), Data: make([]float64, n)}
}

func (a *Array) Kind() Kind {
	if len(a.Dims) == 1 {
		return KindFixedVector
	}
	return KindFixedMatrix
}

func (a *Array) Shape() []int { return a.Dims }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Data) }

// At returns the element at the given row-major index.
func (a *Array) At(idx ...int) float64 {
	off := 0
	for i, v := range idx {
		off = off*a.Dims[i] + v
	}
	return a.Data[off]
}

func (a *Array) check() error {
	n, ok := abi.Product(a.Dims)
	if !ok {
		return errors.Structural(errors.PhaseDecode, nil, "array dims %s exceed limits", types.JoinDims(a.Dims))
	}
	for _, d := range a.Dims {
		if d < 0 {
			return errors.Structural(errors.PhaseDecode, nil, "negative dimension in %s", types.JoinDims(a.Dims))
		}
	}
	if n != len(a.Data) {
		return errors.Structural(errors.PhaseDecode, nil, "dims %s need %d elements, have %d", types.JoinDims(a.Dims), n, len(a.Data))
	}
	return nil
}

// TimeBasis selects how timestamps are interpreted.
type TimeBasis uint8

const (
	Elapsed  TimeBasis = 0
	Calendar TimeBasis = 1
)

func (b TimeBasis) String() string {
	switch b {
	case Elapsed:
		return "elapsed"
	case Calendar:
		return "calendar"
	default:
		return "basis(" + strconv.Itoa(int(b)) + ")"
	}
}

// TimeSeries is an ordered set of timestamps with one data component per
// point. The trailing axis of Data is the time axis.
type TimeSeries struct {
	Data       *Array
	Timestamps []float64
	DataType   float64 // opaque, preserved bit for bit
	TimeBasis  TimeBasis
}

// NewTimeSeries validates and builds a time series.
func NewTimeSeries(timestamps []float64, data *Array, dataType float64, basis TimeBasis) (*TimeSeries, error) {
	ts := &TimeSeries{Timestamps: timestamps, Data: data, DataType: dataType, TimeBasis: basis}
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *TimeSeries) Kind() Kind { return KindTimeSeries }

func (ts *TimeSeries) Shape() []int {
	if ts.Data == nil {
		return nil
	}
	return ts.Data.Dims
}

// Points returns the number of time points.
func (ts *TimeSeries) Points() int { return len(ts.Timestamps) }

// Component returns the dims of one point: [] for scalar-valued series.
func (ts *TimeSeries) Component() []int {
	if ts.Data == nil || len(ts.Data.Dims) == 0 {
		return nil
	}
	return ts.Data.Dims[:len(ts.Data.Dims)-1]
}

// Validate checks the cross-field invariants.
func (ts *TimeSeries) Validate() error {
	if ts.Data == nil {
		return errors.Structural(errors.PhaseDecode, nil, "time series has no data")
	}
	rank := len(ts.Data.Dims)
	if rank < 1 || rank > 3 {
		return errors.Structural(errors.PhaseDecode, nil, "time series data rank %d outside 1..3", rank)
	}
	if err := ts.Data.check(); err != nil {
		return err
	}
	if last := ts.Data.Dims[rank-1]; last != len(ts.Timestamps) {
		return errors.Structural(errors.PhaseDecode, nil,
			"time axis has %d points, timestamps have %d", last, len(ts.Timestamps))
	}
	for _, d := range ts.Data.Dims[:rank-1] {
		if d < 1 {
			return errors.Structural(errors.PhaseDecode, nil, "component dims %s must be positive", types.JoinDims(ts.Data.Dims[:rank-1]))
		}
	}
	for i := 1; i < len(ts.Timestamps); i++ {
		if !(ts.Timestamps[i] >= ts.Timestamps[i-1]) {
			return errors.Structural(errors.PhaseDecode, nil, "timestamps decrease at index %d", i)
		}
	}
	if ts.TimeBasis != Elapsed && ts.TimeBasis != Calendar {
		return errors.Structural(errors.PhaseDecode, nil, "time basis %d", ts.TimeBasis)
	}
	return nil
}

// LookupTable is a 1D, 2D or 3D table with axis labels.
type LookupTable struct {
	Data        *Array
	RowLabels   []float64
	ColLabels   []float64
	LayerLabels []float64
	Dim         int
}

// NewLookupTable validates and builds a table. The dimension is taken from
// the rank of data.
func NewLookupTable(rows, cols, layers []float64, data *Array) (*LookupTable, error) {
	dim := 0
	if data != nil {
		dim = len(data.Dims)
	}
	lt := &LookupTable{Dim: dim, RowLabels: rows, ColLabels: cols, LayerLabels: layers, Data: data}
	if err := lt.Validate(); err != nil {
		return nil, err
	}
	return lt, nil
}

func (lt *LookupTable) Kind() Kind { return KindLookupTable }

func (lt *LookupTable) Shape() []int {
	if lt.Data == nil {
		return nil
	}
	return lt.Data.Dims
}

// Counts returns the label count of each present axis.
func (lt *LookupTable) Counts() []int {
	counts := []int{len(lt.RowLabels)}
	if lt.Dim >= 2 {
		counts = append(counts, len(lt.ColLabels))
	}
	if lt.Dim >= 3 {
		counts = append(counts, len(lt.LayerLabels))
	}
	return counts
}

// Validate checks that labels are present exactly for the axes the
// dimension needs and that data has shape (rows[, cols][, layers]).
func (lt *LookupTable) Validate() error {
	if lt.Dim < 1 || lt.Dim > 3 {
		return errors.Structural(errors.PhaseDecode, nil, "table dimension %d outside 1..3", lt.Dim)
	}
	if lt.Data == nil {
		return errors.Structural(errors.PhaseDecode, nil, "table has no data")
	}
	if (lt.Dim < 2 && len(lt.ColLabels) > 0) || (lt.Dim < 3 && len(lt.LayerLabels) > 0) {
		return errors.Structural(errors.PhaseDecode, nil, "%dD table carries labels for unused axes", lt.Dim)
	}
	counts := lt.Counts()
	for i, c := range counts {
		if c < 1 {
			return errors.Structural(errors.PhaseDecode, nil, "table axis %d has no labels", i)
		}
	}
	if len(lt.Data.Dims) != len(counts) {
		return errors.Structural(errors.PhaseDecode, nil,
			"table data rank %d, dimension %d", len(lt.Data.Dims), lt.Dim)
	}
	for i, c := range counts {
		if lt.Data.Dims[i] != c {
			return errors.Structural(errors.PhaseDecode, nil,
				"table data shape %s, labels %s", types.JoinDims(lt.Data.Dims), types.JoinDims(counts))
		}
	}
	return lt.Data.check()
}
