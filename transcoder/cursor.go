package transcoder

import (
	"strconv"

	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder/internal/abi"
	"github.com/wippyai/simbridge/transcoder/internal/layout"
	"github.com/wippyai/simbridge/transcoder/internal/types"
)

// cursor walks a flat double buffer for headered kinds.
type cursor struct {
	f     []float64
	path  []string
	pos   int
	phase errors.Phase
	short errors.Kind // kind reported when the buffer runs out
}

func newCursor(f []float64, path []string, phase errors.Phase) *cursor {
	return &cursor{f: f, path: path, phase: phase, short: errors.KindStructural}
}

func (c *cursor) remaining() int {
	return len(c.f) - c.pos
}

func (c *cursor) truncated(what string, need int) error {
	return errors.New(c.phase, c.short).
		Path(c.path...).
		Declared(strconv.Itoa(need) + " more elements for " + what).
		Actual(strconv.Itoa(c.remaining())).
		Detail("buffer ends early").
		Build()
}

func (c *cursor) next(what string) (float64, error) {
	if c.remaining() < 1 {
		return 0, c.truncated(what, 1)
	}
	v := c.f[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) take(n int, what string) ([]float64, error) {
	if c.remaining() < n {
		return nil, c.truncated(what, n)
	}
	out := c.f[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return out, nil
}

func (c *cursor) count(what string) (int, error) {
	v, err := c.next(what)
	if err != nil {
		return 0, err
	}
	n, ok := abi.ExactCount(v)
	if !ok {
		return 0, errors.New(c.phase, errors.KindStructural).
			Path(c.path...).
			Value(v).
			Detail("%s %s is not an exact non-negative integer", what, strconv.FormatFloat(v, 'g', -1, 64)).
			Build()
	}
	return n, nil
}

func (c *cursor) structural(format string, args ...any) error {
	return errors.Structural(c.phase, c.path, format, args...)
}

func readTimeSeries(c *cursor, d Descriptor) (*TimeSeries, error) {
	n, err := c.count("point count")
	if err != nil {
		return nil, err
	}
	stamps, err := c.take(n, "timestamps")
	if err != nil {
		return nil, err
	}
	rows, err := c.count("rows")
	if err != nil {
		return nil, err
	}
	cols, err := c.count("cols")
	if err != nil {
		return nil, err
	}
	if cols > 0 && rows == 0 {
		return nil, c.structural("cols %d without rows", cols)
	}

	var comp []int
	if rows > 0 {
		comp = append(comp, rows)
	}
	if cols > 0 {
		comp = append(comp, cols)
	}
	if !equalDims(comp, d.Dims) {
		return nil, errors.New(c.phase, errors.KindShapeMismatch).
			Path(c.path...).
			Declared(d.String()).
			Actual("timeseries[" + types.JoinDims(comp) + "]").
			Build()
	}

	per, ok := layout.ComponentSize(comp)
	if !ok {
		return nil, c.structural("component %s too large", types.JoinDims(comp))
	}
	size, ok := abi.SafeMul(per, n)
	if !ok {
		return nil, c.structural("%d points of %d elements too large", n, per)
	}
	data, err := c.take(size, "series data")
	if err != nil {
		return nil, err
	}
	dataType, err := c.next("data type")
	if err != nil {
		return nil, err
	}
	basis, err := c.count("time basis")
	if err != nil {
		return nil, err
	}
	if basis > int(Calendar) {
		return nil, c.structural("time basis %d", basis)
	}

	dims := append(append([]int(nil), comp...), n)
	ts := &TimeSeries{
		Timestamps: stamps,
		Data:       &Array{Dims: dims, Data: data},
		DataType:   dataType,
		TimeBasis:  TimeBasis(basis),
	}
	if err := ts.Validate(); err != nil {
		return nil, withPath(err, c.phase, c.path)
	}
	return ts, nil
}

func writeTimeSeries(buf []float64, ts *TimeSeries) []float64 {
	var rows, cols int
	comp := ts.Component()
	if len(comp) > 0 {
		rows = comp[0]
	}
	if len(comp) > 1 {
		cols = comp[1]
	}
	buf = append(buf, float64(len(ts.Timestamps)))
	buf = append(buf, ts.Timestamps...)
	buf = append(buf, float64(rows), float64(cols))
	buf = append(buf, ts.Data.Data...)
	buf = append(buf, ts.DataType, float64(ts.TimeBasis))
	return buf
}

func readTable(c *cursor, d Descriptor) (*LookupTable, error) {
	dv, err := c.next("table dimension")
	if err != nil {
		return nil, err
	}
	dim, ok := abi.ExactCount(dv)
	if !ok || dim < 1 || dim > 3 {
		return nil, errors.New(c.phase, errors.KindStructural).
			Path(c.path...).
			Value(dv).
			Detail("table dimension %s outside 1..3", strconv.FormatFloat(dv, 'g', -1, 64)).
			Build()
	}
	if d.TableDim != 0 && d.TableDim != dim {
		return nil, errors.New(c.phase, errors.KindShapeMismatch).
			Path(c.path...).
			Declared(d.String()).
			Actual("table[" + strconv.Itoa(dim) + "d]").
			Build()
	}

	counts := make([]int, dim)
	for i := range counts {
		if counts[i], err = c.count(axisNames[i] + " count"); err != nil {
			return nil, err
		}
		if counts[i] == 0 {
			return nil, c.structural("%s count is zero", axisNames[i])
		}
	}

	labels := make([][]float64, 3)
	for i := range counts {
		if labels[i], err = c.take(counts[i], axisNames[i]+" labels"); err != nil {
			return nil, err
		}
	}

	size, ok := abi.Product(counts)
	if !ok {
		return nil, c.structural("table shape %s too large", types.JoinDims(counts))
	}
	data, err := c.take(size, "table data")
	if err != nil {
		return nil, err
	}

	lt := &LookupTable{
		Dim:         dim,
		RowLabels:   labels[0],
		ColLabels:   labels[1],
		LayerLabels: labels[2],
		Data:        &Array{Dims: counts, Data: data},
	}
	if err := lt.Validate(); err != nil {
		return nil, withPath(err, c.phase, c.path)
	}
	return lt, nil
}

var axisNames = [...]string{"row", "col", "layer"}

func writeTable(buf []float64, lt *LookupTable) []float64 {
	counts := lt.Counts()
	buf = append(buf, float64(lt.Dim))
	for _, n := range counts {
		buf = append(buf, float64(n))
	}
	buf = append(buf, lt.RowLabels...)
	if lt.Dim >= 2 {
		buf = append(buf, lt.ColLabels...)
	}
	if lt.Dim >= 3 {
		buf = append(buf, lt.LayerLabels...)
	}
	buf = append(buf, lt.Data.Data...)
	return buf
}

func equalDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// withPath stamps phase and path onto a structured error built without them.
func withPath(err error, phase errors.Phase, path []string) error {
	if e, ok := err.(*errors.Error); ok {
		cp := *e
		cp.Phase = phase
		if len(cp.Path) == 0 {
			cp.Path = path
		}
		return &cp
	}
	return err
}
