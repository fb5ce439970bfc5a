package transcoder

import (
	"github.com/wippyai/simbridge/errors"
)

// Zero builds a zero-valued result list that satisfies returns: same arity,
// and per slot the declared shape (dynamic slots resolved from inputs). Time
// series get a single zero point and tables a single zero label per axis.
// Callbacks that degrade gracefully return it as their fallback.
func Zero(returns Signature, inputs []Value) ([]Value, error) {
	out := make([]Value, len(returns))
	for i, d := range returns {
		path := slotPath("outputs", i, d.Name)
		switch d.Kind {
		case KindScalar:
			out[i] = Scalar(0)

		case KindFixedVector, KindFixedMatrix, KindDynamicVector, KindDynamicMatrix:
			dims, err := resolve(inputs, d, path)
			if err != nil {
				return nil, err
			}
			out[i] = Zeros(dims...)

		case KindTimeSeries:
			dims := append(append([]int(nil), d.Dims...), 1)
			out[i] = &TimeSeries{
				Timestamps: []float64{0},
				Data:       Zeros(dims...),
				TimeBasis:  Elapsed,
			}

		case KindLookupTable:
			dim := d.TableDim
			if dim == 0 {
				dim = 1
			}
			lt := &LookupTable{Dim: dim, RowLabels: []float64{0}}
			if dim >= 2 {
				lt.ColLabels = []float64{0}
			}
			if dim >= 3 {
				lt.LayerLabels = []float64{0}
			}
			dims := make([]int, dim)
			for j := range dims {
				dims[j] = 1
			}
			lt.Data = Zeros(dims...)
			out[i] = lt

		default:
			return nil, errors.Unsupported(errors.PhaseEncode, "kind "+d.Kind.String())
		}
	}
	return out, nil
}
