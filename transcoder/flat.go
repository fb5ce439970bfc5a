package transcoder

import (
	"strconv"

	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder/internal/abi"
	"github.com/wippyai/simbridge/transcoder/internal/layout"
)

// SplitFlat cuts a contiguous host double buffer into regions, one per slot
// of sig. When inputs is nil the buffer holds arguments and dynamic slots
// resolve from scalars earlier in the same buffer; otherwise the buffer
// holds results and dynamic slots resolve against inputs. Time series and
// table lengths come from their headers. Elements past the last slot are
// ignored; callers decoding results check the total with FlatLen.
func SplitFlat(sig Signature, flat []float64, inputs []Value) (Raw, error) {
	raw := make(Raw, len(sig))
	args := inputs
	dir := "outputs"
	if inputs == nil {
		args = make([]Value, 0, len(sig))
		dir = "inputs"
	}

	pos := 0
	for i, d := range sig {
		path := slotPath(dir, i, d.Name)
		c := newCursor(flat[pos:], path, errors.PhaseDecode)
		c.short = errors.KindShapeMismatch

		var slot Value
		switch d.Kind {
		case KindScalar, KindFixedVector, KindFixedMatrix, KindDynamicVector, KindDynamicMatrix:
			dims, err := resolve(args, d, path)
			if err != nil {
				return nil, err
			}
			n := 1
			if d.Kind != KindScalar {
				var ok bool
				if n, ok = abi.Product(dims); !ok {
					return nil, errors.Shape(path, dims, "shape exceeds %d elements", abi.MaxElements)
				}
			}
			f, err := c.take(n, d.String())
			if err != nil {
				return nil, err
			}
			if d.Kind == KindScalar {
				slot = Scalar(f[0])
			}
		case KindTimeSeries:
			if _, err := readTimeSeries(c, d); err != nil {
				return nil, err
			}
		case KindLookupTable:
			if _, err := readTable(c, d); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Unsupported(errors.PhaseDecode, "kind "+d.Kind.String())
		}

		raw[i] = Region{Kind: d.Kind, Data: abi.BytesFromFloats(flat[pos : pos+c.pos])}
		pos += c.pos
		if inputs == nil {
			args = append(args, slot)
		}
	}
	return raw, nil
}

// FlatLen is the total element count of raw.
func FlatLen(raw Raw) int {
	n := 0
	for _, r := range raw {
		n += r.Len()
	}
	return n
}

// JoinFlat concatenates region payloads into one host double buffer.
func JoinFlat(raw Raw) ([]float64, error) {
	total := 0
	for _, r := range raw {
		total += r.Len()
	}
	out := make([]float64, 0, total)
	for i, r := range raw {
		f, err := r.Floats()
		if err != nil {
			return nil, withPath(err, errors.PhaseEncode, []string{"outputs[" + strconv.Itoa(i) + "]"})
		}
		out = append(out, f...)
	}
	return out, nil
}

// InputCount is the flat element count of sig, or -1 when any slot is
// sized per call.
func InputCount(sig Signature) int {
	infos := make([]layout.Info, len(sig))
	for i, d := range sig {
		infos[i] = layout.Calc(d)
	}
	return layout.SumCounts(infos, false)
}

// OutputCapacity is the largest flat element count sig can encode to, or
// -1 when a dynamic slot has no MaxElements bound.
func OutputCapacity(sig Signature) int {
	infos := make([]layout.Info, len(sig))
	for i, d := range sig {
		infos[i] = layout.Calc(d)
	}
	return layout.SumCounts(infos, true)
}
