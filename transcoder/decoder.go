package transcoder

import (
	"strconv"

	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder/internal/abi"
	"github.com/wippyai/simbridge/transcoder/internal/types"
)

// Decoder turns host regions into values.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes raw against sig. Slots are decoded left to right and a
// dynamic slot resolves its size from the arguments decoded before it. On
// any error no arguments are returned.
func (d *Decoder) Decode(sig Signature, raw Raw) ([]Value, error) {
	return d.decode(sig, raw, nil)
}

// DecodeResults decodes regions produced by a callback against its return
// signature. Dynamic slots resolve against inputs.
func (d *Decoder) DecodeResults(returns Signature, inputs []Value, raw Raw) ([]Value, error) {
	if inputs == nil {
		inputs = []Value{}
	}
	return d.decode(returns, raw, inputs)
}

func (d *Decoder) decode(sig Signature, raw Raw, inputs []Value) ([]Value, error) {
	dir, what := "inputs", " arguments"
	if inputs != nil {
		dir, what = "outputs", " results"
	}
	if len(raw) != len(sig) {
		return nil, errors.New(errors.PhaseDecode, errors.KindBinding).
			Declared(strconv.Itoa(len(sig)) + what).
			Actual(strconv.Itoa(len(raw))).
			Build()
	}

	out := make([]Value, 0, len(sig))
	for i, desc := range sig {
		path := slotPath(dir, i, desc.Name)
		region := raw[i]
		if region.Kind != desc.Kind {
			return nil, errors.New(errors.PhaseDecode, errors.KindShapeMismatch).
				Path(path...).
				Declared(desc.String()).
				Actual(region.Kind.String() + " region").
				Build()
		}
		f, err := region.Floats()
		if err != nil {
			return nil, withPath(err, errors.PhaseDecode, path)
		}
		args := out
		if inputs != nil {
			args = inputs
		}
		v, err := decodeSlot(args, desc, f, path)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeSlot(args []Value, d Descriptor, f []float64, path []string) (Value, error) {
	switch d.Kind {
	case KindScalar:
		if len(f) != 1 {
			return nil, countMismatch(path, d.String(), len(f))
		}
		return Scalar(f[0]), nil

	case KindFixedVector, KindFixedMatrix, KindDynamicVector, KindDynamicMatrix:
		dims, err := resolve(args, d, path)
		if err != nil {
			return nil, err
		}
		n, ok := abi.Product(dims)
		if !ok {
			return nil, errors.Shape(path, dims, "shape exceeds %d elements", abi.MaxElements)
		}
		if len(f) != n {
			declared := d.String()
			if d.Kind.IsDynamic() {
				declared = d.Kind.String() + "[" + types.JoinDims(dims) + "]"
			}
			return nil, countMismatch(path, declared, len(f))
		}
		return &Array{Dims: append([]int(nil), dims...), Data: f}, nil

	case KindTimeSeries:
		c := newCursor(f, path, errors.PhaseDecode)
		ts, err := readTimeSeries(c, d)
		if err != nil {
			return nil, err
		}
		if c.remaining() > 0 {
			return nil, c.structural("%d elements after time series", c.remaining())
		}
		return ts, nil

	case KindLookupTable:
		c := newCursor(f, path, errors.PhaseDecode)
		lt, err := readTable(c, d)
		if err != nil {
			return nil, err
		}
		if c.remaining() > 0 {
			return nil, c.structural("%d elements after table", c.remaining())
		}
		return lt, nil

	default:
		return nil, errors.Unsupported(errors.PhaseDecode, "kind "+d.Kind.String())
	}
}

func countMismatch(path []string, declared string, got int) error {
	return errors.ShapeMismatch(path, declared, strconv.Itoa(got)+" elements")
}
