package config

import (
	"fmt"

	"github.com/wippyai/simbridge/transcoder"
)

// Signatures builds the parameter and return signatures. A dimension
// naming an input makes the slot dynamic; inputs may only name scalar
// inputs declared before them, outputs any scalar input.
func (c Callback) Signatures() (params, returns transcoder.Signature, err error) {
	scalars := make(map[string]int)
	params = make(transcoder.Signature, len(c.Inputs))
	for i, s := range c.Inputs {
		if params[i], err = s.Descriptor(scalars); err != nil {
			return nil, nil, fmt.Errorf("inputs[%d] %s: %w", i, s.Name, err)
		}
		if s.Type == TypeScalar {
			scalars[s.Name] = i
		}
	}
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	returns = make(transcoder.Signature, len(c.Outputs))
	for i, s := range c.Outputs {
		if returns[i], err = s.Descriptor(scalars); err != nil {
			return nil, nil, fmt.Errorf("outputs[%d] %s: %w", i, s.Name, err)
		}
	}
	if err := returns.ValidateReturns(params); err != nil {
		return nil, nil, err
	}
	return params, returns, nil
}

// Descriptor converts the slot. scalars maps the names of scalar inputs
// visible to this slot to their positions.
func (s Slot) Descriptor(scalars map[string]int) (transcoder.Descriptor, error) {
	fixed, refs, err := s.split(scalars)
	if err != nil {
		return transcoder.Descriptor{}, err
	}

	switch s.Type {
	case TypeScalar:
		for _, n := range fixed {
			if n != 1 {
				return transcoder.Descriptor{}, fmt.Errorf("scalar dimensions must be 1")
			}
		}
		if len(refs) > 0 {
			return transcoder.Descriptor{}, fmt.Errorf("scalar cannot be sized by an input")
		}
		return transcoder.ScalarSlot(s.Name), nil

	case TypeVector:
		if len(s.Dimensions) != 1 {
			return transcoder.Descriptor{}, fmt.Errorf("vector needs 1 dimension, has %d", len(s.Dimensions))
		}
		if len(refs) == 1 {
			d := transcoder.DynamicVectorSlot(s.Name, refs[0])
			d.MaxElements = s.MaxElements
			return d, nil
		}
		return transcoder.VectorSlot(s.Name, fixed[0]), nil

	case TypeMatrix:
		if len(s.Dimensions) != 2 {
			return transcoder.Descriptor{}, fmt.Errorf("matrix needs 2 dimensions, has %d", len(s.Dimensions))
		}
		switch len(refs) {
		case 0:
			return transcoder.MatrixSlot(s.Name, fixed[0], fixed[1]), nil
		case 2:
			d := transcoder.DynamicMatrixSlot(s.Name, refs[0], refs[1])
			d.MaxElements = s.MaxElements
			return d, nil
		default:
			return transcoder.Descriptor{}, fmt.Errorf("matrix dimensions must be all sizes or all input names")
		}

	case TypeTimeSeries:
		if len(refs) > 0 {
			return transcoder.Descriptor{}, fmt.Errorf("time series component cannot be sized by an input")
		}
		return transcoder.TimeSeriesSlot(s.Name, s.MaxPoints, fixed...), nil

	case TypeTable:
		if len(s.Dimensions) > 0 {
			return transcoder.Descriptor{}, fmt.Errorf("table takes no dimensions")
		}
		return transcoder.TableSlot(s.Name, s.TableDim, s.MaxElements), nil
	}
	return transcoder.Descriptor{}, fmt.Errorf("unknown type %q", s.Type)
}

func (s Slot) split(scalars map[string]int) (fixed, refs []int, err error) {
	for _, d := range s.Dimensions {
		if d.Fixed() {
			fixed = append(fixed, d.Size)
			continue
		}
		i, ok := scalars[d.Ref]
		if !ok {
			return nil, nil, fmt.Errorf("dimension %q does not name an earlier scalar input", d.Ref)
		}
		refs = append(refs, i)
	}
	return fixed, refs, nil
}
