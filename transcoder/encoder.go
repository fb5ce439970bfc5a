package transcoder

import (
	"strconv"

	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder/internal/abi"
	"github.com/wippyai/simbridge/transcoder/internal/layout"
	"github.com/wippyai/simbridge/transcoder/internal/types"
)

// Encoder validates callback results against a return signature and packs
// them into host regions.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode checks values against returns and encodes them. Dynamic return
// slots resolve their sizes from inputs, the call's decoded arguments. Any
// violation is an output contract error and nothing is encoded.
func (e *Encoder) Encode(returns Signature, inputs []Value, values []Value) (Raw, error) {
	if err := CheckOutputs(returns, inputs, values); err != nil {
		return nil, err
	}

	raw := make(Raw, len(returns))
	buf := acquireScratch()
	defer releaseScratch(buf)

	for i, d := range returns {
		*buf = appendValue((*buf)[:0], values[i])
		raw[i] = Region{Kind: d.Kind, Data: abi.BytesFromFloats(*buf)}
	}
	return raw, nil
}

// CheckOutputs verifies arity, per-slot kind family, shape and container
// invariants without encoding.
func CheckOutputs(returns Signature, inputs []Value, values []Value) error {
	if len(values) != len(returns) {
		return errors.OutputContract([]string{"outputs"},
			"arity "+strconv.Itoa(len(returns)),
			strconv.Itoa(len(values))+" values",
			"result count differs from the declared return arity")
	}
	for i, d := range returns {
		if err := checkSlot(d, inputs, values[i], slotPath("outputs", i, d.Name)); err != nil {
			return err
		}
	}
	return nil
}

func checkSlot(d Descriptor, inputs []Value, v Value, path []string) error {
	if isNil(v) {
		return errors.OutputContract(path, d.String(), "nil", "")
	}
	if v.Kind() != d.Kind.Family() {
		return errors.OutputContract(path, d.String(), describe(v), "kind differs")
	}
	if d.Kind == KindScalar {
		if _, ok := v.(Scalar); !ok {
			return errors.OutputContract(path, d.String(), describe(v), "not a scalar")
		}
	}

	switch d.Kind {
	case KindFixedVector, KindFixedMatrix, KindDynamicVector, KindDynamicMatrix:
		a, ok := v.(*Array)
		if !ok {
			return errors.OutputContract(path, d.String(), describe(v), "not an array")
		}
		dims, err := resolve(inputs, d, path)
		if err != nil {
			return contractCause(path, d.String(), describe(v), err)
		}
		if !equalDims(a.Dims, dims) {
			return errors.OutputContract(path, d.Kind.String()+"["+types.JoinDims(dims)+"]", describe(v), "shape differs")
		}
		if err := a.check(); err != nil {
			return contractCause(path, d.String(), describe(v), err)
		}

	case KindTimeSeries:
		ts, ok := v.(*TimeSeries)
		if !ok {
			return errors.OutputContract(path, d.String(), describe(v), "not a time series")
		}
		if err := ts.Validate(); err != nil {
			return contractCause(path, d.String(), describe(v), err)
		}
		if !equalDims(ts.Component(), d.Dims) {
			return errors.OutputContract(path, d.String(), describe(v), "component shape differs")
		}
		if d.MaxPoints > 0 && ts.Points() > d.MaxPoints {
			return errors.OutputContract(path,
				"at most "+strconv.Itoa(d.MaxPoints)+" points",
				strconv.Itoa(ts.Points())+" points", "")
		}

	case KindLookupTable:
		lt, ok := v.(*LookupTable)
		if !ok {
			return errors.OutputContract(path, d.String(), describe(v), "not a lookup table")
		}
		if err := lt.Validate(); err != nil {
			return contractCause(path, d.String(), describe(v), err)
		}
		if d.TableDim != 0 && lt.Dim != d.TableDim {
			return errors.OutputContract(path, d.String(), describe(v), "table dimension differs")
		}
		if d.MaxElements > 0 {
			n, ok := layout.TableLen(lt.Counts())
			if !ok || n > d.MaxElements {
				return errors.OutputContract(path,
					"at most "+strconv.Itoa(d.MaxElements)+" elements",
					strconv.Itoa(n)+" elements", "")
			}
		}
	}
	return nil
}

func contractCause(path []string, declared, actual string, cause error) error {
	return errors.New(errors.PhaseEncode, errors.KindOutputContract).
		Path(path...).
		Declared(declared).
		Actual(actual).
		Cause(cause).
		Build()
}

func appendValue(buf []float64, v Value) []float64 {
	switch x := v.(type) {
	case Scalar:
		return append(buf, float64(x))
	case *Array:
		return append(buf, x.Data...)
	case *TimeSeries:
		return writeTimeSeries(buf, x)
	case *LookupTable:
		return writeTable(buf, x)
	default:
		return buf
	}
}

// isNil catches both untyped nil and typed nil container pointers.
func isNil(v Value) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *Array:
		return x == nil
	case *TimeSeries:
		return x == nil
	case *LookupTable:
		return x == nil
	}
	return false
}

// describe renders a value as kind[shape] for error messages.
func describe(v Value) string {
	if isNil(v) {
		return "nil"
	}
	switch x := v.(type) {
	case Scalar:
		return "scalar"
	case *Array:
		return x.Kind().String() + "[" + types.JoinDims(x.Dims) + "]"
	case *TimeSeries:
		return "timeseries[" + types.JoinDims(x.Component()) + "] with " + strconv.Itoa(x.Points()) + " points"
	case *LookupTable:
		return "table[" + strconv.Itoa(x.Dim) + "d]"
	default:
		return abi.TypeName(v)
	}
}
