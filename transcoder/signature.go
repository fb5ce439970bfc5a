package transcoder

import (
	"strings"

	"github.com/wippyai/simbridge/errors"
)

// Signature is an ordered list of slot descriptors.
type Signature []Descriptor

func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = d.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// HasDynamic reports whether any slot is sized per call.
func (s Signature) HasDynamic() bool {
	for _, d := range s {
		if d.Kind.IsDynamic() || d.Kind.IsHeadered() {
			return true
		}
	}
	return false
}

// Validate checks a parameter signature. Dynamic slots must reference an
// earlier scalar slot.
func (s Signature) Validate() error {
	for i, d := range s {
		path := slotPath("inputs", i, d.Name)
		if err := checkDescriptor(d, path); err != nil {
			return err
		}
		for _, ref := range d.Refs {
			if ref < 0 || ref >= i {
				return errors.New(errors.PhaseBind, errors.KindShape).
					Path(path...).
					Value(ref).
					Detail("size ref %d must point to an earlier input", ref).
					Build()
			}
			if s[ref].Kind != KindScalar {
				return errors.New(errors.PhaseBind, errors.KindShape).
					Path(path...).
					Value(ref).
					Declared("scalar").
					Actual(s[ref].Kind.String()).
					Detail("size ref %d", ref).
					Build()
			}
		}
	}
	return nil
}

// ValidateReturns checks a return signature. Dynamic returns resolve their
// refs against the scalar inputs of params.
func (s Signature) ValidateReturns(params Signature) error {
	for i, d := range s {
		path := slotPath("outputs", i, d.Name)
		if err := checkDescriptor(d, path); err != nil {
			return err
		}
		for _, ref := range d.Refs {
			if ref < 0 || ref >= len(params) {
				return errors.New(errors.PhaseBind, errors.KindShape).
					Path(path...).
					Value(ref).
					Detail("size ref %d outside %d inputs", ref, len(params)).
					Build()
			}
			if params[ref].Kind != KindScalar {
				return errors.New(errors.PhaseBind, errors.KindShape).
					Path(path...).
					Value(ref).
					Declared("scalar").
					Actual(params[ref].Kind.String()).
					Detail("size ref %d", ref).
					Build()
			}
		}
	}
	return nil
}

func checkDescriptor(d Descriptor, path []string) error {
	bad := func(format string, args ...any) error {
		return errors.New(errors.PhaseBind, errors.KindBinding).
			Path(path...).
			Declared(d.Kind.String()).
			Detail(format, args...).
			Build()
	}

	if !d.Kind.Valid() {
		return bad("unknown kind %d", uint8(d.Kind))
	}
	switch d.Kind {
	case KindScalar:
		if len(d.Dims) > 0 || len(d.Refs) > 0 {
			return bad("scalar takes no dimensions")
		}
	case KindFixedVector, KindFixedMatrix:
		if len(d.Dims) != d.Kind.Rank() {
			return bad("need %d dimensions, have %d", d.Kind.Rank(), len(d.Dims))
		}
		for _, v := range d.Dims {
			if v < 1 {
				return bad("dimension %d must be positive", v)
			}
		}
		if _, ok := d.FixedCount(); !ok {
			return bad("dimensions overflow")
		}
	case KindDynamicVector, KindDynamicMatrix:
		if len(d.Refs) != d.Kind.Rank() {
			return bad("need %d size refs, have %d", d.Kind.Rank(), len(d.Refs))
		}
	case KindTimeSeries:
		if len(d.Dims) > 2 {
			return bad("time series component rank %d above 2", len(d.Dims))
		}
		for _, v := range d.Dims {
			if v < 1 {
				return bad("component dimension %d must be positive", v)
			}
		}
		if d.MaxPoints < 0 {
			return bad("max points %d", d.MaxPoints)
		}
	case KindLookupTable:
		if d.TableDim < 0 || d.TableDim > 3 {
			return bad("table dimension %d outside 0..3", d.TableDim)
		}
	}
	if d.MaxElements < 0 {
		return bad("max elements %d", d.MaxElements)
	}
	return nil
}
