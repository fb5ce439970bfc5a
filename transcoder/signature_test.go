package transcoder

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/simbridge/errors"
)

func TestSignature_Validate(t *testing.T) {
	tests := []struct {
		name   string
		sig    Signature
		target error
	}{
		{"ok", Signature{ScalarSlot("n"), DynamicVectorSlot("v", 0)}, nil},
		{"forward ref", Signature{DynamicVectorSlot("v", 1), ScalarSlot("n")}, errors.ErrShape},
		{"self ref", Signature{ScalarSlot("n"), DynamicVectorSlot("v", 1)}, errors.ErrShape},
		{"non-scalar ref", Signature{VectorSlot("a", 2), DynamicVectorSlot("v", 0)}, errors.ErrShape},
		{"missing refs", Signature{ScalarSlot("n"), {Kind: KindDynamicMatrix, Refs: []int{0}}}, errors.ErrBinding},
		{"zero dimension", Signature{VectorSlot("v", 0)}, errors.ErrBinding},
		{"matrix rank", Signature{{Kind: KindFixedMatrix, Dims: []int{2}}}, errors.ErrBinding},
		{"scalar dims", Signature{{Kind: KindScalar, Dims: []int{2}}}, errors.ErrBinding},
		{"series rank", Signature{TimeSeriesSlot("ts", 1, 1, 2, 3)}, errors.ErrBinding},
		{"table dim", Signature{TableSlot("t", 4, 0)}, errors.ErrBinding},
		{"unknown kind", Signature{{Kind: Kind(42)}}, errors.ErrBinding},
		{"oversized vector", Signature{VectorSlot("v", 1<<24+1)}, errors.ErrBinding},
		{"oversized matrix", Signature{MatrixSlot("m", 1<<13, 1<<12)}, errors.ErrBinding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sig.Validate()
			if tt.target == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !stderrors.Is(err, tt.target) {
				t.Fatalf("err = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestSignature_ValidateReturns(t *testing.T) {
	params := Signature{ScalarSlot("n"), VectorSlot("v", 2)}

	if err := (Signature{DynamicVectorSlot("out", 0)}).ValidateReturns(params); err != nil {
		t.Errorf("ValidateReturns: %v", err)
	}
	if err := (Signature{DynamicVectorSlot("out", 1)}).ValidateReturns(params); !stderrors.Is(err, errors.ErrShape) {
		t.Errorf("non-scalar ref err = %v", err)
	}
	if err := (Signature{DynamicVectorSlot("out", 5)}).ValidateReturns(params); !stderrors.Is(err, errors.ErrShape) {
		t.Errorf("out of range ref err = %v", err)
	}
}

func TestSignature_String(t *testing.T) {
	sig := Signature{ScalarSlot("n"), DynamicVectorSlot("v", 0), TableSlot("t", 2, 0)}
	want := "(scalar, dynamic-vector[@0], table[2d])"
	if got := sig.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
