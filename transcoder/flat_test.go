package transcoder

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/wippyai/simbridge/errors"
)

func TestSplitFlat_Inputs(t *testing.T) {
	sig := Signature{
		ScalarSlot("n"),
		DynamicVectorSlot("v", 0),
		TimeSeriesSlot("ts", 0),
		TableSlot("t", 1, 0),
		VectorSlot("w", 2),
	}
	// n, v, a one-point series, a 1D table, w, then host padding
	flat := []float64{
		2,
		10, 20,
		1, 0, 0, 0, 5, 0, 0,
		1, 2, 0, 1, 7, 8,
		3, 4,
		99,
	}

	raw, err := SplitFlat(sig, flat, nil)
	if err != nil {
		t.Fatalf("SplitFlat: %v", err)
	}
	wantLens := []int{1, 2, 7, 6, 2}
	for i, n := range wantLens {
		if raw[i].Len() != n {
			t.Errorf("slot %d len = %d, want %d", i, raw[i].Len(), n)
		}
		if raw[i].Kind != sig[i].Kind {
			t.Errorf("slot %d kind = %v", i, raw[i].Kind)
		}
	}

	args, err := NewDecoder().Decode(sig, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if args[4].(*Array).At(1) != 4 {
		t.Errorf("w = %v", args[4])
	}

	joined, err := JoinFlat(raw)
	if err != nil {
		t.Fatalf("JoinFlat: %v", err)
	}
	if len(joined) != len(flat)-1 {
		t.Fatalf("joined len = %d", len(joined))
	}
	for i := range joined {
		if joined[i] != flat[i] {
			t.Errorf("joined[%d] = %v, want %v", i, joined[i], flat[i])
		}
	}
}

func TestSplitFlat_Short(t *testing.T) {
	tests := []struct {
		name string
		sig  Signature
		flat []float64
	}{
		{"scalar", Signature{ScalarSlot("a"), ScalarSlot("b")}, []float64{1}},
		{"dynamic", Signature{ScalarSlot("n"), DynamicVectorSlot("v", 0)}, []float64{3, 1, 2}},
		{"series", Signature{TimeSeriesSlot("ts", 0)}, []float64{2, 0, 1, 0, 0}},
		{"empty", Signature{VectorSlot("v", 2)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SplitFlat(tt.sig, tt.flat, nil); !stderrors.Is(err, errors.ErrShapeMismatch) {
				t.Fatalf("err = %v, want shape mismatch", err)
			}
		})
	}
}

func TestSplitFlat_OversizedFixedShape(t *testing.T) {
	sig := Signature{VectorSlot("v", 1<<24+1), ScalarSlot("x")}
	if _, err := SplitFlat(sig, []float64{7}, nil); !stderrors.Is(err, errors.ErrShape) {
		t.Fatalf("err = %v, want shape error", err)
	}
}

func TestSplitFlat_Outputs(t *testing.T) {
	returns := Signature{DynamicVectorSlot("d", 0), ScalarSlot("y")}
	inputs := []Value{Scalar(3)}

	raw, err := SplitFlat(returns, []float64{1, 2, 3, 4, 0, 0}, inputs)
	if err != nil {
		t.Fatalf("SplitFlat: %v", err)
	}
	if raw[0].Len() != 3 || raw[1].Len() != 1 {
		t.Errorf("lens = %d, %d", raw[0].Len(), raw[1].Len())
	}
	if !bytes.Equal(raw[1].Data, ScalarRegion(4).Data) {
		t.Error("scalar region differs")
	}
}

func TestFlatLen(t *testing.T) {
	raw := Raw{ScalarRegion(1), NewRegion(KindFixedVector, 1, 2, 3)}
	if n := FlatLen(raw); n != 4 {
		t.Errorf("FlatLen = %d, want 4", n)
	}
}

func TestJoinFlat_BadRegion(t *testing.T) {
	if _, err := JoinFlat(Raw{{Kind: KindScalar, Data: []byte{1, 2, 3}}}); !stderrors.Is(err, errors.ErrShapeMismatch) {
		t.Errorf("err = %v, want shape mismatch", err)
	}
}

func TestCounts(t *testing.T) {
	tests := []struct {
		name     string
		sig      Signature
		inputs   int
		capacity int
	}{
		{"fixed", Signature{ScalarSlot("a"), VectorSlot("v", 3), MatrixSlot("m", 2, 2)}, 8, 8},
		{"dynamic", Signature{ScalarSlot("n"), DynamicVectorSlot("v", 0)}, -1, -1},
		{"bounded dynamic", Signature{ScalarSlot("n"), {Kind: KindDynamicVector, Refs: []int{0}, MaxElements: 10}}, -1, 11},
		{"series", Signature{TimeSeriesSlot("ts", 10)}, -1, 25},
		{"table", Signature{ScalarSlot("a"), TableSlot("t", 0, 40)}, -1, 41},
		{"empty", Signature{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InputCount(tt.sig); got != tt.inputs {
				t.Errorf("InputCount = %d, want %d", got, tt.inputs)
			}
			if got := OutputCapacity(tt.sig); got != tt.capacity {
				t.Errorf("OutputCapacity = %d, want %d", got, tt.capacity)
			}
		})
	}
}
