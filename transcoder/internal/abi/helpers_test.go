package abi

import (
	"math"
	"testing"
)

func TestSafeMul(t *testing.T) {
	tests := []struct {
		name   string
		a, b   int
		want   int
		wantOK bool
	}{
		{"zero * zero", 0, 0, 0, true},
		{"zero * large", 0, MaxElements, 0, true},
		{"small * small", 100, 200, 20000, true},
		{"at limit", MaxElements, 1, MaxElements, true},
		{"past limit", MaxElements, 2, 0, false},
		{"negative", -1, 2, 0, false},
		{"huge", math.MaxInt, math.MaxInt, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeMul(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Errorf("SafeMul(%d, %d) ok = %v, want %v", tt.a, tt.b, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("SafeMul(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSafeAdd(t *testing.T) {
	if got, ok := SafeAdd(2, 3); !ok || got != 5 {
		t.Errorf("SafeAdd(2, 3) = %d, %v", got, ok)
	}
	if _, ok := SafeAdd(math.MaxInt, 1); ok {
		t.Error("SafeAdd overflow not detected")
	}
}

func TestProduct(t *testing.T) {
	if n, ok := Product([]int{2, 3, 4}); !ok || n != 24 {
		t.Errorf("Product = %d, %v", n, ok)
	}
	if n, ok := Product(nil); !ok || n != 1 {
		t.Errorf("Product(nil) = %d, %v", n, ok)
	}
	if _, ok := Product([]int{1 << 13, 1 << 13, 1 << 13}); ok {
		t.Error("Product past limit should fail")
	}
}

func TestTruncateSize(t *testing.T) {
	tests := []struct {
		in     float64
		want   int
		wantOK bool
	}{
		{3, 3, true},
		{3.9, 3, true},
		{1.0000001, 1, true},
		{0.99, 0, false},
		{0, 0, false},
		{-2.5, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{MaxElements + 1, 0, false},
	}

	for _, tt := range tests {
		got, ok := TruncateSize(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("TruncateSize(%v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestExactCount(t *testing.T) {
	tests := []struct {
		in     float64
		want   int
		wantOK bool
	}{
		{0, 0, true},
		{5, 5, true},
		{math.Copysign(0, -1), 0, false},
		{2.5, 0, false},
		{-1, 0, false},
		{math.NaN(), 0, false},
	}

	for _, tt := range tests {
		got, ok := ExactCount(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ExactCount(%v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFloatBytes(t *testing.T) {
	nan := math.Float64frombits(0x7ff8000000000001)
	in := []float64{1.5, -0.0, nan, math.Inf(-1)}

	b := BytesFromFloats(in)
	if len(b) != 32 {
		t.Fatalf("len = %d", len(b))
	}
	out, ok := FloatsFromBytes(b)
	if !ok {
		t.Fatal("FloatsFromBytes failed")
	}
	for i := range in {
		if math.Float64bits(out[i]) != math.Float64bits(in[i]) {
			t.Errorf("element %d bits differ", i)
		}
	}

	if _, ok := FloatsFromBytes(make([]byte, 7)); ok {
		t.Error("odd length accepted")
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{nil, "nil"},
		{42, "int"},
		{3.14, "float64"},
		{[]float64{1}, "[]float64"},
	}

	for _, tt := range tests {
		if got := TypeName(tt.input); got != tt.want {
			t.Errorf("TypeName(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
