package transcoder

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/simbridge/errors"
)

func TestNewTimeSeries(t *testing.T) {
	tests := []struct {
		name    string
		stamps  []float64
		data    *Array
		basis   TimeBasis
		wantErr bool
	}{
		{"scalar valued", []float64{0, 1, 2}, NewVector(1, 2, 3), Elapsed, false},
		{"matrix valued", []float64{0}, Zeros(2, 3, 1), Calendar, false},
		{"empty", nil, Zeros(0), Elapsed, false},
		{"trailing axis mismatch", []float64{0, 1, 2}, Zeros(2, 2), Elapsed, true},
		{"rank four", []float64{0}, Zeros(1, 1, 1, 1), Elapsed, true},
		{"decreasing", []float64{1, 0}, NewVector(1, 2), Elapsed, true},
		{"equal stamps", []float64{1, 1}, NewVector(1, 2), Elapsed, false},
		{"bad basis", []float64{0}, NewVector(1), TimeBasis(2), true},
		{"no data", []float64{0}, nil, Elapsed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := NewTimeSeries(tt.stamps, tt.data, 0, tt.basis)
			if tt.wantErr {
				if !stderrors.Is(err, errors.ErrStructural) {
					t.Fatalf("err = %v, want structural error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTimeSeries: %v", err)
			}
			if ts.Points() != len(tt.stamps) {
				t.Errorf("Points = %d", ts.Points())
			}
		})
	}
}

func TestNewLookupTable(t *testing.T) {
	tests := []struct {
		name    string
		rows    []float64
		cols    []float64
		layers  []float64
		data    *Array
		wantDim int
		wantErr bool
	}{
		{"1d", []float64{0, 1}, nil, nil, NewVector(5, 6), 1, false},
		{"2d", []float64{0, 1}, []float64{0, 1, 2}, nil, Zeros(2, 3), 2, false},
		{"3d", []float64{0}, []float64{0}, []float64{0, 1}, Zeros(1, 1, 2), 3, false},
		{"2d shape swapped", []float64{0, 1}, []float64{0, 1, 2}, nil, Zeros(3, 2), 0, true},
		{"1d with col labels", []float64{0}, []float64{0}, nil, NewVector(1), 0, true},
		{"missing col labels", []float64{0}, nil, nil, Zeros(1, 1), 0, true},
		{"rank four", []float64{0}, []float64{0}, []float64{0}, Zeros(1, 1, 1, 1), 0, true},
		{"no data", []float64{0}, nil, nil, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt, err := NewLookupTable(tt.rows, tt.cols, tt.layers, tt.data)
			if tt.wantErr {
				if !stderrors.Is(err, errors.ErrStructural) {
					t.Fatalf("err = %v, want structural error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLookupTable: %v", err)
			}
			if lt.Dim != tt.wantDim {
				t.Errorf("Dim = %d, want %d", lt.Dim, tt.wantDim)
			}
		})
	}
}

func TestNewMatrix(t *testing.T) {
	m, err := NewMatrix(2, 2, []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	if m.At(1, 1) != 4 || m.Kind() != KindFixedMatrix {
		t.Errorf("matrix = %+v", m)
	}
	if _, err := NewMatrix(2, 2, []float64{1}); !stderrors.Is(err, errors.ErrStructural) {
		t.Errorf("err = %v, want structural error", err)
	}
}

func TestValueKinds(t *testing.T) {
	tests := []struct {
		v    Value
		want Kind
	}{
		{Scalar(1), KindScalar},
		{NewVector(1), KindFixedVector},
		{Zeros(1, 1), KindFixedMatrix},
		{&TimeSeries{}, KindTimeSeries},
		{&LookupTable{}, KindLookupTable},
	}

	for _, tt := range tests {
		if got := tt.v.Kind(); got != tt.want {
			t.Errorf("%T Kind = %v, want %v", tt.v, got, tt.want)
		}
	}
}
