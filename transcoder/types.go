package transcoder

import (
	"github.com/wippyai/simbridge/transcoder/internal/types"
)

type Kind = types.Kind

const (
	KindScalar        = types.KindScalar
	KindFixedVector   = types.KindFixedVector
	KindDynamicVector = types.KindDynamicVector
	KindFixedMatrix   = types.KindFixedMatrix
	KindDynamicMatrix = types.KindDynamicMatrix
	KindTimeSeries    = types.KindTimeSeries
	KindLookupTable   = types.KindLookupTable
)

type Descriptor = types.Descriptor

// ParseKind maps a kind name such as "dynamic-vector" to its Kind.
func ParseKind(name string) (Kind, bool) {
	return types.ParseKind(name)
}

// ScalarSlot declares a single double.
func ScalarSlot(name string) Descriptor {
	return Descriptor{Name: name, Kind: KindScalar}
}

// VectorSlot declares a vector of n doubles.
func VectorSlot(name string, n int) Descriptor {
	return Descriptor{Name: name, Kind: KindFixedVector, Dims: []int{n}}
}

// MatrixSlot declares a rows x cols matrix, row-major.
func MatrixSlot(name string, rows, cols int) Descriptor {
	return Descriptor{Name: name, Kind: KindFixedMatrix, Dims: []int{rows, cols}}
}

// DynamicVectorSlot declares a vector whose length is the scalar input at sizeRef.
func DynamicVectorSlot(name string, sizeRef int) Descriptor {
	return Descriptor{Name: name, Kind: KindDynamicVector, Refs: []int{sizeRef}}
}

// DynamicMatrixSlot declares a matrix sized by two scalar inputs.
func DynamicMatrixSlot(name string, rowRef, colRef int) Descriptor {
	return Descriptor{Name: name, Kind: KindDynamicMatrix, Refs: []int{rowRef, colRef}}
}

// TimeSeriesSlot declares a time series with optional component dims
// ([] scalar-valued, [rows] vector-valued, [rows, cols] matrix-valued).
func TimeSeriesSlot(name string, maxPoints int, dims ...int) Descriptor {
	return Descriptor{Name: name, Kind: KindTimeSeries, MaxPoints: maxPoints, Dims: dims}
}

// TableSlot declares a lookup table. dim 0 accepts any dimension.
func TableSlot(name string, dim, maxElements int) Descriptor {
	return Descriptor{Name: name, Kind: KindLookupTable, TableDim: dim, MaxElements: maxElements}
}
