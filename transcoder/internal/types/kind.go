package types

type Kind uint8

const (
	KindScalar Kind = iota
	KindFixedVector
	KindDynamicVector
	KindFixedMatrix
	KindDynamicMatrix
	KindTimeSeries
	KindLookupTable
)

var kindNames = [...]string{
	KindScalar:        "scalar",
	KindFixedVector:   "vector",
	KindDynamicVector: "dynamic-vector",
	KindFixedMatrix:   "matrix",
	KindDynamicMatrix: "dynamic-matrix",
	KindTimeSeries:    "timeseries",
	KindLookupTable:   "table",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

func (k Kind) Valid() bool {
	return int(k) < len(kindNames)
}

func (k Kind) IsDynamic() bool {
	return k == KindDynamicVector || k == KindDynamicMatrix
}

// Family folds dynamic kinds onto their fixed counterparts. Values report
// their family; only descriptors distinguish fixed from dynamic.
func (k Kind) Family() Kind {
	switch k {
	case KindDynamicVector:
		return KindFixedVector
	case KindDynamicMatrix:
		return KindFixedMatrix
	default:
		return k
	}
}

// Rank is the array rank of vector and matrix kinds, 0 otherwise.
func (k Kind) Rank() int {
	switch k.Family() {
	case KindFixedVector:
		return 1
	case KindFixedMatrix:
		return 2
	default:
		return 0
	}
}

// IsHeadered reports whether the wire form carries its own length header.
func (k Kind) IsHeadered() bool {
	return k == KindTimeSeries || k == KindLookupTable
}
