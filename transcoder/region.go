package transcoder

import (
	"strconv"

	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder/internal/abi"
)

// Region is one argument's host buffer: a kind tag and little-endian
// IEEE-754 doubles.
type Region struct {
	Data []byte
	Kind Kind
}

// Raw is the ordered list of regions for one call direction.
type Raw []Region

// NewRegion packs vals under the given tag.
func NewRegion(kind Kind, vals ...float64) Region {
	return Region{Kind: kind, Data: abi.BytesFromFloats(vals)}
}

// ScalarRegion packs a single scalar.
func ScalarRegion(v float64) Region {
	return NewRegion(KindScalar, v)
}

// Len returns the number of whole doubles in the region.
func (r Region) Len() int {
	return len(r.Data) / 8
}

// Floats unpacks the region payload.
func (r Region) Floats() ([]float64, error) {
	f, ok := abi.FloatsFromBytes(r.Data)
	if !ok {
		return nil, errors.New(errors.PhaseDecode, errors.KindShapeMismatch).
			Declared(r.Kind.String()).
			Actual(strconv.Itoa(len(r.Data)) + " bytes").
			Detail("payload is not a whole number of doubles").
			Build()
	}
	return f, nil
}

func slotPath(dir string, i int, name string) []string {
	p := []string{dir + "[" + strconv.Itoa(i) + "]"}
	if name != "" {
		p = append(p, name)
	}
	return p
}
