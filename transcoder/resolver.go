package transcoder

import (
	"strconv"

	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder/internal/abi"
)

// Resolve returns the concrete dims of d. Fixed slots return their declared
// dims; dynamic slots read each size ref from args, truncating toward zero.
// Only args already present are consulted, so a decoder resolving slot i
// passes the first i arguments.
func Resolve(args []Value, d Descriptor) ([]int, error) {
	return resolve(args, d, []string{d.Name})
}

func resolve(args []Value, d Descriptor, path []string) ([]int, error) {
	if !d.Kind.IsDynamic() {
		return d.Dims, nil
	}

	dims := make([]int, len(d.Refs))
	for i, ref := range d.Refs {
		if ref < 0 || ref >= len(args) {
			return nil, errors.Shape(path, ref, "size ref %d not yet decoded", ref)
		}
		s, ok := args[ref].(Scalar)
		if !ok {
			return nil, errors.New(errors.PhaseResolve, errors.KindShape).
				Path(path...).
				Declared("scalar").
				Actual(abi.TypeName(args[ref])).
				Detail("size ref %d", ref).
				Build()
		}
		n, ok := abi.TruncateSize(float64(s))
		if !ok {
			return nil, errors.Shape(path, float64(s),
				"size ref %d holds %s, need a positive size up to %d",
				ref, strconv.FormatFloat(float64(s), 'g', -1, 64), abi.MaxElements)
		}
		dims[i] = n
	}
	if _, ok := abi.Product(dims); !ok {
		return nil, errors.Shape(path, dims, "resolved size exceeds %d elements", abi.MaxElements)
	}
	return dims, nil
}
