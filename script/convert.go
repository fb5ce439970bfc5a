package script

import (
	"math"
	"strconv"

	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder"
	"go.starlark.net/starlark"
)

// Dictionary keys for time series and lookup table values.
const (
	keyTimestamps  = "timestamps"
	keyData        = "data"
	keyTimeBasis   = "time_basis"
	keyDataType    = "data_type"
	keyTableDim    = "table_dim"
	keyRowLabels   = "row_labels"
	keyColLabels   = "col_labels"
	keyLayerLabels = "layer_labels"
)

// toStarlark converts a decoded argument. Scalars become floats, arrays
// nested lists, time series and tables dicts.
func toStarlark(v transcoder.Value) (starlark.Value, error) {
	switch v := v.(type) {
	case transcoder.Scalar:
		return starlark.Float(v), nil
	case *transcoder.Array:
		return arrayList(v.Dims, v.Data), nil
	case *transcoder.TimeSeries:
		d := starlark.NewDict(4)
		_ = d.SetKey(starlark.String(keyTimestamps), floatList(v.Timestamps))
		_ = d.SetKey(starlark.String(keyData), arrayList(v.Data.Dims, v.Data.Data))
		_ = d.SetKey(starlark.String(keyTimeBasis), starlark.MakeInt(int(v.TimeBasis)))
		_ = d.SetKey(starlark.String(keyDataType), starlark.Float(v.DataType))
		return d, nil
	case *transcoder.LookupTable:
		d := starlark.NewDict(5)
		_ = d.SetKey(starlark.String(keyTableDim), starlark.MakeInt(v.Dim))
		_ = d.SetKey(starlark.String(keyRowLabels), floatList(v.RowLabels))
		if v.Dim >= 2 {
			_ = d.SetKey(starlark.String(keyColLabels), floatList(v.ColLabels))
		}
		if v.Dim >= 3 {
			_ = d.SetKey(starlark.String(keyLayerLabels), floatList(v.LayerLabels))
		}
		_ = d.SetKey(starlark.String(keyData), arrayList(v.Data.Dims, v.Data.Data))
		return d, nil
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Actual(transcoderTypeName(v)).
		Detail("no script representation").
		Build()
}

func floatList(xs []float64) *starlark.List {
	elems := make([]starlark.Value, len(xs))
	for i, x := range xs {
		elems[i] = starlark.Float(x)
	}
	return starlark.NewList(elems)
}

func arrayList(dims []int, data []float64) *starlark.List {
	if len(dims) <= 1 {
		return floatList(data)
	}
	stride := len(data)
	if dims[0] > 0 {
		stride = len(data) / dims[0]
	}
	elems := make([]starlark.Value, dims[0])
	for i := range elems {
		elems[i] = arrayList(dims[1:], data[i*stride:(i+1)*stride])
	}
	return starlark.NewList(elems)
}

// fromStarlark converts a script result slot back to a value. path names
// the slot in errors.
func fromStarlark(v starlark.Value, path []string) (transcoder.Value, error) {
	switch v := v.(type) {
	case starlark.Float, starlark.Int:
		f, _ := starlark.AsFloat(v)
		return transcoder.Scalar(f), nil
	case *starlark.List, starlark.Tuple:
		return arrayOf(v, path)
	case *starlark.Dict:
		if _, found, _ := v.Get(starlark.String(keyTimestamps)); found {
			return timeSeriesOf(v, path)
		}
		return tableOf(v, path)
	}
	return nil, contract(path, "number, sequence or dict", v.Type(), "")
}

func contract(path []string, declared, actual, detail string) error {
	return errors.OutputContract(path, declared, actual, detail)
}

// arrayOf flattens a rectangular nested sequence in row-major order.
func arrayOf(v starlark.Value, path []string) (*transcoder.Array, error) {
	var dims []int
	for cur := v; ; {
		seq, ok := cur.(starlark.Indexable)
		if !ok {
			break
		}
		if _, isStr := cur.(starlark.String); isStr {
			break
		}
		dims = append(dims, seq.Len())
		if seq.Len() == 0 {
			break
		}
		cur = seq.Index(0)
	}

	n := 1
	for _, d := range dims {
		n *= d
	}
	data := make([]float64, 0, n)
	if err := flatten(v, dims, &data, path); err != nil {
		return nil, err
	}
	return &transcoder.Array{Dims: dims, Data: data}, nil
}

func flatten(v starlark.Value, dims []int, out *[]float64, path []string) error {
	if len(dims) == 0 {
		f, ok := starlark.AsFloat(v)
		if !ok {
			return contract(path, "number", v.Type(), "array element")
		}
		*out = append(*out, f)
		return nil
	}
	seq, ok := v.(starlark.Indexable)
	if !ok {
		return contract(path, "sequence", v.Type(), "ragged array")
	}
	if seq.Len() != dims[0] {
		return contract(path, strconv.Itoa(dims[0])+" elements", strconv.Itoa(seq.Len()), "ragged array")
	}
	for i := 0; i < seq.Len(); i++ {
		if err := flatten(seq.Index(i), dims[1:], out, path); err != nil {
			return err
		}
	}
	return nil
}

func dictFloats(d *starlark.Dict, key string, path []string) ([]float64, bool, error) {
	v, found, _ := d.Get(starlark.String(key))
	if !found || v == starlark.None {
		return nil, false, nil
	}
	a, err := arrayOf(v, sub(path, key))
	if err != nil {
		return nil, true, err
	}
	if len(a.Dims) != 1 {
		return nil, true, contract(sub(path, key), "list of numbers", "nested sequence", "")
	}
	return a.Data, true, nil
}

func dictNumber(d *starlark.Dict, key string, def float64, path []string) (float64, error) {
	v, found, _ := d.Get(starlark.String(key))
	if !found || v == starlark.None {
		return def, nil
	}
	f, ok := starlark.AsFloat(v)
	if !ok {
		return 0, contract(sub(path, key), "number", v.Type(), "")
	}
	return f, nil
}

func dictArray(d *starlark.Dict, path []string) (*transcoder.Array, error) {
	v, found, _ := d.Get(starlark.String(keyData))
	if !found {
		return nil, contract(path, "dict with "+keyData, "missing key", "")
	}
	return arrayOf(v, sub(path, keyData))
}

func timeSeriesOf(d *starlark.Dict, path []string) (transcoder.Value, error) {
	ts, _, err := dictFloats(d, keyTimestamps, path)
	if err != nil {
		return nil, err
	}
	data, err := dictArray(d, path)
	if err != nil {
		return nil, err
	}
	basis, err := dictNumber(d, keyTimeBasis, 0, path)
	if err != nil {
		return nil, err
	}
	dataType, err := dictNumber(d, keyDataType, 0, path)
	if err != nil {
		return nil, err
	}
	if basis != math.Trunc(basis) || basis < 0 || basis > math.MaxUint8 {
		return nil, contract(sub(path, keyTimeBasis), "0 or 1", strconv.FormatFloat(basis, 'g', -1, 64), "")
	}
	return &transcoder.TimeSeries{
		Timestamps: ts,
		Data:       data,
		DataType:   dataType,
		TimeBasis:  transcoder.TimeBasis(basis),
	}, nil
}

func tableOf(d *starlark.Dict, path []string) (transcoder.Value, error) {
	rows, _, err := dictFloats(d, keyRowLabels, path)
	if err != nil {
		return nil, err
	}
	cols, _, err := dictFloats(d, keyColLabels, path)
	if err != nil {
		return nil, err
	}
	layers, _, err := dictFloats(d, keyLayerLabels, path)
	if err != nil {
		return nil, err
	}
	data, err := dictArray(d, path)
	if err != nil {
		return nil, err
	}
	dim, err := dictNumber(d, keyTableDim, float64(len(data.Dims)), path)
	if err != nil {
		return nil, err
	}
	if dim != math.Trunc(dim) || dim < 1 || dim > 3 {
		return nil, contract(sub(path, keyTableDim), "1, 2 or 3", strconv.FormatFloat(dim, 'g', -1, 64), "")
	}
	return &transcoder.LookupTable{
		Dim:         int(dim),
		RowLabels:   rows,
		ColLabels:   cols,
		LayerLabels: layers,
		Data:        data,
	}, nil
}

func transcoderTypeName(v transcoder.Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}

func sub(path []string, key string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), key)
}
