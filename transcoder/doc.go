// Package transcoder marshals callback arguments and results between host
// double buffers and typed values.
//
// # Wire Form
//
// Every argument travels as a Region: a kind tag and a payload of
// little-endian IEEE-754 doubles. Scalars and arrays are their elements in
// row-major order. Time series and lookup tables carry their own headers:
//
//	timeseries  N, timestamps[N], rows, cols, data[max(rows,1)*max(cols,1)*N], data_type, time_basis
//	table       dim, nrows[, ncols][, nlayers], row_labels, col_labels?, layer_labels?, data
//
// rows=0 marks a scalar-valued series, cols=0 a vector-valued one.
//
// # Slot Kinds
//
//	Kind            Shape source
//	──────────────────────────────────────────────
//	scalar          none
//	vector          Dims[0], fixed at bind time
//	matrix          Dims[0] x Dims[1], fixed
//	dynamic-vector  scalar input at Refs[0]
//	dynamic-matrix  scalar inputs at Refs[0], Refs[1]
//	timeseries      header; Dims are the component dims
//	table           header; TableDim 0 accepts 1D..3D
//
// # Decoding Flow
//
//  1. Signature.Validate at bind time: size refs point to earlier scalars
//  2. Decoder.Decode(sig, raw), strictly left to right; dynamic slots call
//     Resolve with the arguments decoded so far
//
// Sizes truncate toward zero; zero, negative, NaN and infinite sizes are
// shape errors.
//
// # Encoding Flow
//
//  1. CheckOutputs: arity, kind family, shape, container invariants
//  2. Encoder.Encode writes regions in the decode field order
//
// Encode(Decode(x)) reproduces x bit for bit. Doubles are copied as raw
// bits, so NaN payloads and signed zeros survive.
//
// # Flat Host Buffers
//
// Hosts that pass one contiguous double buffer use SplitFlat and JoinFlat.
// InputCount and OutputCapacity report the buffer sizes a host should
// reserve; InputCount is -1 when any slot is sized per call.
//
// # Error Handling
//
// Errors use the structured types from the errors package:
//
//	[decode] shape_mismatch at inputs[2].samples: declared dynamic-vector[3], got 2 elements
//	[encode] output_contract at outputs: declared arity 7, got 5 values
//
// # Thread Safety
//
// Encoder and Decoder hold no state and are safe for concurrent use.
package transcoder
