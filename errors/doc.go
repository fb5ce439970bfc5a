// Package errors provides structured error types for the callback bridge.
//
// Errors are categorized by Phase (where in a call the error occurred) and Kind
// (error category). The Error type carries the slot path, the declared and observed
// kinds or shapes, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindShapeMismatch).
//		Path("inputs", "2").
//		Declared("dynamic-vector[3]").
//		Actual("2 elements").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ShapeMismatch(path, "matrix[2x3]", "5 elements")
//	err := errors.OutputContract(path, "arity 7", "5 values", "")
//
// Kind sentinels match with errors.Is regardless of phase:
//
//	if errors.Is(err, errors.ErrShapeMismatch) { ... }
//
// Every marshalling failure is fatal to the host; see IsFatal.
package errors
