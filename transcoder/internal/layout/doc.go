// Package layout computes flat footprints of slots in a host double buffer.
//
// Scalars and fixed arrays have an exact count known at bind time. Dynamic
// arrays, time series and lookup tables are sized per call, so their count is
// -1; as outputs they still have a capacity derived from MaxPoints or
// MaxElements.
//
// # Usage
//
//	info := layout.Calc(desc)
//	// info.Count, info.Capacity
//
// This package is internal to the transcoder.
package layout
