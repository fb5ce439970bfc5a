// Package abi provides internal utilities for the double-buffer wire form.
//
// # Contents
//
//   - helpers.go: size truncation, exact header counts, overflow-checked
//     size arithmetic, and little-endian float64 packing
//
// This package is internal to the transcoder.
package abi
