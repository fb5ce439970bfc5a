// Package types defines the closed set of slot kinds and the slot descriptor.
//
// # Key Types
//
//   - Kind: slot discriminator (scalar, fixed/dynamic vector and matrix,
//     time series, lookup table)
//   - Descriptor: declared kind plus static dims, dynamic refs and capacities
//
// This package is internal to the transcoder.
package types
