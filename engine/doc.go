// Package engine runs callbacks compiled to WebAssembly on wazero.
//
// A guest module exports its linear memory, a bump allocator and one or
// more callbacks with a flat double ABI:
//
//	(memory (export "memory") 1)
//	(func (export "alloc") (param $size i32) (result i32))
//	(func (export "process_data")
//	  (param $in_ptr i32) (param $in_len i32) (param $out_ptr i32) (param $out_cap i32)
//	  (result i32))
//
// Lengths are counted in float64 elements. The host packs the arguments as
// one contiguous buffer in slot order, the same layout host.Host receives,
// and allocates an output buffer sized from the return signature. The
// callback returns the number of elements written, or a negative status
// for an uncaught failure.
//
// # Host Module
//
// Guests may import two functions from the "gspy" module:
//
//	gspy.log(ptr, len, level i32)  // append to the call's log channel
//	gspy.error(ptr, len i32)       // mark the call fatal
//
// Both resolve the current bridge.Call from the invocation context.
//
// # Isolation
//
// Modules are compiled once by Engine.Load. Every Function.Call
// instantiates a fresh, anonymous instance and closes it afterwards, so no
// guest state survives from one call to the next. Cancelling the call
// context terminates a running guest.
package engine
