// Package callback binds callback ids to signatures and entry points and
// runs invocations through the marshalling layer.
//
// Invoke performs, in order: id lookup and arity check, all-or-nothing
// decoding with interleaved shape resolution, the entry call with a fresh
// bridge.Call, and output validation plus encoding.
//
// Entries are implemented by Func for native Go code, script.Function for
// Starlark scripts and engine.Function for WebAssembly guests.
//
// Failure policy belongs to the callback. Graceful logs and returns a
// fallback; Escalate logs, marks the call fatal and returns a placeholder.
// Either way the returned values must satisfy the return signature.
package callback
