// Package simbridge marshals per-timestep callback calls between a numerical
// simulation host and user-supplied callbacks.
//
// A host invokes one callback per simulation timestep with a fixed-arity
// tuple of numeric arguments and expects a tuple of outputs whose count,
// order and shapes never change, whether the callback succeeded or not.
// This module is the layer in between: it decodes host buffers into typed
// values, resolves dynamic shapes from earlier scalar arguments, validates
// and re-encodes callback results, and gives callbacks a log channel and a
// one-shot fatal escalation channel.
//
// # Architecture Overview
//
//	simbridge/           Root package with version info and guest Memory interfaces
//	├── transcoder/      Descriptors, values, shape resolver, input/output marshallers
//	├── bridge/          Per-call log and escalation channels, sinks, log file
//	├── callback/        Registry binding ids to entry points, Invoke
//	├── script/          Starlark callbacks with the gspy module
//	├── engine/          WebAssembly callbacks on wazero with gspy host imports
//	├── host/            Host method dispatch over flat double buffers, timestep driver
//	├── config/          JSON/YAML binding files, validation, reload
//	├── telemetry/       Prometheus metrics and OpenTelemetry spans
//	├── errors/          Structured error taxonomy
//	└── cmd/simbridge/   CLI: describe, run, version, interactive
//
// # Quick Start
//
//	reg := callback.NewRegistry()
//	err := reg.Bind(callback.Binding{
//	    ID:      "double",
//	    Params:  transcoder.Signature{transcoder.ScalarSlot("x")},
//	    Returns: transcoder.Signature{transcoder.ScalarSlot("y")},
//	    Entry: callback.Func(func(ctx context.Context, call *bridge.Call, args []transcoder.Value) ([]transcoder.Value, error) {
//	        x := args[0].(transcoder.Scalar)
//	        return []transcoder.Value{x * 2}, nil
//	    }),
//	})
//
//	res, err := reg.Invoke(ctx, "double", transcoder.Raw{transcoder.ScalarRegion(21)})
//	// res.Values[0] == transcoder.Scalar(42)
//
// # Failure Model
//
// Marshalling errors (binding, shape, decode, output contract) are always
// fatal and returned to the host. Application failures inside a callback are
// handled by the callback: it either returns a same-shape fallback (graceful)
// or signals fatal through its bridge.Call and still returns a placeholder.
//
// # Thread Safety
//
// Registries are safe for concurrent use. A single call is synchronous and
// self-contained; nothing survives from one call to the next.
package simbridge
