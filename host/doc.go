// Package host is the entry point a simulation calls once per timestep.
//
// A Host reads a binding file (see package config), opens its log file and
// builds every callback the file declares: Go functions registered with
// WithNative, Starlark scripts, or WebAssembly guests. Dispatch mirrors a
// single exported entry point taking a method id and flat double buffers:
//
//	h := host.New("model.json", host.WithNative("double", callback.Func(double)))
//	if h.Dispatch(ctx, host.MethodCalculate, in, out) == host.StatusFatal {
//		return h.Err()
//	}
//
// Inputs arrive as one contiguous buffer; dynamic slots are sized by scalars
// earlier in the same buffer. Outputs are written back the same way.
//
// Driver steps a host through a fixed time grid, feeding inputs from a
// Source or a YAML Scenario and stopping at the first fatal call.
package host
