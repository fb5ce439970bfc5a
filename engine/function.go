package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tetratelabs/wazero"
	"github.com/wippyai/simbridge/bridge"
	"github.com/wippyai/simbridge/callback"
	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder"
)

// Function is a callback exported by a guest module. Every call runs on a
// fresh instance, so guest globals and memory never carry over.
type Function struct {
	engine   *Engine
	compiled wazero.CompiledModule
	encoder  *transcoder.Encoder
	decoder  *transcoder.Decoder
	export   string
	params   transcoder.Signature
	returns  transcoder.Signature
	capacity int
}

var _ callback.Entry = (*Function)(nil)

// Export returns the guest export name.
func (f *Function) Export() string { return f.export }

// Capacity returns the output buffer size in doubles.
func (f *Function) Capacity() int { return f.capacity }

// Binding binds the function under id with the signatures it was loaded
// with.
func (f *Function) Binding(id string) callback.Binding {
	return callback.Binding{ID: id, Params: f.params, Returns: f.returns, Entry: f}
}

// Close releases the compiled module.
func (f *Function) Close(ctx context.Context) error {
	return f.compiled.Close(ctx)
}

// Call packs args into guest memory, runs the export and unpacks its
// output buffer against the return signature. A negative status from the
// guest is an uncaught failure. Writing more than the output capacity or
// a buffer that does not match the return signature violates the output
// contract.
func (f *Function) Call(ctx context.Context, call *bridge.Call, args []transcoder.Value) ([]transcoder.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if args == nil {
		args = []transcoder.Value{}
	}
	if _, ok := bridge.FromContext(ctx); !ok && call != nil {
		ctx = bridge.WithCall(ctx, call)
	}

	raw, err := f.encoder.Encode(f.params, args, args)
	if err != nil {
		return nil, err
	}
	in, err := transcoder.JoinFlat(raw)
	if err != nil {
		return nil, err
	}

	mod, err := f.engine.runtime.InstantiateModule(ctx, f.compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	defer mod.Close(ctx)

	mem := wrapMemory(mod.Memory())
	alloc := &allocator{ctx: ctx, fn: mod.ExportedFunction(AllocExport)}

	inPtr, err := transcoder.StoreFlat(mem, alloc, in)
	if err != nil {
		return nil, err
	}
	outPtr, err := alloc.Alloc(uint32(f.capacity*8), 8)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "allocate output buffer")
	}

	results, err := mod.ExportedFunction(f.export).Call(ctx,
		uint64(inPtr), uint64(len(in)), uint64(outPtr), uint64(f.capacity))
	if err != nil {
		return nil, fmt.Errorf("guest %s: %w", f.export, err)
	}

	n := int32(uint32(results[0]))
	if n < 0 {
		return nil, fmt.Errorf("guest %s failed with status %d", f.export, n)
	}
	if int(n) > f.capacity {
		return nil, errors.OutputContract([]string{"outputs"},
			"at most "+strconv.Itoa(f.capacity)+" elements", strconv.Itoa(int(n))+" elements",
			"guest wrote past its output buffer")
	}

	out, err := transcoder.LoadFlat(mem, outPtr, int(n))
	if err != nil {
		return nil, err
	}
	regions, err := transcoder.SplitFlat(f.returns, out, args)
	if err != nil {
		return nil, resultError(err)
	}
	if used := transcoder.FlatLen(regions); used != int(n) {
		return nil, errors.OutputContract([]string{"outputs"},
			strconv.Itoa(used)+" elements", strconv.Itoa(int(n))+" elements",
			"guest reported more elements than its return signature holds")
	}
	values, err := f.decoder.DecodeResults(f.returns, args, regions)
	if err != nil {
		return nil, resultError(err)
	}
	return values, nil
}

func resultError(err error) error {
	return errors.Wrap(errors.PhaseEncode, errors.KindOutputContract, err, "guest output buffer does not match return signature")
}
