package engine

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder"
	"go.uber.org/zap"
)

const (
	// AllocExport is the guest allocator export, alloc(size i32) -> i32.
	AllocExport = "alloc"
	// MemoryExport is the guest linear memory export.
	MemoryExport = "memory"

	// DefaultOutputCapacity bounds output buffers, in doubles, for return
	// signatures without a static capacity.
	DefaultOutputCapacity = 1 << 16
)

var (
	callbackParams  = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32}
	callbackResults = []api.ValueType{api.ValueTypeI32}
	allocParams     = []api.ValueType{api.ValueTypeI32}
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// OutputCapacity is the output buffer size, in doubles, used when a
	// return signature has no static capacity. 0 means DefaultOutputCapacity.
	OutputCapacity int
}

// Engine compiles guest modules and runs their callbacks on a shared
// wazero runtime that hosts the gspy module.
type Engine struct {
	runtime wazero.Runtime
	cfg     Config
}

// New creates an engine. A nil cfg uses defaults.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	e := &Engine{}
	if cfg != nil {
		e.cfg = *cfg
	}
	if e.cfg.OutputCapacity <= 0 {
		e.cfg.OutputCapacity = DefaultOutputCapacity
	}

	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if e.cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(e.cfg.MemoryLimitPages)
	}
	e.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	if _, err := instantiateHost(ctx, e.runtime); err != nil {
		_ = e.runtime.Close(ctx)
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindRegistration, err, "register gspy host module")
	}
	return e, nil
}

// Close releases the runtime and every module compiled on it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadFile reads a guest module from path and loads export from it.
func (e *Engine) LoadFile(ctx context.Context, path, export string, params, returns transcoder.Signature) (*Function, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("read %s", path), err)
	}
	return e.Load(ctx, wasm, export, params, returns)
}

// Load compiles a guest module and checks that it exports memory, alloc
// and export with the callback ABI, and imports nothing but gspy.
func (e *Engine) Load(ctx context.Context, wasm []byte, export string, params, returns transcoder.Signature) (*Function, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := returns.ValidateReturns(params); err != nil {
		return nil, err
	}

	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile guest module", err)
	}
	if err := checkModule(compiled, export); err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	capacity := transcoder.OutputCapacity(returns)
	if capacity < 0 {
		capacity = e.cfg.OutputCapacity
	}

	Logger().Debug("guest loaded",
		zap.String("export", export),
		zap.Int("output_capacity", capacity),
		zap.Stringer("params", params),
		zap.Stringer("returns", returns))

	return &Function{
		engine:   e,
		compiled: compiled,
		export:   export,
		params:   params,
		returns:  returns,
		capacity: capacity,
		encoder:  transcoder.NewEncoder(),
		decoder:  transcoder.NewDecoder(),
	}, nil
}

func checkModule(compiled wazero.CompiledModule, export string) error {
	if _, ok := compiled.ExportedMemories()[MemoryExport]; !ok {
		return errors.Load(fmt.Sprintf("guest does not export %q", MemoryExport), nil)
	}

	exports := compiled.ExportedFunctions()
	if err := checkSignature(exports, AllocExport, allocParams, callbackResults); err != nil {
		return err
	}
	if err := checkSignature(exports, export, callbackParams, callbackResults); err != nil {
		return err
	}

	for _, imp := range compiled.ImportedFunctions() {
		mod, name, _ := imp.Import()
		if mod != HostModule || (name != "log" && name != "error") {
			return errors.Load(fmt.Sprintf("guest imports unknown function %s.%s", mod, name), nil)
		}
	}
	return nil
}

func checkSignature(exports map[string]api.FunctionDefinition, name string, params, results []api.ValueType) error {
	def, ok := exports[name]
	if !ok {
		return errors.Load(fmt.Sprintf("guest does not export function %q", name), nil)
	}
	if !slices.Equal(def.ParamTypes(), params) || !slices.Equal(def.ResultTypes(), results) {
		return errors.Load(fmt.Sprintf("guest export %q has signature %s, want %s",
			name, signature(def.ParamTypes(), def.ResultTypes()), signature(params, results)), nil)
	}
	return nil
}

func signature(params, results []api.ValueType) string {
	s := "("
	for i, p := range params {
		if i > 0 {
			s += ","
		}
		s += api.ValueTypeName(p)
	}
	s += ")->("
	for i, r := range results {
		if i > 0 {
			s += ","
		}
		s += api.ValueTypeName(r)
	}
	return s + ")"
}
