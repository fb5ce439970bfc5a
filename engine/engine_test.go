package engine

import (
	"context"
	stderrors "errors"
	"os"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/wippyai/simbridge/bridge"
	"github.com/wippyai/simbridge/callback"
	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder"
)

var (
	scalarIn  = transcoder.Signature{transcoder.ScalarSlot("x")}
	scalarOut = transcoder.Signature{transcoder.ScalarSlot("y")}
)

func guest(t *testing.T) []byte {
	t.Helper()
	wasm, err := os.ReadFile("testdata/callbacks.wasm")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return wasm
}

func newEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()
	ctx := context.Background()
	e, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(ctx) })
	return e
}

func bind(t *testing.T, e *Engine, export string, params, returns transcoder.Signature) *callback.Registry {
	t.Helper()
	f, err := e.Load(context.Background(), guest(t), export, params, returns)
	if err != nil {
		t.Fatalf("Load(%s): %v", export, err)
	}
	reg := callback.NewRegistry()
	if err := reg.Bind(f.Binding(export)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return reg
}

func TestNew(t *testing.T) {
	tests := []struct {
		cfg      *Config
		name     string
		capacity int
	}{
		{nil, "nil config", DefaultOutputCapacity},
		{&Config{}, "default config", DefaultOutputCapacity},
		{&Config{MemoryLimitPages: 256}, "16MB limit", DefaultOutputCapacity},
		{&Config{OutputCapacity: 64}, "output capacity", 64},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t, tc.cfg)
			if e.runtime == nil {
				t.Fatal("engine runtime should not be nil")
			}
			if e.runtime.Module(HostModule) == nil {
				t.Error("gspy host module not instantiated")
			}
			if e.cfg.OutputCapacity != tc.capacity {
				t.Errorf("OutputCapacity = %d, want %d", e.cfg.OutputCapacity, tc.capacity)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	e := newEngine(t, nil)
	empty := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	tests := []struct {
		name     string
		wasm     []byte
		export   string
		params   transcoder.Signature
		target   error
		contains string
	}{
		{"not wasm", []byte("nope"), "process_data", scalarIn, errors.ErrBinding, "compile"},
		{"no memory", empty, "process_data", scalarIn, errors.ErrBinding, `"memory"`},
		{"missing export", guest(t), "missing", scalarIn, errors.ErrBinding, `"missing"`},
		{"wrong signature", guest(t), "alloc", scalarIn, errors.ErrBinding, "signature"},
		{
			"bad ref",
			guest(t), "sum",
			transcoder.Signature{transcoder.DynamicVectorSlot("v", 0)},
			errors.ErrShape, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Load(context.Background(), tt.wasm, tt.export, tt.params, scalarOut)
			if !stderrors.Is(err, tt.target) {
				t.Fatalf("error = %v, want %v", err, tt.target)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	e := newEngine(t, nil)
	f, err := e.LoadFile(context.Background(), "testdata/callbacks.wasm", "process_data", scalarIn, scalarOut)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if f.Export() != "process_data" || f.Capacity() != 1 {
		t.Errorf("export/capacity = %s/%d", f.Export(), f.Capacity())
	}

	_, err = e.LoadFile(context.Background(), "testdata/missing.wasm", "process_data", scalarIn, scalarOut)
	if !stderrors.Is(err, errors.ErrBinding) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestProcessData(t *testing.T) {
	tests := []struct {
		name  string
		x     float64
		want  float64
		log   string
		level bridge.Level
		fatal bool
	}{
		{"positive", 3.5, 7, "positive", bridge.LevelInfo, false},
		{"zero", 0, 0, "zero", bridge.LevelWarning, false},
		{"negative", -1, 0, "negative", bridge.LevelError, true},
	}

	reg := bind(t, newEngine(t, nil), "process_data", scalarIn, scalarOut)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Each call gets a fresh instance, so repeating must not drift.
			for range 3 {
				res, err := reg.Invoke(context.Background(), "process_data", transcoder.Raw{transcoder.ScalarRegion(tt.x)})
				if err != nil {
					t.Fatalf("Invoke: %v", err)
				}
				if res.Values[0] != transcoder.Scalar(tt.want) {
					t.Errorf("output = %v, want %v", res.Values[0], tt.want)
				}
				if len(res.Entries) != 1 || res.Entries[0].Message != tt.log || res.Entries[0].Level != tt.level {
					t.Errorf("entries = %+v", res.Entries)
				}
				if res.Fatal != tt.fatal {
					t.Errorf("Fatal = %v, want %v", res.Fatal, tt.fatal)
				}
				if tt.fatal && res.FatalMessage != "negative input" {
					t.Errorf("FatalMessage = %q", res.FatalMessage)
				}
			}
		})
	}
}

func TestSum_DynamicVector(t *testing.T) {
	params := transcoder.Signature{transcoder.ScalarSlot("n"), transcoder.DynamicVectorSlot("v", 0)}
	reg := bind(t, newEngine(t, nil), "sum", params, scalarOut)

	raw := transcoder.Raw{
		transcoder.ScalarRegion(3),
		transcoder.NewRegion(transcoder.KindDynamicVector, 1, 2, 3),
	}
	res, err := reg.Invoke(context.Background(), "sum", raw)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	// The guest sums the whole input buffer, size scalar included.
	if res.Values[0] != transcoder.Scalar(9) {
		t.Errorf("sum = %v, want 9", res.Values[0])
	}
}

func TestEcho(t *testing.T) {
	tests := []struct {
		name    string
		params  transcoder.Signature
		returns transcoder.Signature
		region  transcoder.Region
	}{
		{
			"timeseries",
			transcoder.Signature{transcoder.TimeSeriesSlot("s", 0)},
			transcoder.Signature{transcoder.TimeSeriesSlot("s", 4)},
			transcoder.NewRegion(transcoder.KindTimeSeries, 3, 0, 1, 2, 0, 0, 5, 6, 7, 42, 1),
		},
		{
			"table",
			transcoder.Signature{transcoder.TableSlot("t", 2, 0)},
			transcoder.Signature{transcoder.TableSlot("t", 2, 32)},
			transcoder.NewRegion(transcoder.KindLookupTable, 2, 2, 2, 0, 1, 10, 20, 1, 2, 3, 4),
		},
		{
			"dynamic matrix",
			transcoder.Signature{transcoder.ScalarSlot("r"), transcoder.ScalarSlot("c"), transcoder.DynamicMatrixSlot("m", 0, 1)},
			transcoder.Signature{transcoder.ScalarSlot("r"), transcoder.ScalarSlot("c"), transcoder.DynamicMatrixSlot("m", 0, 1)},
			transcoder.NewRegion(transcoder.KindDynamicMatrix, 1, 2, 3, 4, 5, 6),
		},
	}

	e := newEngine(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := bind(t, e, "echo", tt.params, tt.returns)
			raw := transcoder.Raw{tt.region}
			if len(tt.params) == 3 {
				raw = transcoder.Raw{transcoder.ScalarRegion(2), transcoder.ScalarRegion(3), tt.region}
			}
			res, err := reg.Invoke(context.Background(), "echo", raw)
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			got, err := transcoder.JoinFlat(res.Outputs)
			if err != nil {
				t.Fatal(err)
			}
			want, _ := transcoder.JoinFlat(raw)
			if len(got) != len(want) {
				t.Fatalf("outputs = %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("outputs = %v, want %v", got, want)
				}
			}
		})
	}
}

func TestCall_Failures(t *testing.T) {
	tests := []struct {
		export   string
		target   error
		contains string
	}{
		{"fail", errors.ErrApplication, "status -1"},
		{"trap", errors.ErrApplication, "unreachable"},
		{"short", errors.ErrOutputContract, "return signature"},
		{"overflow", errors.ErrOutputContract, "output buffer"},
	}

	e := newEngine(t, nil)
	for _, tt := range tests {
		t.Run(tt.export, func(t *testing.T) {
			reg := bind(t, e, tt.export, scalarIn, scalarOut)
			res, err := reg.Invoke(context.Background(), tt.export, transcoder.Raw{transcoder.ScalarRegion(1)})
			if !stderrors.Is(err, tt.target) {
				t.Fatalf("error = %v, want %v", err, tt.target)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.contains)
			}
			if !res.Fatal {
				t.Error("call not marked fatal")
			}
		})
	}
}

func TestCall_ExtraOutputs(t *testing.T) {
	e := newEngine(t, nil)
	params := transcoder.Signature{transcoder.ScalarSlot("x"), transcoder.VectorSlot("v", 3)}
	returns := transcoder.Signature{transcoder.ScalarSlot("y"), transcoder.DynamicVectorSlot("w", 0)}

	// echo reports all four input elements; y and w[x=1] account for two.
	reg := bind(t, e, "echo", params, returns)
	res, err := reg.Invoke(context.Background(), "echo", transcoder.Raw{
		transcoder.ScalarRegion(1),
		transcoder.NewRegion(transcoder.KindFixedVector, 7, 8, 9),
	})
	if !stderrors.Is(err, errors.ErrOutputContract) {
		t.Fatalf("error = %v, want output contract", err)
	}
	if !strings.Contains(err.Error(), "declared 2 elements, got 4 elements") {
		t.Errorf("error %q does not name both counts", err.Error())
	}
	if !res.Fatal {
		t.Error("call not marked fatal")
	}
}

func TestCall_Cancelled(t *testing.T) {
	e := newEngine(t, nil)
	f, err := e.Load(context.Background(), guest(t), "process_data", scalarIn, scalarOut)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Call(ctx, bridge.NewCall("process_data", nil), []transcoder.Value{transcoder.Scalar(1)}); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestCall_WithoutBridge(t *testing.T) {
	e := newEngine(t, nil)
	f, err := e.Load(context.Background(), guest(t), "process_data", scalarIn, scalarOut)
	if err != nil {
		t.Fatal(err)
	}
	// Host imports fall back to the package logger.
	out, err := f.Call(context.Background(), nil, []transcoder.Value{transcoder.Scalar(-2)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out[0] != transcoder.Scalar(0) {
		t.Errorf("out = %v", out)
	}
}

func TestMemoryWrapper(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	compiled, err := e.runtime.CompileModule(ctx, guest(t))
	if err != nil {
		t.Fatal(err)
	}
	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazeroConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer mod.Close(ctx)

	mem := wrapMemory(mod.Memory())
	if mem.Size() != 65536 {
		t.Errorf("Size = %d", mem.Size())
	}
	if err := mem.WriteF64(2048, 1.25); err != nil {
		t.Fatal(err)
	}
	if v, err := mem.ReadF64(2048); err != nil || v != 1.25 {
		t.Errorf("ReadF64 = %v, %v", v, err)
	}
	if b, err := mem.Read(16, 8); err != nil || string(b) != "positive" {
		t.Errorf("Read = %q, %v", b, err)
	}
	if _, err := mem.Read(65530, 16); err == nil {
		t.Error("expected out of bounds read error")
	}
	if err := mem.Write(65530, make([]byte, 16)); err == nil {
		t.Error("expected out of bounds write error")
	}
	if _, err := mem.ReadF64(65532); err == nil {
		t.Error("expected out of bounds ReadF64 error")
	}

	alloc := &allocator{ctx: ctx, fn: mod.ExportedFunction(AllocExport)}
	p1, err := alloc.Alloc(3, 8)
	if err != nil {
		t.Fatal(err)
	}
	p2, _ := alloc.Alloc(8, 8)
	if p1%8 != 0 || p2%8 != 0 || p2 < p1+3 {
		t.Errorf("allocations %d, %d", p1, p2)
	}

	ptr, err := transcoder.StoreFlat(mem, alloc, []float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	back, err := transcoder.LoadFlat(mem, ptr, 3)
	if err != nil || back[2] != 3 {
		t.Errorf("LoadFlat = %v, %v", back, err)
	}
}

func wazeroConfig() wazero.ModuleConfig {
	return wazero.NewModuleConfig().WithName("")
}
