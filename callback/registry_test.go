package callback

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/wippyai/simbridge/bridge"
	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder"
)

func scalarBinding(id string, fn Func) Binding {
	return Binding{
		ID:      id,
		Params:  transcoder.Signature{transcoder.ScalarSlot("x")},
		Returns: transcoder.Signature{transcoder.ScalarSlot("y")},
		Entry:   fn,
	}
}

func double(_ context.Context, _ *bridge.Call, args []transcoder.Value) ([]transcoder.Value, error) {
	return []transcoder.Value{args[0].(transcoder.Scalar) * 2}, nil
}

func TestRegistry_Bind(t *testing.T) {
	tests := []struct {
		name    string
		binding Binding
		target  error
	}{
		{"ok", scalarBinding("double", double), nil},
		{"empty id", scalarBinding("", double), errors.ErrBinding},
		{"nil entry", Binding{ID: "x"}, errors.ErrBinding},
		{
			"bad param ref",
			Binding{
				ID:     "x",
				Params: transcoder.Signature{transcoder.DynamicVectorSlot("v", 0)},
				Entry:  Func(double),
			},
			errors.ErrShape,
		},
		{
			"bad return ref",
			Binding{
				ID:      "x",
				Params:  transcoder.Signature{transcoder.ScalarSlot("n")},
				Returns: transcoder.Signature{transcoder.DynamicVectorSlot("v", 3)},
				Entry:   Func(double),
			},
			errors.ErrShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Bind(tt.binding)
			if tt.target == nil {
				if err != nil {
					t.Fatalf("Bind: %v", err)
				}
				return
			}
			if !stderrors.Is(err, tt.target) {
				t.Fatalf("err = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestRegistry_LookupUnbindIDs(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"b", "a", "c"} {
		if err := r.Bind(scalarBinding(id, double)); err != nil {
			t.Fatal(err)
		}
	}

	ids := r.IDs()
	if fmt.Sprint(ids) != "[a b c]" {
		t.Errorf("IDs = %v", ids)
	}
	if _, ok := r.Lookup("b"); !ok {
		t.Error("Lookup(b) missing")
	}
	if !r.Unbind("b") || r.Unbind("b") {
		t.Error("Unbind should succeed once")
	}
	if _, ok := r.Lookup("b"); ok {
		t.Error("b still bound")
	}
}

func TestRegistry_Rebind(t *testing.T) {
	r := NewRegistry()
	_ = r.Bind(scalarBinding("f", double))
	_ = r.Bind(scalarBinding("f", func(context.Context, *bridge.Call, []transcoder.Value) ([]transcoder.Value, error) {
		return []transcoder.Value{transcoder.Scalar(-1)}, nil
	}))

	res, err := r.Invoke(context.Background(), "f", transcoder.Raw{transcoder.ScalarRegion(4)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Values[0] != transcoder.Scalar(-1) {
		t.Errorf("rebind not applied: %v", res.Values[0])
	}
}

func TestRegistry_Invoke(t *testing.T) {
	r := NewRegistry()
	if err := r.Bind(scalarBinding("double", double)); err != nil {
		t.Fatal(err)
	}

	res, err := r.Invoke(context.Background(), "double", transcoder.Raw{transcoder.ScalarRegion(21)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Values[0] != transcoder.Scalar(42) {
		t.Errorf("value = %v", res.Values[0])
	}
	if len(res.Outputs) != 1 || res.Outputs[0].Kind != transcoder.KindScalar {
		t.Errorf("outputs = %+v", res.Outputs)
	}
	if res.Fatal || res.CallID == "" {
		t.Errorf("fatal=%v id=%q", res.Fatal, res.CallID)
	}
}

func TestRegistry_InvokeErrors(t *testing.T) {
	r := NewRegistry()
	_ = r.Bind(scalarBinding("double", double))
	_ = r.Bind(Binding{
		ID: "dyn",
		Params: transcoder.Signature{
			transcoder.ScalarSlot("n"),
			transcoder.ScalarSlot("k"),
			transcoder.DynamicVectorSlot("v", 0),
		},
		Entry: Func(func(context.Context, *bridge.Call, []transcoder.Value) ([]transcoder.Value, error) {
			return []transcoder.Value{}, nil
		}),
	})

	tests := []struct {
		name   string
		id     string
		raw    transcoder.Raw
		target error
	}{
		{"unknown id", "nope", transcoder.Raw{transcoder.ScalarRegion(1)}, errors.ErrBinding},
		{"arity", "double", transcoder.Raw{}, errors.ErrBinding},
		{"decode", "double", transcoder.Raw{transcoder.NewRegion(transcoder.KindScalar, 1, 2)}, errors.ErrShapeMismatch},
		{
			"dynamic short",
			"dyn",
			transcoder.Raw{
				transcoder.ScalarRegion(3),
				transcoder.ScalarRegion(9),
				transcoder.NewRegion(transcoder.KindDynamicVector, 1, 2),
			},
			errors.ErrShapeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Invoke(context.Background(), tt.id, tt.raw)
			if !stderrors.Is(err, tt.target) {
				t.Fatalf("err = %v, want %v", err, tt.target)
			}
			if !errors.IsFatal(err) {
				t.Error("marshalling error should be fatal")
			}
			if res != nil {
				t.Error("result returned before the call started")
			}
		})
	}

	res, err := r.Invoke(context.Background(), "dyn", transcoder.Raw{
		transcoder.ScalarRegion(3),
		transcoder.ScalarRegion(9),
		transcoder.NewRegion(transcoder.KindDynamicVector, 1, 2, 3),
	})
	if err != nil || res == nil {
		t.Fatalf("dyn with matching length: %v", err)
	}
}

func TestRegistry_ApplicationFailure(t *testing.T) {
	capture := &bridge.Capture{}
	r := NewRegistry(WithSink(capture))
	_ = r.Bind(scalarBinding("fails", func(context.Context, *bridge.Call, []transcoder.Value) ([]transcoder.Value, error) {
		return nil, stderrors.New("division by zero")
	}))

	res, err := r.Invoke(context.Background(), "fails", transcoder.Raw{transcoder.ScalarRegion(1)})
	if !stderrors.Is(err, errors.ErrApplication) {
		t.Fatalf("err = %v, want application error", err)
	}
	if res == nil || !res.Fatal {
		t.Fatal("call not marked fatal")
	}
	if len(res.Entries) != 1 || res.Entries[0].Level != bridge.LevelError {
		t.Errorf("entries = %+v", res.Entries)
	}
	if len(capture.Entries()) != 1 {
		t.Error("sink did not receive the error entry")
	}
}

func TestRegistry_Panic(t *testing.T) {
	r := NewRegistry()
	_ = r.Bind(scalarBinding("panics", func(context.Context, *bridge.Call, []transcoder.Value) ([]transcoder.Value, error) {
		panic("index out of range")
	}))

	res, err := r.Invoke(context.Background(), "panics", transcoder.Raw{transcoder.ScalarRegion(1)})
	if !stderrors.Is(err, errors.ErrApplication) {
		t.Fatalf("err = %v, want application error", err)
	}
	if !res.Fatal {
		t.Error("panic not escalated")
	}
}

func TestRegistry_ErrorWithValuesIsGraceful(t *testing.T) {
	r := NewRegistry()
	_ = r.Bind(scalarBinding("soft", func(context.Context, *bridge.Call, []transcoder.Value) ([]transcoder.Value, error) {
		return []transcoder.Value{transcoder.Scalar(0)}, stderrors.New("sensor offline")
	}))

	res, err := r.Invoke(context.Background(), "soft", transcoder.Raw{transcoder.ScalarRegion(1)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Fatal {
		t.Error("graceful fallback marked fatal")
	}
	if len(res.Entries) != 1 || res.Entries[0].Level != bridge.LevelError {
		t.Errorf("entries = %+v", res.Entries)
	}
}

func TestRegistry_ArityViolation(t *testing.T) {
	returns := make(transcoder.Signature, 7)
	for i := range returns {
		returns[i] = transcoder.ScalarSlot(fmt.Sprintf("out%d", i))
	}
	r := NewRegistry()
	_ = r.Bind(Binding{
		ID:      "short",
		Params:  transcoder.Signature{transcoder.ScalarSlot("x")},
		Returns: returns,
		Entry: Func(func(context.Context, *bridge.Call, []transcoder.Value) ([]transcoder.Value, error) {
			return []transcoder.Value{
				transcoder.Scalar(1), transcoder.Scalar(2), transcoder.Scalar(3),
				transcoder.Scalar(4), transcoder.Scalar(5),
			}, nil
		}),
	})

	res, err := r.Invoke(context.Background(), "short", transcoder.Raw{transcoder.ScalarRegion(1)})
	if !stderrors.Is(err, errors.ErrOutputContract) {
		t.Fatalf("err = %v, want output contract violation", err)
	}
	if !errors.IsFatal(err) || !res.Fatal {
		t.Error("contract violation must be fatal")
	}
	if res.Outputs != nil {
		t.Error("outputs encoded despite violation")
	}
}

// processData mirrors a callback that rejects negative input with either
// a graceful fallback or an escalation.
func processData(escalate bool) Func {
	return func(_ context.Context, call *bridge.Call, args []transcoder.Value) ([]transcoder.Value, error) {
		x := args[0].(transcoder.Scalar)
		if x < 0 {
			err := stderrors.New("negative input")
			fallback := []transcoder.Value{transcoder.Scalar(0)}
			if escalate {
				return Escalate(call, err, fallback), nil
			}
			return Graceful(call, err, fallback), nil
		}
		return []transcoder.Value{x * 2}, nil
	}
}

func TestFailurePolicies(t *testing.T) {
	tests := []struct {
		name      string
		escalate  bool
		wantFatal bool
	}{
		{"graceful", false, false},
		{"escalate", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if err := r.Bind(scalarBinding("process_data", processData(tt.escalate))); err != nil {
				t.Fatal(err)
			}

			res, err := r.Invoke(context.Background(), "process_data", transcoder.Raw{transcoder.ScalarRegion(-1)})
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if len(res.Values) != 1 || res.Values[0] != transcoder.Scalar(0) {
				t.Errorf("values = %v, want (0.0,)", res.Values)
			}
			if len(res.Entries) != 1 || res.Entries[0].Level != bridge.LevelError {
				t.Errorf("entries = %+v", res.Entries)
			}
			if res.Fatal != tt.wantFatal {
				t.Errorf("Fatal = %v, want %v", res.Fatal, tt.wantFatal)
			}
			if tt.wantFatal && res.FatalMessage != "negative input" {
				t.Errorf("FatalMessage = %q", res.FatalMessage)
			}
		})
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	ids     []string
	results []*Result
	errs    []error
}

func (o *recordingObserver) Observe(ctx context.Context, id string) (context.Context, func(*Result, error)) {
	return ctx, func(res *Result, err error) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.ids = append(o.ids, id)
		o.results = append(o.results, res)
		o.errs = append(o.errs, err)
	}
}

func TestRegistry_Observer(t *testing.T) {
	obs := &recordingObserver{}
	r := NewRegistry(WithObserver(obs))
	_ = r.Bind(scalarBinding("double", double))

	_, _ = r.Invoke(context.Background(), "double", transcoder.Raw{transcoder.ScalarRegion(1)})
	_, _ = r.Invoke(context.Background(), "missing", nil)

	if len(obs.ids) != 2 || obs.ids[0] != "double" || obs.ids[1] != "missing" {
		t.Fatalf("ids = %v", obs.ids)
	}
	if obs.results[0] == nil || obs.errs[0] != nil {
		t.Error("first call outcome not observed")
	}
	if obs.errs[1] == nil {
		t.Error("second call error not observed")
	}
}

func TestRegistry_CallInContext(t *testing.T) {
	r := NewRegistry()
	_ = r.Bind(scalarBinding("ctx", func(ctx context.Context, call *bridge.Call, args []transcoder.Value) ([]transcoder.Value, error) {
		got, ok := bridge.FromContext(ctx)
		if !ok || got != call {
			return nil, stderrors.New("call missing from context")
		}
		return args, nil
	}))

	if _, err := r.Invoke(context.Background(), "ctx", transcoder.Raw{transcoder.ScalarRegion(1)}); err != nil {
		t.Fatal(err)
	}
}

func TestRegistry_ConcurrentBindLookup(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		id := fmt.Sprintf("cb%d", i)
		go func() {
			defer wg.Done()
			_ = r.Bind(scalarBinding(id, double))
		}()
		go func() {
			defer wg.Done()
			r.Lookup(id)
			r.IDs()
		}()
	}
	wg.Wait()

	if n := len(r.IDs()); n != 8 {
		t.Errorf("bound %d callbacks", n)
	}
}
