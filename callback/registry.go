package callback

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/wippyai/simbridge/bridge"
	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder"
	"go.uber.org/zap"
)

// Result is the outcome of one invocation.
type Result struct {
	CallID       string
	FatalMessage string
	Outputs      transcoder.Raw
	Inputs       []transcoder.Value
	Values       []transcoder.Value
	Entries      []bridge.Entry
	Fatal        bool
}

// Observer is notified around every invocation. Observe returns the
// context passed to the entry and a function called with the outcome.
type Observer interface {
	Observe(ctx context.Context, callbackID string) (context.Context, func(*Result, error))
}

// Option configures a Registry.
type Option func(*Registry)

// WithSink routes every call's log channel to s.
func WithSink(s bridge.Sink) Option {
	return func(r *Registry) { r.sink = s }
}

// WithObserver adds an invocation observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observers = append(r.observers, o) }
}

// Registry maps callback ids to bindings and runs invocations.
type Registry struct {
	sink      bridge.Sink
	bindings  map[string]*Binding
	decoder   *transcoder.Decoder
	encoder   *transcoder.Encoder
	observers []Observer
	mu        sync.RWMutex
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		bindings: make(map[string]*Binding),
		decoder:  transcoder.NewDecoder(),
		encoder:  transcoder.NewEncoder(),
		sink:     bridge.Nop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind validates b and stores it, replacing any binding with the same id.
func (r *Registry) Bind(b Binding) error {
	if b.ID == "" {
		return errors.Binding("callback id cannot be empty")
	}
	if b.Entry == nil {
		return errors.Binding("callback %q has no entry point", b.ID)
	}
	if err := b.Params.Validate(); err != nil {
		return err
	}
	if err := b.Returns.ValidateReturns(b.Params); err != nil {
		return err
	}

	r.mu.Lock()
	r.bindings[b.ID] = &b
	r.mu.Unlock()

	Logger().Debug("callback bound",
		zap.String("callback", b.ID),
		zap.Stringer("params", b.Params),
		zap.Stringer("returns", b.Returns))
	return nil
}

// Unbind removes id and reports whether it was bound.
func (r *Registry) Unbind(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bindings[id]
	delete(r.bindings, id)
	return ok
}

// Lookup returns the binding for id.
func (r *Registry) Lookup(id string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[id]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// IDs returns the bound ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.bindings))
	for id := range r.bindings {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Invoke runs callback id on raw arguments.
//
// Binding, decode and output contract errors are returned as is and are
// always fatal, including those raised by the entry itself. Any other
// callback error without values is logged, escalated and returned as an
// application error. A callback that signals fatal through
// its bridge still has its outputs encoded; Result.Fatal reports it.
//
// Once the call has started, the returned Result is non-nil even on error.
func (r *Registry) Invoke(ctx context.Context, id string, raw transcoder.Raw) (res *Result, err error) {
	for _, o := range r.observers {
		var done func(*Result, error)
		ctx, done = o.Observe(ctx, id)
		defer func() { done(res, err) }()
	}

	b, ok := r.Lookup(id)
	if !ok {
		return nil, errors.Binding("unknown callback %q", id)
	}
	if len(raw) != len(b.Params) {
		return nil, errors.New(errors.PhaseBind, errors.KindBinding).
			Declared(strconv.Itoa(len(b.Params)) + " arguments").
			Actual(strconv.Itoa(len(raw))).
			Detail("callback %q", id).
			Build()
	}

	args, err := r.decoder.Decode(b.Params, raw)
	if err != nil {
		return nil, err
	}

	call := bridge.NewCall(id, r.sink)
	res = &Result{CallID: call.ID(), Inputs: args}
	defer func() {
		res.Entries = call.Entries()
		res.FatalMessage, res.Fatal = call.Fatal()
	}()

	values, cerr := run(bridge.WithCall(ctx, call), b.Entry, call, args)
	if cerr != nil {
		call.Log(fmt.Sprintf("callback %q failed: %v", id, cerr), bridge.LevelError)
		if values == nil {
			call.SignalFatal(cerr.Error())
			switch errors.KindOf(cerr) {
			case errors.KindOutputContract, errors.KindBinding, errors.KindInstantiation:
				return res, cerr
			}
			return res, errors.Application(id, cerr)
		}
	}

	out, err := r.encoder.Encode(b.Returns, args, values)
	if err != nil {
		call.SignalFatal(err.Error())
		return res, err
	}
	res.Outputs = out
	res.Values = values

	if msg, fatal := call.Fatal(); fatal {
		Logger().Warn("callback signalled fatal",
			zap.String("callback", id),
			zap.String("call_id", call.ID()),
			zap.String("message", msg))
	}
	return res, nil
}

// run calls the entry, turning a panic into an error.
func run(ctx context.Context, e Entry, call *bridge.Call, args []transcoder.Value) (values []transcoder.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			values = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return e.Call(ctx, call, args)
}
