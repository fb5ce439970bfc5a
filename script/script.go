package script

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/wippyai/simbridge/bridge"
	"github.com/wippyai/simbridge/callback"
	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.uber.org/zap"
)

// Option configures a loaded script.
type Option func(*Function)

// WithMaxSteps bounds the number of execution steps of one call.
// Zero means unbounded.
func WithMaxSteps(n uint64) Option {
	return func(f *Function) { f.maxSteps = n }
}

// Function is a callback implemented by a top-level Starlark function.
// The module globals are frozen after loading, so no state carries over
// from one call to the next.
type Function struct {
	fn       starlark.Callable
	globals  starlark.StringDict
	filename string
	name     string
	maxSteps uint64
}

var _ callback.Entry = (*Function)(nil)

// Load executes the script in filename and returns its top-level function.
// src may be nil, in which case the file is read; otherwise it is a
// string, []byte or io.Reader as accepted by starlark.ExecFile.
func Load(filename string, src any, function string, opts ...Option) (*Function, error) {
	f := &Function{filename: filename, name: function}
	for _, opt := range opts {
		opt(f)
	}

	thread := &starlark.Thread{
		Name: "load " + filename,
		Print: func(_ *starlark.Thread, msg string) {
			Logger().Debug(msg, zap.String("script", filename))
		},
	}
	globals, err := starlark.ExecFile(thread, filename, src, predeclared())
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("execute %s", filename), err)
	}
	globals.Freeze()

	v, ok := globals[function]
	if !ok {
		return nil, errors.Load(fmt.Sprintf("%s: function %q not defined", filename, function), nil)
	}
	fn, ok := v.(starlark.Callable)
	if !ok {
		return nil, errors.Load(fmt.Sprintf("%s: %q is a %s, not a function", filename, function, v.Type()), nil)
	}
	f.fn = fn
	f.globals = globals

	Logger().Debug("script loaded",
		zap.String("script", filename),
		zap.String("function", function),
		zap.Int("globals", len(globals)))
	return f, nil
}

func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"gspy":   gspy,
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	}
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

// Filename returns the script the function was loaded from.
func (f *Function) Filename() string { return f.filename }

// Binding binds the function under id.
func (f *Function) Binding(id string, params, returns transcoder.Signature) callback.Binding {
	return callback.Binding{ID: id, Params: params, Returns: returns, Entry: f}
}

// Call runs the function on a fresh thread. print output goes to the
// call's log channel at Debug level. The result must be a tuple with one
// element per return slot.
func (f *Function) Call(ctx context.Context, call *bridge.Call, args []transcoder.Value) ([]transcoder.Value, error) {
	thread := &starlark.Thread{
		Name: f.name,
		Print: func(_ *starlark.Thread, msg string) {
			call.Log(msg, bridge.LevelDebug)
		},
	}
	thread.SetLocal(callLocal, call)
	if f.maxSteps > 0 {
		thread.SetMaxExecutionSteps(f.maxSteps)
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	sargs := make(starlark.Tuple, len(args))
	for i, a := range args {
		v, err := toStarlark(a)
		if err != nil {
			return nil, err
		}
		sargs[i] = v
	}

	out, err := starlark.Call(thread, f.fn, sargs, nil)
	if err != nil {
		var ee *starlark.EvalError
		if stderrors.As(err, &ee) {
			call.Log(ee.Backtrace(), bridge.LevelDebug)
		}
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}

	tuple, ok := out.(starlark.Tuple)
	if !ok {
		return nil, errors.OutputContract([]string{"outputs"}, "tuple", out.Type(),
			fmt.Sprintf("%s must return a tuple", f.name))
	}
	values := make([]transcoder.Value, len(tuple))
	for i, v := range tuple {
		tv, err := fromStarlark(v, []string{"outputs[" + strconv.Itoa(i) + "]"})
		if err != nil {
			return nil, err
		}
		values[i] = tv
	}
	return values, nil
}
