package callback

import (
	"context"

	"github.com/wippyai/simbridge/bridge"
	"github.com/wippyai/simbridge/transcoder"
)

// Entry is a callback body. It receives the decoded arguments and the
// call's bridge and returns one value per declared return slot.
//
// Returning an error together with values is a graceful fallback: the
// error is logged and the values are encoded. Returning an error without
// values escalates the call to fatal.
type Entry interface {
	Call(ctx context.Context, call *bridge.Call, args []transcoder.Value) ([]transcoder.Value, error)
}

// Func adapts a Go function to Entry.
type Func func(ctx context.Context, call *bridge.Call, args []transcoder.Value) ([]transcoder.Value, error)

func (f Func) Call(ctx context.Context, call *bridge.Call, args []transcoder.Value) ([]transcoder.Value, error) {
	return f(ctx, call, args)
}

// Binding ties a callback id to its signatures and entry point.
type Binding struct {
	Entry   Entry
	ID      string
	Params  transcoder.Signature
	Returns transcoder.Signature
}

// Graceful logs err at Error level and returns fallback, which must match
// the return signature. The call is not marked fatal.
func Graceful(call *bridge.Call, err error, fallback []transcoder.Value) []transcoder.Value {
	call.Log(err.Error(), bridge.LevelError)
	return fallback
}

// Escalate logs err at Error level, marks the call fatal and returns
// placeholder so the output contract still holds.
func Escalate(call *bridge.Call, err error, placeholder []transcoder.Value) []transcoder.Value {
	call.Log(err.Error(), bridge.LevelError)
	call.SignalFatal(err.Error())
	return placeholder
}
