package script

import (
	"github.com/wippyai/simbridge/bridge"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.uber.org/zap"
)

const callLocal = "simbridge.call"

// gspy is the module scripts use to reach the call's log and escalation
// channels:
//
//	gspy.log(message, level=2)
//	gspy.error(message)
var gspy = &starlarkstruct.Module{
	Name: "gspy",
	Members: starlark.StringDict{
		"log":   starlark.NewBuiltin("log", gspyLog),
		"error": starlark.NewBuiltin("error", gspyError),
	},
}

func callOf(thread *starlark.Thread) *bridge.Call {
	c, _ := thread.Local(callLocal).(*bridge.Call)
	return c
}

func gspyLog(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var msg string
	level := int(bridge.LevelInfo)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "message", &msg, "level?", &level); err != nil {
		return nil, err
	}

	if c := callOf(thread); c != nil {
		c.Log(msg, bridge.Level(level))
	} else {
		Logger().Check(bridge.Level(level).ZapLevel(), msg).Write(zap.String("thread", thread.Name))
	}
	return starlark.None, nil
}

func gspyError(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var msg string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "message", &msg); err != nil {
		return nil, err
	}

	if c := callOf(thread); c != nil {
		c.SignalFatal(msg)
	} else {
		Logger().Error("fatal signalled outside a call", zap.String("message", msg))
	}
	return starlark.None, nil
}
