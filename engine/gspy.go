package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/simbridge/bridge"
	"go.uber.org/zap"
)

// HostModule is the import module name guests use for the log and
// escalation channels.
const HostModule = "gspy"

var (
	logParams   = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32}
	errorParams = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
)

// instantiateHost registers gspy.log(ptr, len, level) and
// gspy.error(ptr, len). Both resolve the current call from the context
// the guest export was invoked with.
func instantiateHost(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	return r.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(hostLog), logParams, nil).
		WithParameterNames("ptr", "len", "level").
		Export("log").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(hostError), errorParams, nil).
		WithParameterNames("ptr", "len").
		Export("error").
		Instantiate(ctx)
}

func guestString(mod api.Module, ptr, length uint64) (string, bool) {
	b, ok := mod.Memory().Read(uint32(ptr), uint32(length))
	if !ok {
		return "", false
	}
	return string(b), true
}

func hostLog(ctx context.Context, mod api.Module, stack []uint64) {
	msg, ok := guestString(mod, stack[0], stack[1])
	level := bridge.Level(int32(uint32(stack[2])))
	if !ok {
		msg = "<log message out of bounds>"
		level = bridge.LevelError
	}
	call, found := bridge.FromContext(ctx)
	if !found {
		Logger().Check(level.Normalize().ZapLevel(), msg).Write(zap.String("module", mod.Name()))
		return
	}
	call.Log(msg, level)
}

func hostError(ctx context.Context, mod api.Module, stack []uint64) {
	msg, ok := guestString(mod, stack[0], stack[1])
	if !ok {
		msg = "<error message out of bounds>"
	}
	call, found := bridge.FromContext(ctx)
	if !found {
		Logger().Error("fatal signalled outside a call", zap.String("message", msg))
		return
	}
	call.SignalFatal(msg)
}
