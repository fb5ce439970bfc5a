package host

import (
	"context"
	"fmt"

	"github.com/wippyai/simbridge/callback"
	"github.com/wippyai/simbridge/config"
	"github.com/wippyai/simbridge/engine"
	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/script"
	"go.uber.org/zap"
)

// bindingSet is everything built from one config: the registry and the
// guest engine backing its wasm callbacks, if any.
type bindingSet struct {
	cfg      *config.File
	registry *callback.Registry
	engine   *engine.Engine
}

func (h *Host) build(ctx context.Context, cfg *config.File, opts ...callback.Option) (*bindingSet, error) {
	set := &bindingSet{
		cfg:      cfg,
		registry: callback.NewRegistry(opts...),
	}

	for _, c := range cfg.Callbacks {
		b, err := h.bind(ctx, set, c)
		if err != nil {
			set.close(ctx)
			return nil, fmt.Errorf("callback %q: %w", c.ID, err)
		}
		if err := set.registry.Bind(b); err != nil {
			set.close(ctx)
			return nil, fmt.Errorf("callback %q: %w", c.ID, err)
		}
		Logger().Debug("callback ready",
			zap.String("callback", c.ID),
			zap.String("backend", c.Backend))
	}
	return set, nil
}

func (h *Host) bind(ctx context.Context, set *bindingSet, c config.Callback) (callback.Binding, error) {
	params, returns, err := c.Signatures()
	if err != nil {
		return callback.Binding{}, err
	}

	switch c.Backend {
	case config.BackendGo:
		entry, ok := h.natives[c.Function()]
		if !ok {
			return callback.Binding{}, errors.Binding("no native function %q registered", c.Function())
		}
		return callback.Binding{ID: c.ID, Params: params, Returns: returns, Entry: entry}, nil

	case config.BackendStarlark:
		fn, err := script.Load(set.cfg.ScriptPath(c), nil, c.Function(), script.WithMaxSteps(set.cfg.Engine.MaxSteps))
		if err != nil {
			return callback.Binding{}, err
		}
		return fn.Binding(c.ID, params, returns), nil

	case config.BackendWasm:
		if set.engine == nil {
			set.engine, err = engine.New(ctx, &engine.Config{
				MemoryLimitPages: set.cfg.Engine.MemoryLimitPages,
				OutputCapacity:   set.cfg.Engine.OutputCapacity,
			})
			if err != nil {
				return callback.Binding{}, err
			}
		}
		fn, err := set.engine.LoadFile(ctx, set.cfg.ScriptPath(c), c.Function(), params, returns)
		if err != nil {
			return callback.Binding{}, err
		}
		return fn.Binding(c.ID), nil
	}
	return callback.Binding{}, errors.Unsupported(errors.PhaseBind, "backend "+c.Backend)
}

// close releases the guest engine and every module compiled on it.
func (s *bindingSet) close(ctx context.Context) {
	if s == nil || s.engine == nil {
		return
	}
	if err := s.engine.Close(ctx); err != nil {
		Logger().Warn("failed to close engine", zap.Error(err))
	}
	s.engine = nil
}
