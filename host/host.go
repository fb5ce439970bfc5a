package host

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	simbridge "github.com/wippyai/simbridge"
	"github.com/wippyai/simbridge/bridge"
	"github.com/wippyai/simbridge/callback"
	"github.com/wippyai/simbridge/config"
	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder"
	"go.uber.org/zap"
)

// Method selects what a Dispatch call does.
type Method int

const (
	MethodInitialize      Method = 0
	MethodCalculate       Method = 1
	MethodReportVersion   Method = 2
	MethodReportArguments Method = 3
	MethodCleanup         Method = 99
)

var methodNames = map[Method]string{
	MethodInitialize:      "initialize",
	MethodCalculate:       "calculate",
	MethodReportVersion:   "report_version",
	MethodReportArguments: "report_arguments",
	MethodCleanup:         "cleanup",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "method(" + strconv.Itoa(int(m)) + ")"
}

// Status is the result code of a Dispatch call.
type Status int

const (
	StatusOK      Status = 0
	StatusFailure Status = 1
	StatusFatal   Status = -1
)

// Option configures a Host.
type Option func(*Host)

// WithNative registers a Go implementation for callbacks with backend go.
// Callbacks reference it by function_name, or by id when none is given.
func WithNative(name string, e callback.Entry) Option {
	return func(h *Host) { h.natives[name] = e }
}

// WithConfig uses cfg instead of reading the binding file. The path given
// to New still names the log file and is watched by Watch.
func WithConfig(cfg *config.File) Option {
	return func(h *Host) { h.preset = cfg }
}

// WithLogFile overrides the log file location.
func WithLogFile(path string) Option {
	return func(h *Host) { h.logPath = path }
}

// WithSink sends call log entries to s in addition to the log file.
func WithSink(s bridge.Sink) Option {
	return func(h *Host) { h.sink = s }
}

// WithObserver adds an invocation observer to every registry the host
// builds.
func WithObserver(o callback.Observer) Option {
	return func(h *Host) { h.observers = append(h.observers, o) }
}

// WithReloadHook calls fn after every reload started by Watch, with the
// new config or the error that kept the current one.
func WithReloadHook(fn func(*config.File, error)) Option {
	return func(h *Host) { h.onReload = fn }
}

// Host is the simulation-facing entry point. It loads a binding file,
// builds the callbacks it names, and runs them on flat double buffers.
// Calls are serialized; a reload swaps bindings between calls.
type Host struct {
	natives   map[string]callback.Entry
	preset    *config.File
	set       *bindingSet
	logFile   *bridge.LogFile
	sink      bridge.Sink
	onReload  func(*config.File, error)
	err       error
	log       atomic.Pointer[zap.Logger]
	path      string
	logPath   string
	observers []callback.Observer
	mu        sync.Mutex
}

// New creates a host for the binding file at path. Nothing is loaded
// until Initialize.
func New(path string, opts ...Option) *Host {
	h := &Host{
		path:    path,
		natives: make(map[string]callback.Entry),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Host) logger() *zap.Logger {
	if l := h.log.Load(); l != nil {
		return l
	}
	return Logger()
}

// Dispatch runs one host method. in and out are the host's argument and
// result buffers. A fatal status leaves the error in Err.
func (h *Host) Dispatch(ctx context.Context, method Method, in, out []float64) Status {
	h.logger().Debug("called", zap.Stringer("method", method))

	var err error
	switch method {
	case MethodInitialize:
		err = h.Initialize(ctx)
	case MethodCalculate:
		err = h.Calculate(ctx, in, out)
	case MethodReportVersion:
		err = h.ReportVersion(out)
	case MethodReportArguments:
		err = h.ReportArguments(ctx, out)
	case MethodCleanup:
		err = h.Close(ctx)
	default:
		h.logger().Warn("unknown method", zap.Int("method", int(method)))
		return StatusFailure
	}

	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	if err != nil {
		h.logger().Error("method failed", zap.Stringer("method", method), zap.Error(err))
		return StatusFatal
	}
	return StatusOK
}

// Err returns the error of the last dispatched method, nil if it succeeded.
func (h *Host) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Initialize loads the binding file, opens the log file and builds every
// callback. It is a no-op once initialized.
func (h *Host) Initialize(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialize(ctx)
}

func (h *Host) initialize(ctx context.Context) error {
	if h.set != nil {
		return nil
	}

	cfg := h.preset
	if cfg == nil {
		var err error
		if cfg, err = config.Load(h.path); err != nil {
			h.openLog(nil)
			return err
		}
	}
	h.openLog(cfg)

	set, err := h.build(ctx, cfg, h.registryOptions()...)
	if err != nil {
		return err
	}
	h.set = set

	h.logger().Info("initialized",
		zap.String("config", h.path),
		zap.Int("callbacks", len(cfg.Callbacks)),
		zap.String("default", cfg.Default().ID))
	return nil
}

func (h *Host) openLog(cfg *config.File) {
	level := bridge.LevelInfo
	if cfg != nil {
		level = cfg.Level()
	}
	if h.logFile != nil {
		h.logFile.SetLevel(level)
		return
	}
	path := h.logPath
	if path == "" {
		path = config.LogFilename(h.path, cfg)
	}
	h.logFile = bridge.OpenLogFile(path, level)
	h.log.Store(h.logFile.Logger())
}

func (h *Host) registryOptions() []callback.Option {
	sink := h.logFile.Sink()
	if h.sink != nil {
		sink = bridge.Tee(sink, h.sink)
	}
	opts := []callback.Option{callback.WithSink(sink)}
	for _, o := range h.observers {
		opts = append(opts, callback.WithObserver(o))
	}
	return opts
}

// Calculate runs the default callback on in and writes its outputs to out.
func (h *Host) Calculate(ctx context.Context, in, out []float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	flat, _, err := h.invoke(ctx, "", in)
	if flat != nil {
		if len(flat) > len(out) {
			return errors.OutputContract([]string{"outputs"},
				fmt.Sprintf("at most %d elements", len(out)),
				fmt.Sprintf("%d elements", len(flat)),
				"host output buffer too small")
		}
		copy(out, flat)
	}
	return err
}

// Invoke runs callback id, or the default callback when id is empty, on a
// flat input buffer. It returns the flat outputs and the call's result.
// A callback that signalled fatal still has its outputs returned, with an
// application error.
func (h *Host) Invoke(ctx context.Context, id string, in []float64) ([]float64, *callback.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.invoke(ctx, id, in)
}

func (h *Host) invoke(ctx context.Context, id string, in []float64) ([]float64, *callback.Result, error) {
	if h.set == nil {
		return nil, nil, errors.NotInitialized(errors.PhaseHost, "host")
	}
	if id == "" {
		id = h.set.cfg.Default().ID
	}
	b, ok := h.set.registry.Lookup(id)
	if !ok {
		return nil, nil, errors.Binding("unknown callback %q", id)
	}

	raw, err := transcoder.SplitFlat(b.Params, in, nil)
	if err != nil {
		return nil, nil, err
	}
	res, err := h.set.registry.Invoke(ctx, id, raw)
	if err != nil {
		return nil, res, err
	}
	flat, err := transcoder.JoinFlat(res.Outputs)
	if err != nil {
		return nil, res, err
	}
	if res.Fatal {
		return flat, res, errors.New(errors.PhaseCallback, errors.KindApplication).
			Detail("callback %q signalled fatal: %s", id, res.FatalMessage).
			Build()
	}
	return flat, res, nil
}

// ReportVersion writes the library version number to out[0].
func (h *Host) ReportVersion(out []float64) error {
	if len(out) < 1 {
		return errors.InvalidInput(errors.PhaseHost, "report version needs 1 output element")
	}
	out[0] = simbridge.VersionNumber
	return nil
}

// ReportArguments initializes the host if needed and writes the default
// callback's input count and output capacity to out[0] and out[1]. Either
// is -1 when it varies per call.
func (h *Host) ReportArguments(ctx context.Context, out []float64) error {
	if len(out) < 2 {
		return errors.InvalidInput(errors.PhaseHost, "report arguments needs 2 output elements")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.initialize(ctx); err != nil {
		return err
	}
	b, ok := h.set.registry.Lookup(h.set.cfg.Default().ID)
	if !ok {
		return errors.NotFound(errors.PhaseHost, "callback", h.set.cfg.Default().ID)
	}
	out[0] = float64(transcoder.InputCount(b.Params))
	out[1] = float64(transcoder.OutputCapacity(b.Returns))
	return nil
}

// Config returns the active binding file, nil before Initialize.
func (h *Host) Config() *config.File {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.set == nil {
		return nil
	}
	return h.set.cfg
}

// Reload rebuilds every callback from cfg and swaps them in. On failure
// the current callbacks stay active.
func (h *Host) Reload(ctx context.Context, cfg *config.File) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.set == nil {
		return errors.NotInitialized(errors.PhaseHost, "host")
	}

	set, err := h.build(ctx, cfg, h.registryOptions()...)
	if err != nil {
		h.logger().Error("reload failed, keeping current callbacks", zap.Error(err))
		return err
	}
	old := h.set
	h.set = set
	old.close(ctx)
	h.logFile.SetLevel(cfg.Level())

	h.logger().Info("reloaded",
		zap.Int("callbacks", len(cfg.Callbacks)),
		zap.String("default", cfg.Default().ID))
	return nil
}

// Watch reloads the binding file whenever it changes until ctx is done.
func (h *Host) Watch(ctx context.Context) error {
	return config.Watch(ctx, h.path, func(cfg *config.File, err error) {
		if err == nil {
			err = h.Reload(ctx, cfg)
		} else {
			h.logger().Error("config reload failed", zap.Error(err))
		}
		if h.onReload != nil {
			if err != nil {
				cfg = nil
			}
			h.onReload(cfg, err)
		}
	})
}

// Close releases every callback and the log file. The host can be
// initialized again afterwards.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.set.close(ctx)
	h.set = nil
	if h.logFile == nil {
		return nil
	}
	h.logFile.Logger().Info("cleanup")
	h.log.Store(nil)
	err := h.logFile.Close()
	h.logFile = nil
	return err
}
