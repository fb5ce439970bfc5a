package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"github.com/wippyai/simbridge/config"
	"github.com/wippyai/simbridge/host"
	"github.com/wippyai/simbridge/telemetry"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type runOptions struct {
	scenario    string
	callback    string
	metricsAddr string
	inputs      []float64
	dt          float64
	start       float64
	steps       int
	plot        int
	json        bool
	watch       bool
	trace       bool
}

func newRunCmd(opts *options) *cobra.Command {
	ro := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "step a callback through a scenario or a fixed input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runCommand(ctx, cmd, opts, ro)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&ro.scenario, "scenario", "s", "", "scenario file (yaml)")
	f.Float64SliceVarP(&ro.inputs, "input", "i", nil, "flat input buffer used at every step")
	f.StringVar(&ro.callback, "callback", "", "callback id (default from the binding file)")
	f.IntVar(&ro.steps, "steps", 1, "number of steps when no scenario is given")
	f.Float64Var(&ro.dt, "dt", 1, "timestep when no scenario is given")
	f.Float64Var(&ro.start, "start", 0, "start time when no scenario is given")
	f.BoolVar(&ro.json, "json", false, "print the run as json")
	f.IntVar(&ro.plot, "plot", -1, "plot output element N over the run")
	f.StringVar(&ro.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	f.BoolVar(&ro.watch, "watch", false, "run again whenever the binding file changes")
	f.BoolVar(&ro.trace, "trace", false, "print a span per callback invocation to stderr")
	cmd.MarkFlagsMutuallyExclusive("scenario", "input")
	return cmd
}

func runCommand(ctx context.Context, cmd *cobra.Command, opts *options, ro *runOptions) error {
	cfg, src, err := ro.source()
	if err != nil {
		return err
	}

	var hostOpts []host.Option
	if ro.metricsAddr != "" {
		m := telemetry.NewMetrics("simbridge")
		hostOpts = append(hostOpts, host.WithObserver(m), host.WithSink(m.Sink()))
		srv := serveMetrics(ro.metricsAddr, m, cmd.ErrOrStderr())
		defer shutdown(srv)
	}
	if ro.trace {
		tr := telemetry.NewTracer(sdktrace.WithSpanProcessor(newSpanPrinter(cmd.ErrOrStderr())))
		defer tr.Shutdown(context.Background())
		hostOpts = append(hostOpts, host.WithObserver(tr))
	}

	reloaded := make(chan error, 1)
	if ro.watch {
		hostOpts = append(hostOpts, host.WithReloadHook(func(_ *config.File, err error) {
			select {
			case reloaded <- err:
			default:
			}
		}))
	}

	h := opts.newHost(hostOpts...)
	defer h.Close(context.Background())

	err = runOnce(ctx, cmd.OutOrStdout(), h, cfg, src, ro)
	if !ro.watch {
		return err
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "run failed: %v\n", err)
	}

	if err := h.Initialize(ctx); err != nil {
		return err
	}
	if err := h.Watch(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", opts.config)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-reloaded:
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "reload failed, keeping current callbacks: %v\n", err)
				continue
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "binding file reloaded")
			if err := runOnce(ctx, cmd.OutOrStdout(), h, cfg, src, ro); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "run failed: %v\n", err)
			}
		}
	}
}

// source builds the driver config and input source from the scenario file
// or the --input buffer.
func (ro *runOptions) source() (host.DriverConfig, host.Source, error) {
	if ro.scenario != "" {
		sc, err := host.LoadScenario(ro.scenario)
		if err != nil {
			return host.DriverConfig{}, nil, err
		}
		cfg := sc.Config()
		if ro.callback != "" {
			cfg.Callback = ro.callback
		}
		return cfg, sc.Source(), nil
	}
	if len(ro.inputs) == 0 {
		return host.DriverConfig{}, nil, fmt.Errorf("either --scenario or --input is required")
	}
	in := ro.inputs
	cfg := host.DriverConfig{Callback: ro.callback, Start: ro.start, Dt: ro.dt, Steps: ro.steps}
	return cfg, func(int, float64) ([]float64, error) {
		return append([]float64(nil), in...), nil
	}, nil
}

type report struct {
	Callback   string       `json:"callback"`
	Fatal      string       `json:"fatal,omitempty"`
	Error      string       `json:"error,omitempty"`
	Steps      []stepReport `json:"steps"`
	StepsTaken int          `json:"steps_taken"`
}

type stepReport struct {
	Inputs  []float64 `json:"inputs"`
	Outputs []float64 `json:"outputs"`
	Log     []logLine `json:"log,omitempty"`
	Time    float64   `json:"time"`
	Step    int       `json:"step"`
}

type logLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func runOnce(ctx context.Context, w io.Writer, h *host.Host, cfg host.DriverConfig, src host.Source, ro *runOptions) error {
	run, runErr := host.NewDriver(h).Run(ctx, cfg, src)
	rep := newReport(h, cfg, run, runErr)

	var err error
	if ro.json {
		err = writeJSON(w, rep)
	} else {
		writeText(w, rep)
	}
	if err == nil && ro.plot >= 0 {
		err = writePlot(w, rep, ro.plot)
	}
	if runErr != nil {
		return runErr
	}
	return err
}

func newReport(h *host.Host, cfg host.DriverConfig, run *host.Run, err error) *report {
	rep := &report{Callback: cfg.Callback, Steps: []stepReport{}}
	if rep.Callback == "" {
		if c := h.Config(); c != nil {
			rep.Callback = c.Default().ID
		}
	}
	if err != nil {
		rep.Error = err.Error()
	}
	if run == nil {
		return rep
	}
	rep.Fatal = run.Fatal
	rep.StepsTaken = run.StepsTaken
	for _, s := range run.Steps {
		sr := stepReport{Step: s.Index, Time: s.Time, Inputs: s.Inputs, Outputs: s.Outputs}
		if sr.Outputs == nil {
			sr.Outputs = []float64{}
		}
		if s.Result != nil {
			for _, e := range s.Result.Entries {
				sr.Log = append(sr.Log, logLine{Level: e.Level.String(), Message: e.Message})
			}
		}
		rep.Steps = append(rep.Steps, sr)
	}
	return rep
}

func writeJSON(w io.Writer, rep *report) error {
	data, err := sonic.ConfigStd.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func writeText(w io.Writer, rep *report) {
	fmt.Fprintf(w, "callback %s\n", rep.Callback)
	for _, s := range rep.Steps {
		fmt.Fprintf(w, "step %d  t=%g  in=%v  out=%v\n", s.Step, s.Time, s.Inputs, s.Outputs)
		for _, l := range s.Log {
			fmt.Fprintf(w, "  %s %s\n", l.Level, l.Message)
		}
	}
	if rep.Fatal != "" {
		fmt.Fprintf(w, "fatal: %s\n", rep.Fatal)
	}
	fmt.Fprintf(w, "%d steps\n", rep.StepsTaken)
}

func writePlot(w io.Writer, rep *report, idx int) error {
	series := make([]float64, 0, len(rep.Steps))
	for _, s := range rep.Steps {
		if idx < len(s.Outputs) {
			series = append(series, s.Outputs[idx])
		}
	}
	if len(series) == 0 {
		return fmt.Errorf("no output element %d to plot", idx)
	}
	graph := asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("%s output %d", rep.Callback, idx)))
	_, err := fmt.Fprintf(w, "\n%s\n", graph)
	return err
}

func serveMetrics(addr string, m *telemetry.Metrics, errw io.Writer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(errw, "metrics server: %v\n", err)
		}
	}()
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
