package host

import (
	"context"
	"fmt"

	"github.com/wippyai/simbridge/callback"
	"go.uber.org/zap"
)

// Step records one driver timestep.
type Step struct {
	Result  *callback.Result
	Inputs  []float64
	Outputs []float64
	Time    float64
	Index   int
}

// Source produces the flat input buffer for a timestep.
type Source func(step int, t float64) ([]float64, error)

// StepObserver is notified after every timestep, including the one that
// stopped the run.
type StepObserver interface {
	OnStep(Step)
}

// StepFunc adapts a function to StepObserver.
type StepFunc func(Step)

func (f StepFunc) OnStep(s Step) { f(s) }

// DriverConfig describes a fixed-step run.
type DriverConfig struct {
	Callback string // empty runs the default callback
	Start    float64
	Dt       float64
	Steps    int
}

// Run is the outcome of Driver.Run.
type Run struct {
	Steps      []Step
	Fatal      string
	StepsTaken int
}

// Driver calls a host once per timestep the way a simulator does.
type Driver struct {
	host      *Host
	observers []StepObserver
}

func NewDriver(h *Host) *Driver {
	return &Driver{host: h}
}

func (d *Driver) AddObserver(o StepObserver) { d.observers = append(d.observers, o) }

// Run initializes the host and steps through cfg.Steps timesteps. It stops
// at the first failed or fatal call and returns the steps taken so far
// together with the error.
func (d *Driver) Run(ctx context.Context, cfg DriverConfig, src Source) (*Run, error) {
	if err := validateDriverConfig(cfg); err != nil {
		return nil, err
	}
	if err := d.host.Initialize(ctx); err != nil {
		return nil, err
	}

	run := &Run{Steps: make([]Step, 0, cfg.Steps)}
	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return run, ctx.Err()
		default:
		}

		t := cfg.Start + float64(i)*cfg.Dt
		in, err := src(i, t)
		if err != nil {
			return run, fmt.Errorf("step %d inputs: %w", i, err)
		}

		out, res, callErr := d.host.Invoke(ctx, cfg.Callback, in)
		step := Step{Index: i, Time: t, Inputs: in, Outputs: out, Result: res}
		run.Steps = append(run.Steps, step)
		run.StepsTaken++
		for _, o := range d.observers {
			o.OnStep(step)
		}

		if callErr != nil {
			if res != nil && res.Fatal {
				run.Fatal = res.FatalMessage
			}
			d.host.logger().Error("run stopped",
				zap.Int("step", i),
				zap.Float64("time", t),
				zap.Error(callErr))
			return run, fmt.Errorf("step %d at t=%g: %w", i, t, callErr)
		}
	}
	return run, nil
}

func validateDriverConfig(cfg DriverConfig) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", cfg.Steps)
	}
	return nil
}
