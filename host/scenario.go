package host

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/wippyai/simbridge/errors"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted run: which callback to call, the time grid, and
// the flat input buffer for each step. The last row of Inputs repeats
// once the rows run out.
type Scenario struct {
	Callback string      `yaml:"callback,omitempty"`
	Inputs   [][]float64 `yaml:"inputs" validate:"required,min=1"`
	Ramps    []Ramp      `yaml:"ramps,omitempty" validate:"dive"`
	Start    float64     `yaml:"start,omitempty"`
	Dt       float64     `yaml:"dt,omitempty" validate:"gt=0"`
	Steps    int         `yaml:"steps,omitempty" validate:"gte=1"`
}

// Ramp adds Rate*t to input element Index at every step.
type Ramp struct {
	Index int     `yaml:"index" validate:"gte=0"`
	Rate  float64 `yaml:"rate"`
}

var validateScenario = validator.New(validator.WithRequiredStructEnabled())

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config(fmt.Sprintf("read %s", path), err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario. Dt defaults to 1 and Steps to the
// number of input rows.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Config("decode scenario", err)
	}
	if s.Dt == 0 {
		s.Dt = 1
	}
	if s.Steps == 0 {
		s.Steps = len(s.Inputs)
	}
	if err := validateScenario.Struct(&s); err != nil {
		return nil, errors.Config("invalid scenario", err)
	}
	return &s, nil
}

// Config returns the driver settings of the scenario.
func (s *Scenario) Config() DriverConfig {
	return DriverConfig{Callback: s.Callback, Start: s.Start, Dt: s.Dt, Steps: s.Steps}
}

// Source returns the step inputs with ramps applied. Each call returns a
// fresh buffer.
func (s *Scenario) Source() Source {
	return func(step int, t float64) ([]float64, error) {
		row := s.Inputs[min(step, len(s.Inputs)-1)]
		in := append([]float64(nil), row...)
		for _, r := range s.Ramps {
			if r.Index >= len(in) {
				return nil, fmt.Errorf("ramp index %d outside %d inputs", r.Index, len(in))
			}
			in[r.Index] += r.Rate * t
		}
		return in, nil
	}
}
