package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/wippyai/simbridge/bridge"
	"gopkg.in/yaml.v3"
)

// Callback backends.
const (
	BackendGo       = "go"
	BackendStarlark = "starlark"
	BackendWasm     = "wasm"
)

// Slot types as written in binding files.
const (
	TypeScalar     = "scalar"
	TypeVector     = "vector"
	TypeMatrix     = "matrix"
	TypeTimeSeries = "timeseries"
	TypeTable      = "table"
)

// File is a binding file: which callbacks exist, how they are implemented
// and the shapes of their arguments and results.
type File struct {
	LogLevel   *int       `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,min=0,max=3"`
	ScriptName string     `json:"script_name,omitempty" yaml:"script_name,omitempty"`
	LogFile    string     `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	Callback   string     `json:"callback,omitempty" yaml:"callback,omitempty"`
	Dir        string     `json:"-" yaml:"-"`
	Callbacks  []Callback `json:"callbacks" yaml:"callbacks" validate:"required,min=1,dive"`
	Engine     Engine     `json:"engine" yaml:"engine"`
}

// Engine tunes the script and WebAssembly backends.
type Engine struct {
	MemoryLimitPages uint32 `json:"memory_limit_pages,omitempty" yaml:"memory_limit_pages,omitempty" validate:"lte=65536"`
	OutputCapacity   int    `json:"output_capacity,omitempty" yaml:"output_capacity,omitempty" validate:"gte=0"`
	MaxSteps         uint64 `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
}

// Callback binds one callback id to an implementation and signatures.
type Callback struct {
	ID           string `json:"id" yaml:"id" validate:"required"`
	Backend      string `json:"backend" yaml:"backend" validate:"required,oneof=go starlark wasm"`
	ScriptPath   string `json:"script_path,omitempty" yaml:"script_path,omitempty" validate:"required_unless=Backend go"`
	FunctionName string `json:"function_name,omitempty" yaml:"function_name,omitempty"`
	Inputs       []Slot `json:"inputs" yaml:"inputs" validate:"dive"`
	Outputs      []Slot `json:"outputs" yaml:"outputs" validate:"dive"`
}

// Function returns the entry point name, defaulting to the id.
func (c Callback) Function() string {
	if c.FunctionName != "" {
		return c.FunctionName
	}
	return c.ID
}

// Slot declares one argument or result.
type Slot struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Type        string `json:"type" yaml:"type" validate:"required,oneof=scalar vector matrix timeseries table"`
	Dimensions  []Dim  `json:"dimensions,omitempty" yaml:"dimensions,omitempty" validate:"max=2"`
	MaxPoints   int    `json:"max_points,omitempty" yaml:"max_points,omitempty" validate:"gte=0"`
	MaxElements int    `json:"max_elements,omitempty" yaml:"max_elements,omitempty" validate:"gte=0"`
	TableDim    int    `json:"table_dim,omitempty" yaml:"table_dim,omitempty" validate:"gte=0,lte=3"`
}

// Dim is a fixed size or the name of an earlier scalar input that holds
// the size at call time.
type Dim struct {
	Ref  string
	Size int
}

// Fixed reports whether the dimension is a literal size.
func (d Dim) Fixed() bool { return d.Ref == "" }

func (d Dim) String() string {
	if d.Ref != "" {
		return d.Ref
	}
	return strconv.Itoa(d.Size)
}

func errInvalidDim(s string) error {
	return fmt.Errorf("dimension %q must be a positive integer or an input name", s)
}

func (d *Dim) parse(s string, quoted bool) error {
	if quoted {
		if s == "" {
			return errInvalidDim(s)
		}
		*d = Dim{Ref: s}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return errInvalidDim(s)
	}
	*d = Dim{Size: int(f)}
	return nil
}

func (d *Dim) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, `"`) {
		var ref string
		if err := sonic.ConfigStd.Unmarshal(data, &ref); err != nil {
			return err
		}
		return d.parse(ref, true)
	}
	return d.parse(s, false)
}

func (d Dim) MarshalJSON() ([]byte, error) {
	if d.Ref != "" {
		return sonic.ConfigStd.Marshal(d.Ref)
	}
	return []byte(strconv.Itoa(d.Size)), nil
}

func (d *Dim) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errInvalidDim(node.Value)
	}
	tag := node.ShortTag()
	return d.parse(node.Value, tag != "!!int" && tag != "!!float")
}

func (d Dim) MarshalYAML() (any, error) {
	if d.Ref != "" {
		return d.Ref, nil
	}
	return d.Size, nil
}

// Level returns the configured log level, Info when unset.
func (f *File) Level() bridge.Level {
	if f.LogLevel == nil {
		return bridge.LevelInfo
	}
	return bridge.Level(*f.LogLevel)
}

// Lookup returns the callback with the given id.
func (f *File) Lookup(id string) (Callback, bool) {
	for _, c := range f.Callbacks {
		if c.ID == id {
			return c, true
		}
	}
	return Callback{}, false
}

// Default returns the callback run by a calculate request: the configured
// one, or the first when none is named.
func (f *File) Default() Callback {
	if f.Callback != "" {
		if c, ok := f.Lookup(f.Callback); ok {
			return c
		}
	}
	return f.Callbacks[0]
}
