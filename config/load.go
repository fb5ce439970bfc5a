package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/wippyai/simbridge/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Format is a binding file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from the file extension. Anything other than
// .yaml or .yml is JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads, decodes and validates the binding file at path. Relative
// script paths are resolved against the file's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config(fmt.Sprintf("read %s", path), err)
	}
	f, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, err
	}
	f.Dir = filepath.Dir(path)

	Logger().Debug("config loaded",
		zap.String("path", path),
		zap.Int("callbacks", len(f.Callbacks)))
	return f, nil
}

// Parse decodes and validates a binding file.
func Parse(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Config("decode yaml", err)
		}
	default:
		dec := sonic.ConfigStd.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Config("decode json", err)
		}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks field constraints, unique ids, the default callback and
// every callback's signatures.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return errors.Config(describeValidation(err), err)
	}

	seen := make(map[string]bool, len(f.Callbacks))
	for _, c := range f.Callbacks {
		if seen[c.ID] {
			return errors.Config(fmt.Sprintf("duplicate callback id %q", c.ID), nil)
		}
		seen[c.ID] = true
		if _, _, err := c.Signatures(); err != nil {
			return errors.Config(fmt.Sprintf("callback %q", c.ID), err)
		}
	}
	if f.Callback != "" && !seen[f.Callback] {
		return errors.Config(fmt.Sprintf("default callback %q is not defined", f.Callback), nil)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return "invalid config"
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			parts[i] = fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
		} else {
			parts[i] = fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}

// ScriptPath resolves a callback's script path against the file's
// directory.
func (f *File) ScriptPath(c Callback) string {
	if c.ScriptPath == "" || filepath.IsAbs(c.ScriptPath) || f.Dir == "" {
		return c.ScriptPath
	}
	return filepath.Join(f.Dir, c.ScriptPath)
}

func stripExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// DefaultPath returns the binding file next to an executable or library:
// the same path with a .json extension.
func DefaultPath(exe string) string {
	return stripExt(exe) + ".json"
}

// LogFilename returns the log file for the binding file at path: log_file
// when set, else <script_name>_log.txt, else the binding file's path with
// its extension replaced by _log.txt. cfg may be nil.
func LogFilename(path string, cfg *File) string {
	if cfg != nil {
		if cfg.LogFile != "" {
			return cfg.LogFile
		}
		if cfg.ScriptName != "" {
			return cfg.ScriptName + "_log.txt"
		}
	}
	return stripExt(path) + "_log.txt"
}
