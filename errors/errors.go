package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in a call the error occurred
type Phase string

const (
	PhaseBind     Phase = "bind"     // signature and entry binding
	PhaseResolve  Phase = "resolve"  // dynamic shape resolution
	PhaseDecode   Phase = "decode"   // host buffers to values
	PhaseEncode   Phase = "encode"   // values to host buffers
	PhaseCallback Phase = "callback" // callback body
	PhaseConfig   Phase = "config"   // binding file loading
	PhaseLoad     Phase = "load"     // script or guest loading
	PhaseHost     Phase = "host"     // host method dispatch
)

// Kind categorizes the error
type Kind string

const (
	KindBinding        Kind = "binding"
	KindShape          Kind = "shape"
	KindShapeMismatch  Kind = "shape_mismatch"
	KindStructural     Kind = "structural"
	KindOutputContract Kind = "output_contract"
	KindApplication    Kind = "application"

	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindRegistration   Kind = "registration"
	KindInstantiation  Kind = "instantiation"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Declared string
	Actual   string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Declared != "" || e.Actual != "" {
		b.WriteString(": ")
		if e.Declared != "" && e.Actual != "" {
			b.WriteString("declared ")
			b.WriteString(e.Declared)
			b.WriteString(", got ")
			b.WriteString(e.Actual)
		} else if e.Declared != "" {
			b.WriteString("declared ")
			b.WriteString(e.Declared)
		} else {
			b.WriteString("got ")
			b.WriteString(e.Actual)
		}
	}

	if e.Detail != "" {
		if e.Declared != "" || e.Actual != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Sentinels for errors.Is checks by kind.
var (
	ErrBinding        = &Error{Kind: KindBinding}
	ErrShape          = &Error{Kind: KindShape}
	ErrShapeMismatch  = &Error{Kind: KindShapeMismatch}
	ErrStructural     = &Error{Kind: KindStructural}
	ErrOutputContract = &Error{Kind: KindOutputContract}
	ErrApplication    = &Error{Kind: KindApplication}
)

// IsFatal reports whether err must halt the host. Every marshalling-layer
// failure is fatal, as is an application failure that escaped its callback.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if !stderrors.As(err, &e) {
		return true
	}
	switch e.Kind {
	case KindBinding, KindShape, KindShapeMismatch, KindStructural, KindOutputContract, KindApplication:
		return true
	}
	return e.Phase != PhaseConfig
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the slot path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Declared sets the declared kind or shape
func (b *Builder) Declared(s string) *Builder {
	b.err.Declared = s
	return b
}

// Actual sets the observed kind or shape
func (b *Builder) Actual(s string) *Builder {
	b.err.Actual = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the call taxonomy

// Binding creates a binding error: unknown identifier, arity mismatch,
// or an embedding that could not be initialized.
func Binding(detail string, args ...any) *Error {
	return New(PhaseBind, KindBinding).Detail(detail, args...).Build()
}

// Shape creates a dynamic-shape resolution error
func Shape(path []string, value any, detail string, args ...any) *Error {
	return New(PhaseResolve, KindShape).Path(path...).Value(value).Detail(detail, args...).Build()
}

// ShapeMismatch creates a decode-time shape error
func ShapeMismatch(path []string, declared, actual string) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindShapeMismatch,
		Path:     path,
		Declared: declared,
		Actual:   actual,
	}
}

// Structural creates a cross-field invariant violation
func Structural(phase Phase, path []string, detail string, args ...any) *Error {
	return New(phase, KindStructural).Path(path...).Detail(detail, args...).Build()
}

// OutputContract creates an output contract violation
func OutputContract(path []string, declared, actual, detail string) *Error {
	return &Error{
		Phase:    PhaseEncode,
		Kind:     KindOutputContract,
		Path:     path,
		Declared: declared,
		Actual:   actual,
		Detail:   detail,
	}
}

// Application wraps a failure raised by callback logic
func Application(callback string, cause error) *Error {
	return &Error{
		Phase:  PhaseCallback,
		Kind:   KindApplication,
		Detail: fmt.Sprintf("callback %q failed", callback),
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a script or guest loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindBinding,
		Detail: detail,
		Cause:  cause,
	}
}

// Instantiation creates a guest instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate guest",
		Cause:  cause,
	}
}

// Config creates a configuration error
func Config(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
