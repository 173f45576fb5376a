package errors

import (
	goerrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile     Phase = "compile"     // decode and validate
	PhaseLink        Phase = "link"        // import resolution and type matching
	PhaseInstantiate Phase = "instantiate" // initializers and start function
	PhaseInvoke      Phase = "invoke"      // exported function calls
	PhaseRead        Phase = "read"        // export and global access
	PhaseRegister    Phase = "register"    // registry updates
	PhaseProbe       Phase = "probe"       // exhaustion fingerprinting
	PhaseScript      Phase = "script"      // script loading and execution
)

// Kind categorizes the error
type Kind string

// Failure kinds. Every failing engine operation is attributed exactly one.
const (
	KindMalformed      Kind = "malformed_module"
	KindInvalid        Kind = "invalid_module"
	KindUnlinkable     Kind = "unlinkable_module"
	KindUninstantiable Kind = "uninstantiable_module"
	KindTrap           Kind = "trap"
	KindExhaustion     Kind = "resource_exhaustion"
)

// Harness kinds. These never describe module behavior.
const (
	KindUnexpected   Kind = "unexpected"
	KindNotFound     Kind = "not_found"
	KindTypeMismatch Kind = "type_mismatch"
	KindInvalidInput Kind = "invalid_input"
	KindReserved     Kind = "reserved"
)

// IsFailure reports whether k is one of the module failure kinds.
func (k Kind) IsFailure() bool {
	switch k {
	case KindMalformed, KindInvalid, KindUnlinkable, KindUninstantiable, KindTrap, KindExhaustion:
		return true
	}
	return false
}

// Error is the structured error type used throughout the harness
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Module string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Module != "" {
		b.WriteString(" in ")
		b.WriteString(e.Module)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
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

// Is reports whether target matches this error. A target with an empty
// Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if goerrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
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

// Module sets the module or instance the error belongs to
func (b *Builder) Module(name string) *Builder {
	b.err.Module = name
	return b
}

// Path sets the import or export path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
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

// Convenience constructors for the failure taxonomy

// Malformed creates a decode failure
func Malformed(cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindMalformed,
		Detail: "module cannot be decoded",
		Cause:  cause,
	}
}

// Invalid creates a validation failure
func Invalid(cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInvalid,
		Detail: "module failed validation",
		Cause:  cause,
	}
}

// Unlinkable creates a link failure for the import at path
func Unlinkable(path []string, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindUnlinkable,
		Path:   path,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Uninstantiable creates an initialization failure
func Uninstantiable(module string, cause error) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindUninstantiable,
		Module: module,
		Detail: "module initialization trapped",
		Cause:  cause,
	}
}

// Trap creates a trap raised by an exported call
func Trap(export string, cause error) *Error {
	return &Error{
		Phase: PhaseInvoke,
		Kind:  KindTrap,
		Path:  []string{export},
		Cause: cause,
	}
}

// Exhaustion re-labels a trap as resource exhaustion
func Exhaustion(trap *Error) *Error {
	return &Error{
		Phase:  trap.Phase,
		Kind:   KindExhaustion,
		Module: trap.Module,
		Path:   trap.Path,
		Detail: "call stack exhausted",
		Cause:  trap.Cause,
	}
}

// Unexpected creates an error for engine behavior the harness cannot classify
func Unexpected(phase Phase, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnexpected,
		Detail: "unclassified engine error",
		Cause:  cause,
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

// TypeMismatch creates an error for an entity of the wrong kind or type
func TypeMismatch(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("expected %s, got %s", want, got),
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

// Reserved creates an error for writes to a reserved registry namespace
func Reserved(namespace string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindReserved,
		Detail: fmt.Sprintf("namespace %q is reserved", namespace),
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
