// Package errors provides structured error types for the linking harness.
//
// Errors are categorized by Phase (where the error occurred) and Kind. The six
// module failure kinds (malformed, invalid, unlinkable, uninstantiable, trap,
// resource exhaustion) are the taxonomy every engine call site reports in;
// the remaining kinds describe harness problems such as a missing export.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLink, errors.KindUnlinkable).
//		Module("Mt").
//		Path("spectest", "table").
//		Detail("table limits %s do not satisfy %s", have, want).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Uninstantiable(name, cause)
//	err := errors.Trap("call", cause)
//
// KindOf recovers the kind through any amount of wrapping, and errors.Is
// matches on Phase and Kind.
package errors
