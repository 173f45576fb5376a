package harness

import (
	"context"
	goerrors "errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/errors"
)

// AssertionError reports an assertion that did not hold.
type AssertionError struct {
	Cause     error
	Assertion string
	Expected  string
	Actual    string
	// Index is the result position of a value mismatch, or -1.
	Index int
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Assertion)
	b.WriteString(": expected ")
	b.WriteString(e.Expected)
	b.WriteString(", got ")
	b.WriteString(e.Actual)
	if e.Index >= 0 {
		fmt.Fprintf(&b, " at result %d", e.Index)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *AssertionError) Unwrap() error {
	return e.Cause
}

func violation(assertion, expected, actual string, cause error) *AssertionError {
	Logger().Debug("assertion failed",
		zap.String("assertion", assertion),
		zap.String("expected", expected),
		zap.String("actual", actual))
	return &AssertionError{Assertion: assertion, Expected: expected, Actual: actual, Cause: cause, Index: -1}
}

// outcome names what an operation produced: its failure kind, or success.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := errors.KindOf(err); ok {
		return string(kind)
	}
	return "unclassified error"
}

func checkKind(assertion string, want errors.Kind, err error) error {
	if err == nil {
		return violation(assertion, string(want), "success", nil)
	}
	if kind, ok := errors.KindOf(err); ok && kind == want {
		return nil
	}
	return violation(assertion, string(want), outcome(err), err)
}

// AssertMalformed requires the bytes to be rejected as malformed.
func (h *Harness) AssertMalformed(ctx context.Context, data []byte) error {
	return h.assertRejected(ctx, "assert_malformed", errors.KindMalformed, data)
}

// AssertInvalid requires the bytes to decode but fail validation.
func (h *Harness) AssertInvalid(ctx context.Context, data []byte) error {
	return h.assertRejected(ctx, "assert_invalid", errors.KindInvalid, data)
}

func (h *Harness) assertRejected(ctx context.Context, assertion string, want errors.Kind, data []byte) error {
	_, err := h.Compile(ctx, data, false)
	if goerrors.Is(err, ErrValidated) {
		return violation(assertion, string(want), "success", err)
	}
	return checkKind(assertion, want, err)
}

// AssertUnlinkable requires the bytes to compile and then fail to link
// against the registry.
func (h *Harness) AssertUnlinkable(ctx context.Context, data []byte) error {
	return h.assertInstantiation(ctx, "assert_unlinkable", errors.KindUnlinkable, data)
}

// AssertUninstantiable requires the bytes to compile and link, and then fail
// while running initializers or the start function.
func (h *Harness) AssertUninstantiable(ctx context.Context, data []byte) error {
	return h.assertInstantiation(ctx, "assert_uninstantiable", errors.KindUninstantiable, data)
}

func (h *Harness) assertInstantiation(ctx context.Context, assertion string, want errors.Kind, data []byte) error {
	mod, err := h.Compile(ctx, data, true)
	if err != nil {
		return violation(assertion, string(want), outcome(err), err)
	}
	_, err = h.linker.Instantiate(ctx, mod, h.registry)
	return checkKind(assertion, want, err)
}

// AssertTrap requires the action to trap.
func (h *Harness) AssertTrap(ctx context.Context, action Action) error {
	_, err := action.Run(ctx)
	return checkKind("assert_trap", errors.KindTrap, err)
}

// AssertExhaustion requires the action to exhaust the call stack.
func (h *Harness) AssertExhaustion(ctx context.Context, action Action) error {
	_, err := action.Run(ctx)
	return checkKind("assert_exhaustion", errors.KindExhaustion, err)
}

// AssertReturn requires the action to succeed with exactly one result per
// expectation, each matching in order. No expectations means no results.
func (h *Harness) AssertReturn(ctx context.Context, action Action, expected ...Expected) error {
	results, err := action.Run(ctx)
	if err != nil {
		return violation("assert_return", describeExpected(expected), outcome(err), err)
	}
	if len(results) != len(expected) {
		return violation("assert_return",
			fmt.Sprintf("%d value(s)", len(expected)),
			fmt.Sprintf("%d value(s) %s", len(results), describeValues(results)),
			nil)
	}
	for i, exp := range expected {
		if !exp.Matches(results[i]) {
			e := violation("assert_return", exp.String(), results[i].String(), nil)
			e.Index = i
			return e
		}
	}
	return nil
}

func describeExpected(expected []Expected) string {
	parts := make([]string, len(expected))
	for i, e := range expected {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func describeValues(values []linktest.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
