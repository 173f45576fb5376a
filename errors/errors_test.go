package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseLink,
				Kind:   KindUnlinkable,
				Module: "Nt",
				Path:   []string{"Mt", "tab"},
				Detail: "table limits do not match",
			},
			contains: []string{"[link]", "unlinkable_module", "in Nt", "Mt.tab", "table limits do not match"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseInvoke,
				Kind:  KindTrap,
			},
			contains: []string{"[invoke]", "trap"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseInstantiate,
				Kind:   KindUninstantiable,
				Detail: "start trapped",
				Cause:  errors.New("unreachable"),
			},
			contains: []string{"[instantiate]", "uninstantiable_module", "start trapped", "caused by", "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseCompile,
		Kind:  KindInvalid,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseLink,
		Kind:  KindUnlinkable,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseLink, Kind: KindUnlinkable}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseInstantiate, Kind: KindUnlinkable}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseLink, Kind: KindTrap}) {
		t.Error("Is should not match different kind")
	}

	if !err.Is(&Error{Kind: KindUnlinkable}) {
		t.Error("Is should match kind alone when target has no phase")
	}

	wrapped := fmt.Errorf("instantiate: %w", err)
	if !errors.Is(wrapped, &Error{Kind: KindUnlinkable}) {
		t.Error("errors.Is should match through wrapping")
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Trap("call", errors.New("unreachable")))
	kind, ok := KindOf(wrapped)
	if !ok {
		t.Fatal("KindOf did not find *Error")
	}
	if kind != KindTrap {
		t.Errorf("KindOf = %v, want %v", kind, KindTrap)
	}

	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf should report false for plain errors")
	}
	if _, ok := KindOf(nil); ok {
		t.Error("KindOf should report false for nil")
	}
}

func TestKind_IsFailure(t *testing.T) {
	failures := []Kind{KindMalformed, KindInvalid, KindUnlinkable, KindUninstantiable, KindTrap, KindExhaustion}
	for _, k := range failures {
		if !k.IsFailure() {
			t.Errorf("%v should be a failure kind", k)
		}
	}
	for _, k := range []Kind{KindUnexpected, KindNotFound, KindTypeMismatch, KindInvalidInput, KindReserved} {
		if k.IsFailure() {
			t.Errorf("%v should not be a failure kind", k)
		}
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseLink, KindUnlinkable).
		Module("M").
		Path("spectest", "memory").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "memory", "func").
		Build()

	if err.Phase != PhaseLink {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseLink)
	}
	if err.Kind != KindUnlinkable {
		t.Errorf("Kind = %v, want %v", err.Kind, KindUnlinkable)
	}
	if err.Module != "M" {
		t.Errorf("Module = %v, want M", err.Module)
	}
	if len(err.Path) != 2 || err.Path[0] != "spectest" || err.Path[1] != "memory" {
		t.Errorf("Path = %v, want [spectest memory]", err.Path)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected memory, got func" {
		t.Errorf("Detail = %v, want 'expected memory, got func'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"Malformed", Malformed(cause), PhaseCompile, KindMalformed},
		{"Invalid", Invalid(cause), PhaseCompile, KindInvalid},
		{"Unlinkable", Unlinkable([]string{"a", "b"}, "unknown import"), PhaseLink, KindUnlinkable},
		{"Uninstantiable", Uninstantiable("m", cause), PhaseInstantiate, KindUninstantiable},
		{"Trap", Trap("f", cause), PhaseInvoke, KindTrap},
		{"Unexpected", Unexpected(PhaseCompile, cause), PhaseCompile, KindUnexpected},
		{"NotFound", NotFound(PhaseRead, "export", "x"), PhaseRead, KindNotFound},
		{"TypeMismatch", TypeMismatch(PhaseRead, []string{"x"}, "global", "func"), PhaseRead, KindTypeMismatch},
		{"InvalidInput", InvalidInput(PhaseScript, "bad"), PhaseScript, KindInvalidInput},
		{"Reserved", Reserved("spectest"), PhaseRegister, KindReserved},
		{"Wrap", Wrap(PhaseProbe, KindUnexpected, cause, "probe"), PhaseProbe, KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
		})
	}
}

func TestExhaustion(t *testing.T) {
	cause := errors.New("stack overflow")
	trap := Trap("run", cause)
	exh := Exhaustion(trap)

	if exh.Kind != KindExhaustion {
		t.Errorf("Kind = %v, want %v", exh.Kind, KindExhaustion)
	}
	if exh.Phase != PhaseInvoke {
		t.Errorf("Phase = %v, want %v", exh.Phase, PhaseInvoke)
	}
	if !errors.Is(exh, cause) {
		t.Error("exhaustion should keep the trap cause")
	}
	if len(exh.Path) != 1 || exh.Path[0] != "run" {
		t.Errorf("Path = %v, want [run]", exh.Path)
	}
}
