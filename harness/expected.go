package harness

import (
	"fmt"

	linktest "github.com/wippyai/wasm-linktest"
)

type expectKind uint8

const (
	expectLiteral expectKind = iota
	expectNanCanonical
	expectNanArithmetic
	expectNanAny
	expectFuncRef
	expectExternRef
)

// Expected is one expected result of assert_return.
type Expected struct {
	value linktest.Value
	kind  expectKind
}

// Literal expects exactly v: same type and same bit pattern, so 0.0 and
// -0.0 differ.
func Literal(v linktest.Value) Expected {
	return Expected{kind: expectLiteral, value: v}
}

// NanCanonical expects a NaN of type t (f32 or f64).
func NanCanonical(t linktest.ValueType) Expected {
	return Expected{kind: expectNanCanonical, value: linktest.Value{Type: t}}
}

// NanArithmetic expects a NaN of type t (f32 or f64).
func NanArithmetic(t linktest.ValueType) Expected {
	return Expected{kind: expectNanArithmetic, value: linktest.Value{Type: t}}
}

// NanAny expects a NaN of type t (f32 or f64).
func NanAny(t linktest.ValueType) Expected {
	return Expected{kind: expectNanAny, value: linktest.Value{Type: t}}
}

// FuncRefExpected expects any non-null function reference.
func FuncRefExpected() Expected {
	return Expected{kind: expectFuncRef, value: linktest.Value{Type: linktest.ValueTypeFuncRef}}
}

// ExternRefExpected expects any non-null external reference.
func ExternRefExpected() Expected {
	return Expected{kind: expectExternRef, value: linktest.Value{Type: linktest.ValueTypeExternRef}}
}

// Matches reports whether v satisfies the expectation. NaN sentinels accept
// any payload of the right width; reference sentinels never compare identity.
func (e Expected) Matches(v linktest.Value) bool {
	switch e.kind {
	case expectLiteral:
		return e.value.Equal(v)
	case expectNanCanonical, expectNanArithmetic, expectNanAny:
		return v.Type == e.value.Type && v.IsNaN()
	case expectFuncRef, expectExternRef:
		return v.Type == e.value.Type && !v.IsNull()
	}
	return false
}

func (e Expected) String() string {
	switch e.kind {
	case expectLiteral:
		return e.value.String()
	case expectNanCanonical:
		return fmt.Sprintf("%s:nan:canonical", e.value.Type)
	case expectNanArithmetic:
		return fmt.Sprintf("%s:nan:arithmetic", e.value.Type)
	case expectNanAny:
		return fmt.Sprintf("%s:nan:any", e.value.Type)
	case expectFuncRef:
		return "ref.func"
	case expectExternRef:
		return "ref.extern"
	}
	return "?"
}
