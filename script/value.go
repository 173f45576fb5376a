package script

import (
	"fmt"
	"strconv"
	"strings"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/harness"
)

// NaN tokens accepted in expected float values.
const (
	nanCanonical  = "nan:canonical"
	nanArithmetic = "nan:arithmetic"
	nanAny        = "nan:any"
)

// Arg converts an argument token to a value.
//
// Integers may be signed or unsigned decimal with '_' separators. Floats are
// decimal, or their bit pattern as 0x-prefixed hex. References are "null"
// or, for externref, a decimal key.
func (v Value) Arg() (linktest.Value, error) {
	t, err := linktest.ParseValueType(v.Type)
	if err != nil {
		return linktest.Value{}, err
	}
	s := strings.ReplaceAll(v.Value, "_", "")

	switch t {
	case linktest.ValueTypeI32:
		n, err := parseInt(s, 32)
		if err != nil {
			return linktest.Value{}, err
		}
		return linktest.I32(int32(uint32(n))), nil
	case linktest.ValueTypeI64:
		n, err := parseInt(s, 64)
		if err != nil {
			return linktest.Value{}, err
		}
		return linktest.I64(int64(n)), nil
	case linktest.ValueTypeF32:
		if bits, ok, err := parseBits(s, 32); ok || err != nil {
			return linktest.F32Bits(uint32(bits)), err
		}
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return linktest.Value{}, fmt.Errorf("f32 %q: %w", v.Value, err)
		}
		return linktest.F32(float32(f)), nil
	case linktest.ValueTypeF64:
		if bits, ok, err := parseBits(s, 64); ok || err != nil {
			return linktest.F64Bits(bits), err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return linktest.Value{}, fmt.Errorf("f64 %q: %w", v.Value, err)
		}
		return linktest.F64(f), nil
	case linktest.ValueTypeExternRef:
		if s == "null" {
			return linktest.NullRef(t), nil
		}
		key, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return linktest.Value{}, fmt.Errorf("externref %q: %w", v.Value, err)
		}
		return linktest.ExternRef(uint32(key)), nil
	case linktest.ValueTypeFuncRef:
		if s == "null" {
			return linktest.NullRef(t), nil
		}
		return linktest.Value{}, fmt.Errorf("funcref %q: only null can be written", v.Value)
	}
	return linktest.Value{}, fmt.Errorf("unsupported value type %s", t)
}

// Expected converts an expected-result token.
//
// In addition to Arg's forms, floats accept nan:canonical, nan:arithmetic
// and nan:any, and a reference with no value matches any non-null reference.
func (v Value) Expected() (harness.Expected, error) {
	t, err := linktest.ParseValueType(v.Type)
	if err != nil {
		return harness.Expected{}, err
	}
	if t.IsFloat() {
		switch v.Value {
		case nanCanonical:
			return harness.NanCanonical(t), nil
		case nanArithmetic:
			return harness.NanArithmetic(t), nil
		case nanAny:
			return harness.NanAny(t), nil
		}
	}
	if t.IsRef() && v.Value == "" {
		if t == linktest.ValueTypeFuncRef {
			return harness.FuncRefExpected(), nil
		}
		return harness.ExternRefExpected(), nil
	}

	lit, err := v.Arg()
	if err != nil {
		return harness.Expected{}, err
	}
	return harness.Literal(lit), nil
}

// parseInt accepts the signed and unsigned ranges of a size-bit integer and
// returns the two's complement bits.
func parseInt(s string, size int) (uint64, error) {
	digits, neg := strings.CutPrefix(s, "-")
	base := 10
	if rest, ok := cutHexPrefix(digits); ok {
		digits, base = rest, 16
	}
	digits = strings.ReplaceAll(digits, "_", "")

	if neg {
		n, err := strconv.ParseInt("-"+digits, base, size)
		if err != nil {
			return 0, fmt.Errorf("i%d %q: %w", size, s, err)
		}
		return uint64(n), nil
	}
	n, err := strconv.ParseUint(digits, base, size)
	if err != nil {
		return 0, fmt.Errorf("i%d %q: %w", size, s, err)
	}
	return n, nil
}

func cutHexPrefix(s string) (string, bool) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return rest, true
	}
	return strings.CutPrefix(s, "0X")
}

func parseBits(s string, size int) (uint64, bool, error) {
	digits, ok := cutHexPrefix(s)
	if !ok {
		return 0, false, nil
	}
	bits, err := strconv.ParseUint(digits, 16, size)
	if err != nil {
		return 0, true, fmt.Errorf("f%d bits %q: %w", size, s, err)
	}
	return bits, true, nil
}

// args converts a list of argument tokens.
func args(values []Value) ([]linktest.Value, error) {
	out := make([]linktest.Value, len(values))
	for i, v := range values {
		a, err := v.Arg()
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		out[i] = a
	}
	return out, nil
}

func expectations(values []Value) ([]harness.Expected, error) {
	out := make([]harness.Expected, len(values))
	for i, v := range values {
		e, err := v.Expected()
		if err != nil {
			return nil, fmt.Errorf("expected[%d]: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}
