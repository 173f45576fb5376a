package linktest

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType is a WebAssembly value type, using its binary encoding.
type ValueType byte

const (
	ValueTypeI32       ValueType = 0x7f
	ValueTypeI64       ValueType = 0x7e
	ValueTypeF32       ValueType = 0x7d
	ValueTypeF64       ValueType = 0x7c
	ValueTypeFuncRef   ValueType = 0x70
	ValueTypeExternRef ValueType = 0x6f
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncRef:
		return "funcref"
	case ValueTypeExternRef:
		return "externref"
	default:
		return fmt.Sprintf("valtype(0x%02x)", byte(t))
	}
}

// IsRef reports whether t is a reference type.
func (t ValueType) IsRef() bool {
	return t == ValueTypeFuncRef || t == ValueTypeExternRef
}

// IsFloat reports whether t is f32 or f64.
func (t ValueType) IsFloat() bool {
	return t == ValueTypeF32 || t == ValueTypeF64
}

// ParseValueType parses the text name of a value type.
// "anyfunc" is accepted as the legacy name of funcref.
func ParseValueType(s string) (ValueType, error) {
	switch s {
	case "i32":
		return ValueTypeI32, nil
	case "i64":
		return ValueTypeI64, nil
	case "f32":
		return ValueTypeF32, nil
	case "f64":
		return ValueTypeF64, nil
	case "funcref", "anyfunc":
		return ValueTypeFuncRef, nil
	case "externref":
		return ValueTypeExternRef, nil
	}
	return 0, fmt.Errorf("unknown value type %q", s)
}

// Value is a typed WebAssembly value held as its raw bit pattern.
//
// Numbers use the same encoding wazero uses on its call boundary: i32 and f32
// occupy the low 32 bits. A reference with zero bits is null.
type Value struct {
	Type ValueType
	Bits uint64
}

func I32(v int32) Value {
	return Value{Type: ValueTypeI32, Bits: uint64(uint32(v))}
}

func I64(v int64) Value {
	return Value{Type: ValueTypeI64, Bits: uint64(v)}
}

func F32(v float32) Value {
	return Value{Type: ValueTypeF32, Bits: uint64(math.Float32bits(v))}
}

func F64(v float64) Value {
	return Value{Type: ValueTypeF64, Bits: math.Float64bits(v)}
}

// F32Bits builds an f32 from its IEEE 754 bit pattern.
func F32Bits(bits uint32) Value {
	return Value{Type: ValueTypeF32, Bits: uint64(bits)}
}

// F64Bits builds an f64 from its IEEE 754 bit pattern.
func F64Bits(bits uint64) Value {
	return Value{Type: ValueTypeF64, Bits: bits}
}

// NullRef returns the null reference of type t.
func NullRef(t ValueType) Value {
	return Value{Type: t}
}

// ExternRef returns the host reference identified by key.
// The same key always yields the same reference, and it is never null.
func ExternRef(key uint32) Value {
	return Value{Type: ValueTypeExternRef, Bits: uint64(key) + 1}
}

// ExternKey returns the key an externref was created from.
func (v Value) ExternKey() (uint32, bool) {
	if v.Type != ValueTypeExternRef || v.Bits == 0 || v.Bits > math.MaxUint32+1 {
		return 0, false
	}
	return uint32(v.Bits - 1), true
}

func (v Value) I32() int32 { return int32(uint32(v.Bits)) }

func (v Value) I64() int64 { return int64(v.Bits) }

func (v Value) F32() float32 { return math.Float32frombits(uint32(v.Bits)) }

func (v Value) F64() float64 { return math.Float64frombits(v.Bits) }

// IsNull reports whether v is a null reference.
func (v Value) IsNull() bool {
	return v.Type.IsRef() && v.Bits == 0
}

// IsNaN reports whether v is a float holding any NaN.
func (v Value) IsNaN() bool {
	switch v.Type {
	case ValueTypeF32:
		return math.IsNaN(float64(v.F32()))
	case ValueTypeF64:
		return math.IsNaN(v.F64())
	}
	return false
}

// Equal compares type and bit pattern. -0.0 and 0.0 are different values, and
// two NaNs are equal only when their payloads match.
func (v Value) Equal(o Value) bool {
	return v.Type == o.Type && v.Bits == o.Bits
}

func (v Value) String() string {
	switch v.Type {
	case ValueTypeI32:
		return "i32:" + strconv.FormatInt(int64(v.I32()), 10)
	case ValueTypeI64:
		return "i64:" + strconv.FormatInt(v.I64(), 10)
	case ValueTypeF32:
		if v.IsNaN() {
			return fmt.Sprintf("f32:nan(0x%08x)", uint32(v.Bits))
		}
		return "f32:" + strconv.FormatFloat(float64(v.F32()), 'g', -1, 32)
	case ValueTypeF64:
		if v.IsNaN() {
			return fmt.Sprintf("f64:nan(0x%016x)", v.Bits)
		}
		return "f64:" + strconv.FormatFloat(v.F64(), 'g', -1, 64)
	case ValueTypeExternRef:
		if v.IsNull() {
			return "externref:null"
		}
		if key, ok := v.ExternKey(); ok {
			return "externref:" + strconv.FormatUint(uint64(key), 10)
		}
		return fmt.Sprintf("externref:0x%x", v.Bits)
	case ValueTypeFuncRef:
		if v.IsNull() {
			return "funcref:null"
		}
		return "funcref"
	}
	return fmt.Sprintf("%s:0x%x", v.Type, v.Bits)
}
