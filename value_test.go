package linktest

import (
	"math"
	"testing"
)

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"same i32", I32(42), I32(42), true},
		{"different i32", I32(42), I32(43), false},
		{"i32 vs i64", I32(1), I64(1), false},
		{"zero sign f32", F32(0), F32(float32(math.Copysign(0, -1))), false},
		{"zero sign f64", F64(0), F64(math.Copysign(0, -1)), false},
		{"negative zero f64", F64(math.Copysign(0, -1)), F64(math.Copysign(0, -1)), true},
		{"nan payloads", F32Bits(0x7fc00000), F32Bits(0x7fa00000), false},
		{"externref keys", ExternRef(1), ExternRef(1), true},
		{"externref null", NullRef(ValueTypeExternRef), ExternRef(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.equal)
			}
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	if got := I32(-1).I32(); got != -1 {
		t.Errorf("I32(-1).I32() = %d", got)
	}
	if got := I32(-1).Bits; got != 0xffffffff {
		t.Errorf("I32(-1).Bits = %#x, want 0xffffffff", got)
	}
	if got := I64(-2).I64(); got != -2 {
		t.Errorf("I64(-2).I64() = %d", got)
	}
	if got := F32(666).F32(); got != 666 {
		t.Errorf("F32(666).F32() = %v", got)
	}
	if got := F64(666).Bits; got != 0x4084d00000000000 {
		t.Errorf("F64(666).Bits = %#x", got)
	}
	if got := F32(666).Bits; got != 0x44268000 {
		t.Errorf("F32(666).Bits = %#x", got)
	}
}

func TestValue_NaNAndNull(t *testing.T) {
	if !F32Bits(0x7fc00000).IsNaN() {
		t.Error("canonical f32 NaN not detected")
	}
	if !F64Bits(0xfff0000000000001).IsNaN() {
		t.Error("negative f64 NaN not detected")
	}
	if I32(0x7fc00000).IsNaN() {
		t.Error("i32 should never be NaN")
	}
	if !NullRef(ValueTypeFuncRef).IsNull() {
		t.Error("null funcref not detected")
	}
	if I32(0).IsNull() {
		t.Error("i32 zero is not a null reference")
	}
	if ExternRef(0).IsNull() {
		t.Error("externref key 0 must not be null")
	}
}

func TestValue_ExternKey(t *testing.T) {
	key, ok := ExternRef(7).ExternKey()
	if !ok || key != 7 {
		t.Errorf("ExternKey() = %d, %v; want 7, true", key, ok)
	}
	if _, ok := NullRef(ValueTypeExternRef).ExternKey(); ok {
		t.Error("null externref has no key")
	}
	if _, ok := I32(3).ExternKey(); ok {
		t.Error("i32 has no extern key")
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{I32(-5), "i32:-5"},
		{I64(1 << 40), "i64:1099511627776"},
		{F32(1.5), "f32:1.5"},
		{F64(math.Copysign(0, -1)), "f64:-0"},
		{F32Bits(0x7fc00000), "f32:nan(0x7fc00000)"},
		{NullRef(ValueTypeExternRef), "externref:null"},
		{ExternRef(3), "externref:3"},
		{NullRef(ValueTypeFuncRef), "funcref:null"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseValueType(t *testing.T) {
	for _, name := range []string{"i32", "i64", "f32", "f64", "funcref", "externref"} {
		vt, err := ParseValueType(name)
		if err != nil {
			t.Fatalf("ParseValueType(%q): %v", name, err)
		}
		if vt.String() != name {
			t.Errorf("round trip %q -> %q", name, vt.String())
		}
	}
	if vt, err := ParseValueType("anyfunc"); err != nil || vt != ValueTypeFuncRef {
		t.Errorf("anyfunc = %v, %v", vt, err)
	}
	if _, err := ParseValueType("v128"); err == nil {
		t.Error("expected error for unsupported type")
	}
}
