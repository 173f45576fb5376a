package engine

import (
	"github.com/tetratelabs/wazero/api"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/errors"
)

// The binary encodings of value types are shared by linktest.ValueType and
// api.ValueType, so conversion is a plain cast. api has no funcref constant.

func apiTypes(ts []linktest.ValueType) []api.ValueType {
	out := make([]api.ValueType, len(ts))
	for i, t := range ts {
		out[i] = api.ValueType(t)
	}
	return out
}

func fromRaw(t linktest.ValueType, raw uint64) linktest.Value {
	switch t {
	case linktest.ValueTypeI32, linktest.ValueTypeF32:
		raw &= 0xFFFFFFFF
	}
	return linktest.Value{Type: t, Bits: raw}
}

func fromStack(types []api.ValueType, raw []uint64) []linktest.Value {
	out := make([]linktest.Value, len(types))
	for i, t := range types {
		out[i] = fromRaw(linktest.ValueType(t), raw[i])
	}
	return out
}

func toStack(name string, types []api.ValueType, args []linktest.Value) ([]uint64, error) {
	if len(args) != len(types) {
		return nil, errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
			Path(name).
			Detail("expected %d arguments, got %d", len(types), len(args)).
			Build()
	}
	out := make([]uint64, len(args))
	for i, arg := range args {
		want := linktest.ValueType(types[i])
		if arg.Type != want {
			return nil, errors.TypeMismatch(errors.PhaseInvoke, []string{name}, want.String(), arg.Type.String())
		}
		out[i] = arg.Bits
	}
	return out, nil
}
