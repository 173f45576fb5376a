package spectest_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/engine"
	"github.com/wippyai/wasm-linktest/linker"
	"github.com/wippyai/wasm-linktest/spectest"
	"github.com/wippyai/wasm-linktest/wasm"
)

func setup(t *testing.T) (*engine.Wazero, *linker.Registry, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	eng, err := engine.NewWazero(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close(ctx) })

	var sink bytes.Buffer
	env, err := spectest.Instantiate(ctx, eng, &sink)
	require.NoError(t, err)
	return eng, linker.NewRegistry(env), &sink
}

func TestEnvironmentContents(t *testing.T) {
	_, reg, _ := setup(t)
	env := reg.Environment(linker.Builtin)

	want := map[string]linktest.ExternKind{
		"print":         linktest.ExternFunc,
		"print_i32":     linktest.ExternFunc,
		"print_f64_f64": linktest.ExternFunc,
		"externref":     linktest.ExternFunc,
		"eq_funcref":    linktest.ExternFunc,
		"global_i32":    linktest.ExternGlobal,
		"global_f32":    linktest.ExternGlobal,
		"global_f64":    linktest.ExternGlobal,
		"table":         linktest.ExternTable,
		"memory":        linktest.ExternMemory,
	}
	for name, kind := range want {
		ext, ok := env.Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, kind, ext.Kind, name)
	}

	table, _ := env.Lookup("table")
	require.Equal(t, "10..20", table.Table.Limits.String())
	memory, _ := env.Lookup("memory")
	require.Equal(t, "1..2", memory.Memory.Limits.String())
}

func TestGlobalsAndPrint(t *testing.T) {
	eng, reg, sink := setup(t)
	ctx := context.Background()
	i32 := linktest.ValueTypeI32
	f64 := linktest.ValueTypeF64

	b := wasm.NewBuilder()
	gi := b.ImportGlobal("spectest", "global_i32", linktest.GlobalType{ValueType: i32})
	gf := b.ImportGlobal("spectest", "global_f64", linktest.GlobalType{ValueType: f64})
	printI32 := b.ImportFunc("spectest", "print_i32", linktest.FuncType{Params: []linktest.ValueType{i32}})
	b.ImportMemory("spectest", "memory", linktest.MemoryType{Limits: linktest.Limits{Min: 1}})
	get := b.Func(linktest.FuncType{Results: []linktest.ValueType{i32}}, nil, wasm.Op(wasm.OpGlobalGet, gi))
	getF := b.Func(linktest.FuncType{Results: []linktest.ValueType{f64}}, nil, wasm.Op(wasm.OpGlobalGet, gf))
	say := b.Func(linktest.FuncType{}, nil, wasm.I32Const(7), wasm.Op(wasm.OpCall, printI32))
	b.Export("get", linktest.ExternFunc, get)
	b.Export("get_f64", linktest.ExternFunc, getF)
	b.Export("say", linktest.ExternFunc, say)

	mod, err := eng.Compile(ctx, b.Bytes())
	require.NoError(t, err)
	inst, err := linker.New(eng).Instantiate(ctx, mod, reg)
	require.NoError(t, err)

	got, err := eng.Invoke(ctx, inst.Handle(), "get", nil)
	require.NoError(t, err)
	require.Equal(t, []linktest.Value{linktest.I32(spectest.GlobalI32)}, got)

	got, err = eng.Invoke(ctx, inst.Handle(), "get_f64", nil)
	require.NoError(t, err)
	require.Equal(t, []linktest.Value{linktest.F64(666)}, got)

	_, err = eng.Invoke(ctx, inst.Handle(), "say", nil)
	require.NoError(t, err)
	require.Equal(t, "print_i32(i32:7)\n", sink.String())
}

func TestExternrefHelpers(t *testing.T) {
	eng, reg, _ := setup(t)
	ctx := context.Background()
	i32 := linktest.ValueTypeI32
	ext := linktest.ValueTypeExternRef

	b := wasm.NewBuilder()
	mk := b.ImportFunc("spectest", "externref", linktest.FuncType{Params: []linktest.ValueType{i32}, Results: []linktest.ValueType{ext}})
	is := b.ImportFunc("spectest", "is_externref", linktest.FuncType{Params: []linktest.ValueType{ext}, Results: []linktest.ValueType{i32}})
	eq := b.ImportFunc("spectest", "eq_externref", linktest.FuncType{Params: []linktest.ValueType{ext, ext}, Results: []linktest.ValueType{i32}})
	b.Export("externref", linktest.ExternFunc, mk)
	b.Export("is_externref", linktest.ExternFunc, is)
	b.Export("eq_externref", linktest.ExternFunc, eq)

	mod, err := eng.Compile(ctx, b.Bytes())
	require.NoError(t, err)
	inst, err := linker.New(eng).Instantiate(ctx, mod, reg)
	require.NoError(t, err)
	h := inst.Handle()

	got, err := eng.Invoke(ctx, h, "externref", []linktest.Value{linktest.I32(5)})
	require.NoError(t, err)
	require.Equal(t, []linktest.Value{linktest.ExternRef(5)}, got)

	got, err = eng.Invoke(ctx, h, "is_externref", []linktest.Value{linktest.ExternRef(0)})
	require.NoError(t, err)
	require.Equal(t, []linktest.Value{linktest.I32(1)}, got)

	got, err = eng.Invoke(ctx, h, "is_externref", []linktest.Value{linktest.NullRef(ext)})
	require.NoError(t, err)
	require.Equal(t, []linktest.Value{linktest.I32(0)}, got)

	got, err = eng.Invoke(ctx, h, "eq_externref", []linktest.Value{linktest.ExternRef(1), linktest.ExternRef(1)})
	require.NoError(t, err)
	require.Equal(t, []linktest.Value{linktest.I32(1)}, got)

	got, err = eng.Invoke(ctx, h, "eq_externref", []linktest.Value{linktest.ExternRef(1), linktest.ExternRef(2)})
	require.NoError(t, err)
	require.Equal(t, []linktest.Value{linktest.I32(0)}, got)
}
