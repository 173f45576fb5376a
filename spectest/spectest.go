// Package spectest provides the built-in "spectest" environment that test
// modules import from.
//
// Functions are defined as a host module. Globals, the table and the memory
// come from a small synthesized module, since host modules can only export
// functions.
package spectest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/engine"
	"github.com/wippyai/wasm-linktest/errors"
	"github.com/wippyai/wasm-linktest/linker"
	"github.com/wippyai/wasm-linktest/wasm"
)

// Values of the built-in globals.
const (
	GlobalI32     int32  = 666
	GlobalF32Bits uint32 = 0x44268000         // 666.0
	GlobalF64Bits uint64 = 0x4084D00000000000 // 666.0
)

// Limits of the built-in table and memory.
var (
	TableType  = linktest.TableType{ElemType: linktest.ValueTypeFuncRef, Limits: linktest.Limits{Min: 10, Max: linktest.Max(20)}}
	MemoryType = linktest.MemoryType{Limits: linktest.Limits{Min: 1, Max: linktest.Max(2)}}
)

var (
	i32 = linktest.ValueTypeI32
	i64 = linktest.ValueTypeI64
	f32 = linktest.ValueTypeF32
	f64 = linktest.ValueTypeF64
	ext = linktest.ValueTypeExternRef
	fn  = linktest.ValueTypeFuncRef
)

// Instantiate defines the built-in environment in eng. Print functions
// write one line per call to sink; a nil sink discards output.
func Instantiate(ctx context.Context, eng engine.Engine, sink io.Writer) (*linker.Environment, error) {
	if sink == nil {
		sink = io.Discard
	}
	p := &printer{w: sink}

	host, err := eng.DefineHost(ctx, engine.HostModule{Name: linker.Builtin, Funcs: hostFuncs(p)})
	if err != nil {
		return nil, err
	}

	mod, err := eng.Compile(ctx, definitions())
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCompile, errors.KindUnexpected, err, "compile spectest definitions")
	}
	defs, err := eng.Instantiate(ctx, mod, nil)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseInstantiate, errors.KindUnexpected, err, "instantiate spectest definitions")
	}

	env := linker.EnvironmentOf(host.Exports())
	env.Merge(linker.EnvironmentOf(defs.Exports()))
	return env, nil
}

// definitions builds the module exporting the non-function members.
func definitions() []byte {
	b := wasm.NewBuilder()
	b.Export("global_i32", linktest.ExternGlobal, b.Global(linktest.GlobalType{ValueType: i32}, wasm.Expr(wasm.I32Const(GlobalI32))))
	b.Export("global_f32", linktest.ExternGlobal, b.Global(linktest.GlobalType{ValueType: f32}, wasm.Expr(wasm.F32Const(GlobalF32Bits))))
	b.Export("global_f64", linktest.ExternGlobal, b.Global(linktest.GlobalType{ValueType: f64}, wasm.Expr(wasm.F64Const(GlobalF64Bits))))
	b.Export("table", linktest.ExternTable, b.Table(TableType))
	b.Export("memory", linktest.ExternMemory, b.Memory(MemoryType))
	return b.Bytes()
}

func hostFuncs(p *printer) []engine.HostFunc {
	funcs := []engine.HostFunc{
		{Name: "externref", Type: sig([]linktest.ValueType{i32}, ext), Call: externref},
		{Name: "is_externref", Type: sig([]linktest.ValueType{ext}, i32), Call: isNonNull},
		{Name: "is_funcref", Type: sig([]linktest.ValueType{fn}, i32), Call: isNonNull},
		{Name: "eq_externref", Type: sig([]linktest.ValueType{ext, ext}, i32), Call: sameRef},
		{Name: "eq_funcref", Type: sig([]linktest.ValueType{fn, fn}, i32), Call: sameRef},
	}

	prints := []struct {
		name   string
		params []linktest.ValueType
	}{
		{"print", nil},
		{"print_i32", []linktest.ValueType{i32}},
		{"print_i64", []linktest.ValueType{i64}},
		{"print_f32", []linktest.ValueType{f32}},
		{"print_f64", []linktest.ValueType{f64}},
		{"print_i32_f32", []linktest.ValueType{i32, f32}},
		{"print_f64_f64", []linktest.ValueType{f64, f64}},
	}
	for _, pr := range prints {
		funcs = append(funcs, engine.HostFunc{
			Name: pr.name,
			Type: linktest.FuncType{Params: pr.params},
			Call: p.print(pr.name),
		})
	}
	return funcs
}

func sig(params []linktest.ValueType, result linktest.ValueType) linktest.FuncType {
	return linktest.FuncType{Params: params, Results: []linktest.ValueType{result}}
}

func externref(_ context.Context, args []linktest.Value) []linktest.Value {
	return []linktest.Value{linktest.ExternRef(uint32(args[0].I32()))}
}

func isNonNull(_ context.Context, args []linktest.Value) []linktest.Value {
	return []linktest.Value{boolI32(!args[0].IsNull())}
}

func sameRef(_ context.Context, args []linktest.Value) []linktest.Value {
	return []linktest.Value{boolI32(args[0].Bits == args[1].Bits)}
}

func boolI32(b bool) linktest.Value {
	if b {
		return linktest.I32(1)
	}
	return linktest.I32(0)
}

type printer struct {
	w  io.Writer
	mu sync.Mutex
}

func (p *printer) print(name string) func(context.Context, []linktest.Value) []linktest.Value {
	return func(_ context.Context, args []linktest.Value) []linktest.Value {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		p.mu.Lock()
		fmt.Fprintf(p.w, "%s(%s)\n", name, strings.Join(parts, ", "))
		p.mu.Unlock()
		return nil
	}
}
