package wasm

import (
	"math"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/wasm/internal/binary"
)

// Builder assembles small modules: the built-in environment's definitions,
// the stack-exhaustion probe, and test fixtures.
//
// Imports must be added before definitions of the same kind, since adding an
// import shifts the index space.
type Builder struct {
	m Module
}

// NewBuilder creates an empty module builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Type returns the index of a function type, adding it if needed.
func (b *Builder) Type(ft linktest.FuncType) uint32 {
	for i, t := range b.m.Types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	b.m.Types = append(b.m.Types, ft)
	return uint32(len(b.m.Types) - 1)
}

// ImportFunc adds a function import and returns its function index.
func (b *Builder) ImportFunc(module, name string, ft linktest.FuncType) uint32 {
	b.m.Imports = append(b.m.Imports, Import{
		Module:  module,
		Name:    name,
		Kind:    linktest.ExternFunc,
		TypeIdx: b.Type(ft),
	})
	return uint32(b.m.NumImported(linktest.ExternFunc) - 1)
}

// ImportTable adds a table import and returns its table index.
func (b *Builder) ImportTable(module, name string, tt linktest.TableType) uint32 {
	b.m.Imports = append(b.m.Imports, Import{Module: module, Name: name, Kind: linktest.ExternTable, Table: &tt})
	return uint32(b.m.NumImported(linktest.ExternTable) - 1)
}

// ImportMemory adds a memory import and returns its memory index.
func (b *Builder) ImportMemory(module, name string, mt linktest.MemoryType) uint32 {
	b.m.Imports = append(b.m.Imports, Import{Module: module, Name: name, Kind: linktest.ExternMemory, Memory: &mt})
	return uint32(b.m.NumImported(linktest.ExternMemory) - 1)
}

// ImportGlobal adds a global import and returns its global index.
func (b *Builder) ImportGlobal(module, name string, gt linktest.GlobalType) uint32 {
	b.m.Imports = append(b.m.Imports, Import{Module: module, Name: name, Kind: linktest.ExternGlobal, Global: &gt})
	return uint32(b.m.NumImported(linktest.ExternGlobal) - 1)
}

// Func defines a function whose body is the concatenation of code; the final
// end opcode is appended. It returns the function index.
func (b *Builder) Func(ft linktest.FuncType, locals []LocalEntry, code ...[]byte) uint32 {
	b.m.Funcs = append(b.m.Funcs, b.Type(ft))
	var body []byte
	for _, c := range code {
		body = append(body, c...)
	}
	body = append(body, OpEnd)
	b.m.Code = append(b.m.Code, FuncBody{Locals: locals, Code: body})
	return uint32(b.m.NumImported(linktest.ExternFunc) + len(b.m.Funcs) - 1)
}

// Table defines a table and returns its index.
func (b *Builder) Table(tt linktest.TableType) uint32 {
	b.m.Tables = append(b.m.Tables, tt)
	return uint32(b.m.NumImported(linktest.ExternTable) + len(b.m.Tables) - 1)
}

// Memory defines a memory and returns its index.
func (b *Builder) Memory(mt linktest.MemoryType) uint32 {
	b.m.Memories = append(b.m.Memories, mt)
	return uint32(b.m.NumImported(linktest.ExternMemory) + len(b.m.Memories) - 1)
}

// Global defines a global initialized by the const expression init and
// returns its index.
func (b *Builder) Global(gt linktest.GlobalType, init []byte) uint32 {
	b.m.Globals = append(b.m.Globals, Global{Type: gt, Init: init})
	return uint32(b.m.NumImported(linktest.ExternGlobal) + len(b.m.Globals) - 1)
}

// Export exports the entity of the given kind and index.
func (b *Builder) Export(name string, kind linktest.ExternKind, idx uint32) *Builder {
	b.m.Exports = append(b.m.Exports, Export{Name: name, Kind: kind, Idx: idx})
	return b
}

// Elem adds an active element segment writing funcs into table 0 at offset.
func (b *Builder) Elem(offset int32, funcs ...uint32) *Builder {
	b.m.Elements = append(b.m.Elements, Element{
		Offset:   Expr(I32Const(offset)),
		FuncIdxs: funcs,
		Type:     linktest.ValueTypeFuncRef,
	})
	return b
}

// ElemAt adds an active element segment for an explicit table index.
func (b *Builder) ElemAt(table uint32, offset int32, funcs ...uint32) *Builder {
	b.m.Elements = append(b.m.Elements, Element{
		Flags:    2,
		TableIdx: table,
		Offset:   Expr(I32Const(offset)),
		FuncIdxs: funcs,
		ElemKind: ElemKindFunc,
		Type:     linktest.ValueTypeFuncRef,
	})
	return b
}

// Data adds an active data segment for memory 0 at offset.
func (b *Builder) Data(offset int32, init []byte) *Builder {
	b.m.Data = append(b.m.Data, DataSegment{Offset: Expr(I32Const(offset)), Init: init})
	return b
}

// Start sets the start function.
func (b *Builder) Start(funcIdx uint32) *Builder {
	b.m.Start = &funcIdx
	return b
}

// Module returns the module built so far.
func (b *Builder) Module() *Module {
	return &b.m
}

// Bytes encodes the module.
func (b *Builder) Bytes() []byte {
	return b.m.Encode()
}

// Expr joins instructions into a const expression terminated by end.
func Expr(instrs ...[]byte) []byte {
	var out []byte
	for _, in := range instrs {
		out = append(out, in...)
	}
	return append(out, OpEnd)
}

// Op returns a single opcode followed by unsigned LEB128 immediates.
func Op(opcode byte, immediates ...uint32) []byte {
	w := binary.NewWriter()
	w.Byte(opcode)
	for _, imm := range immediates {
		w.WriteU32(imm)
	}
	return w.Bytes()
}

// I32Const encodes i32.const v.
func I32Const(v int32) []byte {
	w := binary.NewWriter()
	w.Byte(OpI32Const)
	w.WriteS64(int64(v))
	return w.Bytes()
}

// I64Const encodes i64.const v.
func I64Const(v int64) []byte {
	w := binary.NewWriter()
	w.Byte(OpI64Const)
	w.WriteS64(v)
	return w.Bytes()
}

// F32Const encodes f32.const with the given bit pattern.
func F32Const(bits uint32) []byte {
	w := binary.NewWriter()
	w.Byte(OpF32Const)
	w.WriteU32LE(bits)
	return w.Bytes()
}

// F64Const encodes f64.const with the given bit pattern.
func F64Const(bits uint64) []byte {
	w := binary.NewWriter()
	w.Byte(OpF64Const)
	w.WriteU64LE(bits)
	return w.Bytes()
}

// F32ConstOf encodes f32.const v.
func F32ConstOf(v float32) []byte {
	return F32Const(math.Float32bits(v))
}

// F64ConstOf encodes f64.const v.
func F64ConstOf(v float64) []byte {
	return F64Const(math.Float64bits(v))
}

// RefNull encodes ref.null t.
func RefNull(t linktest.ValueType) []byte {
	return []byte{OpRefNull, byte(t)}
}
