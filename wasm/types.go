package wasm

import (
	"fmt"

	linktest "github.com/wippyai/wasm-linktest"
)

// Module is a decoded module. Function bodies, segment payloads and const
// expressions are kept as raw bytes; only the parts needed to link and to
// re-encode the module are modeled.
type Module struct {
	Start          *uint32
	DataCount      *uint32
	Types          []linktest.FuncType
	Imports        []Import
	Funcs          []uint32 // type indices of defined functions
	Tables         []linktest.TableType
	Memories       []linktest.MemoryType
	Globals        []Global
	Exports        []Export
	Elements       []Element
	Code           []FuncBody
	Data           []DataSegment
	CustomSections []CustomSection
}

// Import is an import declaration. Exactly one descriptor is set for
// non-function kinds; functions use TypeIdx.
type Import struct {
	Table   *linktest.TableType
	Memory  *linktest.MemoryType
	Global  *linktest.GlobalType
	Module  string
	Name    string
	TypeIdx uint32
	Kind    linktest.ExternKind
}

// Global is a module-defined global with its raw init expression,
// terminated by OpEnd.
type Global struct {
	Init []byte
	Type linktest.GlobalType
}

// Export describes an exported item.
type Export struct {
	Name string
	Idx  uint32
	Kind linktest.ExternKind
}

// Element represents an element segment.
// Flags determine the format:
//   - 0: active, tableIdx=0, offset expr, vec(funcidx)
//   - 1: passive, elemkind, vec(funcidx)
//   - 2: active, tableIdx, offset expr, elemkind, vec(funcidx)
//   - 3: declarative, elemkind, vec(funcidx)
//   - 4: active, tableIdx=0, offset expr, vec(expr)
//   - 5: passive, reftype, vec(expr)
//   - 6: active, tableIdx, offset expr, reftype, vec(expr)
//   - 7: declarative, reftype, vec(expr)
type Element struct {
	Offset   []byte
	FuncIdxs []uint32
	Exprs    [][]byte
	Flags    uint32
	TableIdx uint32
	ElemKind byte
	Type     linktest.ValueType
}

// FuncBody holds a function's local declarations and its code, including the
// final end opcode.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// LocalEntry declares Count locals of one type.
type LocalEntry struct {
	Count uint32
	Type  linktest.ValueType
}

// DataSegment represents a data segment.
// Flags: 0 active on memory 0, 1 passive, 2 active with explicit memory index.
type DataSegment struct {
	Offset []byte
	Init   []byte
	Flags  uint32
	MemIdx uint32
}

// CustomSection holds a named custom section's data.
type CustomSection struct {
	Name string
	Data []byte
}

// NumImported counts imports of the given kind.
func (m *Module) NumImported(kind linktest.ExternKind) int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == kind {
			n++
		}
	}
	return n
}

// FuncType returns the signature of the function at funcIdx in the function
// index space, where imported functions come first.
func (m *Module) FuncType(funcIdx uint32) (*linktest.FuncType, error) {
	var typeIdx uint32
	found := false
	var n uint32
	for _, imp := range m.Imports {
		if imp.Kind != linktest.ExternFunc {
			continue
		}
		if n == funcIdx {
			typeIdx, found = imp.TypeIdx, true
			break
		}
		n++
	}
	if !found {
		local := funcIdx - n
		if funcIdx < n || int(local) >= len(m.Funcs) {
			return nil, fmt.Errorf("function index %d out of range", funcIdx)
		}
		typeIdx = m.Funcs[local]
	}
	if int(typeIdx) >= len(m.Types) {
		return nil, fmt.Errorf("type index %d out of range", typeIdx)
	}
	ft := m.Types[typeIdx]
	return &ft, nil
}

// ImportType returns the extern descriptor an import requires.
func (m *Module) ImportType(imp Import) (linktest.Extern, error) {
	ext := linktest.Extern{Kind: imp.Kind}
	switch imp.Kind {
	case linktest.ExternFunc:
		if int(imp.TypeIdx) >= len(m.Types) {
			return ext, fmt.Errorf("import %s.%s: type index %d out of range", imp.Module, imp.Name, imp.TypeIdx)
		}
		ft := m.Types[imp.TypeIdx]
		ext.Func = &ft
	case linktest.ExternTable:
		ext.Table = imp.Table
	case linktest.ExternMemory:
		ext.Memory = imp.Memory
	case linktest.ExternGlobal:
		ext.Global = imp.Global
	}
	return ext, nil
}

// ExportType returns the extern descriptor of an export. Owner and Name are
// left for the caller to fill in.
func (m *Module) ExportType(e Export) (linktest.Extern, error) {
	ext := linktest.Extern{Kind: e.Kind}
	switch e.Kind {
	case linktest.ExternFunc:
		ft, err := m.FuncType(e.Idx)
		if err != nil {
			return ext, fmt.Errorf("export %q: %w", e.Name, err)
		}
		ext.Func = ft
	case linktest.ExternTable:
		t, ok := indexSpace(m, linktest.ExternTable, e.Idx, m.Tables, func(imp Import) linktest.TableType { return *imp.Table })
		if !ok {
			return ext, fmt.Errorf("export %q: table index %d out of range", e.Name, e.Idx)
		}
		ext.Table = &t
	case linktest.ExternMemory:
		mt, ok := indexSpace(m, linktest.ExternMemory, e.Idx, m.Memories, func(imp Import) linktest.MemoryType { return *imp.Memory })
		if !ok {
			return ext, fmt.Errorf("export %q: memory index %d out of range", e.Name, e.Idx)
		}
		ext.Memory = &mt
	case linktest.ExternGlobal:
		defined := make([]linktest.GlobalType, len(m.Globals))
		for i, g := range m.Globals {
			defined[i] = g.Type
		}
		gt, ok := indexSpace(m, linktest.ExternGlobal, e.Idx, defined, func(imp Import) linktest.GlobalType { return *imp.Global })
		if !ok {
			return ext, fmt.Errorf("export %q: global index %d out of range", e.Name, e.Idx)
		}
		ext.Global = &gt
	default:
		return ext, fmt.Errorf("export %q: unknown kind %d", e.Name, e.Kind)
	}
	return ext, nil
}

// indexSpace looks up idx in an index space made of the imports of kind
// followed by the module's own definitions.
func indexSpace[T any](m *Module, kind linktest.ExternKind, idx uint32, defined []T, fromImport func(Import) T) (T, bool) {
	var n uint32
	for _, imp := range m.Imports {
		if imp.Kind != kind {
			continue
		}
		if n == idx {
			return fromImport(imp), true
		}
		n++
	}
	var zero T
	local := idx - n
	if idx < n || int(local) >= len(defined) {
		return zero, false
	}
	return defined[local], true
}
