package linktest

import (
	"fmt"
	"strings"
)

// ExternKind identifies what an export or import refers to.
// Values match the binary import/export descriptor kinds.
type ExternKind byte

const (
	ExternFunc   ExternKind = 0
	ExternTable  ExternKind = 1
	ExternMemory ExternKind = 2
	ExternGlobal ExternKind = 3
)

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	case ExternGlobal:
		return "global"
	default:
		return fmt.Sprintf("extern(%d)", byte(k))
	}
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal reports whether both signatures have identical params and results.
func (f FuncType) Equal(o FuncType) bool {
	return valueTypesEqual(f.Params, o.Params) && valueTypesEqual(f.Results, o.Results)
}

func (f FuncType) String() string {
	return "(" + joinTypes(f.Params) + ") -> (" + joinTypes(f.Results) + ")"
}

func valueTypesEqual(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func joinTypes(ts []ValueType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// Limits bounds the size of a table (in elements) or memory (in pages).
type Limits struct {
	Max *uint64
	Min uint64
}

// Max returns a pointer to v, for building Limits literals.
func Max(v uint64) *uint64 {
	return &v
}

// Satisfies reports whether an entity with these limits can be imported
// where want is declared: its minimum must cover want's minimum, and if want
// declares a maximum, this must declare one no larger.
func (l Limits) Satisfies(want Limits) bool {
	if l.Min < want.Min {
		return false
	}
	if want.Max == nil {
		return true
	}
	return l.Max != nil && *l.Max <= *want.Max
}

func (l Limits) String() string {
	if l.Max == nil {
		return fmt.Sprintf("%d..", l.Min)
	}
	return fmt.Sprintf("%d..%d", l.Min, *l.Max)
}

// TableType describes a table.
type TableType struct {
	Limits   Limits
	ElemType ValueType
}

// MemoryType describes a linear memory, sized in 64KiB pages.
type MemoryType struct {
	Limits Limits
}

// GlobalType describes a global.
type GlobalType struct {
	ValueType ValueType
	Mutable   bool
}

func (g GlobalType) String() string {
	if g.Mutable {
		return "(mut " + g.ValueType.String() + ")"
	}
	return g.ValueType.String()
}

// Extern is an exported entity. It names the engine-level instance that owns
// the entity and the export name inside that owner, so an entity re-exported
// through several modules keeps pointing at its definition.
//
// Exactly one of the type fields is set, selected by Kind.
type Extern struct {
	Func   *FuncType
	Table  *TableType
	Memory *MemoryType
	Global *GlobalType
	Owner  string
	Name   string
	Kind   ExternKind
}

func (e Extern) String() string {
	var typ string
	switch e.Kind {
	case ExternFunc:
		if e.Func != nil {
			typ = e.Func.String()
		}
	case ExternTable:
		if e.Table != nil {
			typ = e.Table.ElemType.String() + " " + e.Table.Limits.String()
		}
	case ExternMemory:
		if e.Memory != nil {
			typ = e.Memory.Limits.String()
		}
	case ExternGlobal:
		if e.Global != nil {
			typ = e.Global.String()
		}
	}
	return fmt.Sprintf("%s %s.%s %s", e.Kind, e.Owner, e.Name, typ)
}
