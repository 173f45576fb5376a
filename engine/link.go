package engine

import (
	"fmt"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/errors"
	"github.com/wippyai/wasm-linktest/wasm"
)

const pageSize = 65536

// checkImports matches every resolved extern against the import it fills.
// All checks run before any module code does, so a failure here is always
// an unlinkable module.
func (e *Wazero) checkImports(want []Import, got []*linktest.Extern) error {
	for i, imp := range want {
		path := []string{fmt.Sprintf("import[%d]", i), imp.Module, imp.Name}
		ext := got[i]
		if ext == nil {
			return errors.Unlinkable(path, "unknown import %s.%s", imp.Module, imp.Name)
		}
		if ext.Kind != imp.Type.Kind {
			return errors.Unlinkable(path, "incompatible import type: expected %s, got %s", imp.Type.Kind, ext.Kind)
		}
		if err := e.checkExtern(imp.Type, *ext); err != nil {
			return errors.New(errors.PhaseLink, errors.KindUnlinkable).
				Path(path...).
				Value(ext.String()).
				Detail("incompatible import type: %s", err).
				Build()
		}
	}
	return nil
}

func (e *Wazero) checkExtern(want, got linktest.Extern) error {
	switch want.Kind {
	case linktest.ExternFunc:
		if got.Func == nil || !want.Func.Equal(*got.Func) {
			return fmt.Errorf("signature mismatch: expected %s, got %s", want.Func, describeFunc(got.Func))
		}
	case linktest.ExternGlobal:
		if got.Global == nil || *want.Global != *got.Global {
			return fmt.Errorf("global type mismatch: expected %s, got %s", want.Global, describeGlobal(got.Global))
		}
	case linktest.ExternTable:
		if got.Table == nil {
			return fmt.Errorf("missing table type")
		}
		if want.Table.ElemType != got.Table.ElemType {
			return fmt.Errorf("element type mismatch: expected %s, got %s", want.Table.ElemType, got.Table.ElemType)
		}
		if !got.Table.Limits.Satisfies(want.Table.Limits) {
			return fmt.Errorf("table limits mismatch: expected %s, got %s", want.Table.Limits, got.Table.Limits)
		}
	case linktest.ExternMemory:
		if got.Memory == nil {
			return fmt.Errorf("missing memory type")
		}
		limits := got.Memory.Limits
		if pages, ok := e.memoryPages(got); ok {
			limits.Min = pages
		}
		if !limits.Satisfies(want.Memory.Limits) {
			return fmt.Errorf("memory limits mismatch: expected %s, got %s", want.Memory.Limits, limits)
		}
	}
	return nil
}

// checkSegments verifies that every active element segment fits its table,
// in segment order. Segments whose offset cannot be evaluated are left to
// wazero.
func (e *Wazero) checkSegments(m *wasm.Module, imports []*linktest.Extern) error {
	for i, elem := range m.Elements {
		if !elem.Active() {
			continue
		}
		offset, ok := e.segmentOffset(m, imports, elem.Offset)
		if !ok {
			continue
		}
		size, ok := tableSize(m, imports, elem.TableIdx)
		if !ok {
			continue
		}
		if uint64(offset)+uint64(elem.Len()) > size {
			return fmt.Errorf("out of bounds table access: element segment %d writes %d entries at offset %d into table %d of size %d",
				i, elem.Len(), offset, elem.TableIdx, size)
		}
	}
	return nil
}

// segmentOffset evaluates an offset expression. Imported globals are read
// from their defining instance.
func (e *Wazero) segmentOffset(m *wasm.Module, imports []*linktest.Extern, expr []byte) (uint32, bool) {
	off, err := wasm.ParseOffset(expr)
	if err != nil {
		return 0, false
	}
	if !off.IsGlobal {
		return uint32(off.Value), true
	}

	if i, ok := importIndex(m, linktest.ExternGlobal, off.Global); ok {
		ext := imports[i]
		mod := e.lookup(ext.Owner)
		if mod == nil {
			return 0, false
		}
		g := mod.ExportedGlobal(ext.Name)
		if g == nil {
			return 0, false
		}
		return uint32(g.Get()), true
	}

	local := int(off.Global) - m.NumImported(linktest.ExternGlobal)
	if local < 0 || local >= len(m.Globals) {
		return 0, false
	}
	init, err := wasm.ParseOffset(m.Globals[local].Init)
	if err != nil || init.IsGlobal {
		return 0, false
	}
	return uint32(init.Value), true
}

// tableSize returns the element count of a table at instantiation. Imported
// tables report the exporter's declared minimum; wazero exposes no live
// table size.
func tableSize(m *wasm.Module, imports []*linktest.Extern, idx uint32) (uint64, bool) {
	if i, ok := importIndex(m, linktest.ExternTable, idx); ok {
		if imports[i].Table == nil {
			return 0, false
		}
		return imports[i].Table.Limits.Min, true
	}
	local := int(idx) - m.NumImported(linktest.ExternTable)
	if local < 0 || local >= len(m.Tables) {
		return 0, false
	}
	return m.Tables[local].Limits.Min, true
}

// memoryPages reports the live size of an exported memory, which may have
// grown past its declared minimum.
func (e *Wazero) memoryPages(ext linktest.Extern) (uint64, bool) {
	mod := e.lookup(ext.Owner)
	if mod == nil {
		return 0, false
	}
	mem := mod.ExportedMemory(ext.Name)
	if mem == nil {
		return 0, false
	}
	return uint64(mem.Size()) / pageSize, true
}

func describeFunc(ft *linktest.FuncType) string {
	if ft == nil {
		return "none"
	}
	return ft.String()
}

func describeGlobal(gt *linktest.GlobalType) string {
	if gt == nil {
		return "none"
	}
	return gt.String()
}
