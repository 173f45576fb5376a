package wasm

import (
	"errors"
	"fmt"
	"io"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("magic header not detected")
	ErrInvalidVersion = errors.New("unknown binary version")
	ErrMalformed      = errors.New("malformed module")
)

// ParseModule decodes the structure of a binary module. It rejects byte
// streams that cannot be decoded at all: bad header, truncated or oversized
// sections, unknown section ids or out-of-order sections, bad LEB128 integers,
// invalid names, unknown kinds and value types, and inconsistent section
// counts. It does not type-check function bodies; that is validation.
//
// Every error returned wraps ErrMalformed.
func ParseModule(data []byte) (*Module, error) {
	m, err := parseModule(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return m, nil
}

func parseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	var lastSectionOrder int
	var sawFunction, sawCode bool

	for {
		sectionID, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, r.WrapError("section header", err)
		}

		if sectionID != SectionCustom {
			order := sectionOrder(sectionID)
			if order == 0 {
				return nil, fmt.Errorf("malformed section id: 0x%02x", sectionID)
			}
			if order <= lastSectionOrder {
				return nil, fmt.Errorf("section %d appears out of order", sectionID)
			}
			lastSectionOrder = order
		}

		sectionSize, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}

		sectionData, err := r.ReadBytes(int(sectionSize))
		if err != nil {
			return nil, r.WrapError("section data", err)
		}

		sr := binary.NewReader(sectionData)

		switch sectionID {
		case SectionCustom:
			err = parseCustomSection(sr, m)
		case SectionType:
			err = parseTypeSection(sr, m)
		case SectionImport:
			err = parseImportSection(sr, m)
		case SectionFunction:
			sawFunction = true
			err = parseFunctionSection(sr, m)
		case SectionTable:
			err = parseTableSection(sr, m)
		case SectionMemory:
			err = parseMemorySection(sr, m)
		case SectionGlobal:
			err = parseGlobalSection(sr, m)
		case SectionExport:
			err = parseExportSection(sr, m)
		case SectionStart:
			err = parseStartSection(sr, m)
		case SectionElement:
			err = parseElementSection(sr, m)
		case SectionDataCount:
			err = parseDataCountSection(sr, m)
		case SectionCode:
			sawCode = true
			err = parseCodeSection(sr, m)
		case SectionData:
			err = parseDataSection(sr, m)
		}
		if err != nil {
			return nil, fmt.Errorf("%s section: %w", sectionName(sectionID), err)
		}
		if sr.Len() != 0 {
			return nil, fmt.Errorf("%s section: section size mismatch (%d bytes left)", sectionName(sectionID), sr.Len())
		}
	}

	if (sawFunction || sawCode) && len(m.Funcs) != len(m.Code) {
		return nil, fmt.Errorf("function and code section have inconsistent lengths (%d, %d)", len(m.Funcs), len(m.Code))
	}
	if m.DataCount != nil && int(*m.DataCount) != len(m.Data) {
		return nil, fmt.Errorf("data count and data section have inconsistent lengths (%d, %d)", *m.DataCount, len(m.Data))
	}

	return m, nil
}

// sectionOrder returns the canonical ordering for a section ID, or 0 for an
// unknown ID. DataCount sits between Element and Code.
func sectionOrder(id byte) int {
	switch id {
	case SectionType:
		return 1
	case SectionImport:
		return 2
	case SectionFunction:
		return 3
	case SectionTable:
		return 4
	case SectionMemory:
		return 5
	case SectionGlobal:
		return 6
	case SectionExport:
		return 7
	case SectionStart:
		return 8
	case SectionElement:
		return 9
	case SectionDataCount:
		return 10
	case SectionCode:
		return 11
	case SectionData:
		return 12
	default:
		return 0
	}
}

func sectionName(id byte) string {
	switch id {
	case SectionCustom:
		return "custom"
	case SectionType:
		return "type"
	case SectionImport:
		return "import"
	case SectionFunction:
		return "function"
	case SectionTable:
		return "table"
	case SectionMemory:
		return "memory"
	case SectionGlobal:
		return "global"
	case SectionExport:
		return "export"
	case SectionStart:
		return "start"
	case SectionElement:
		return "element"
	case SectionDataCount:
		return "data count"
	case SectionCode:
		return "code"
	case SectionData:
		return "data"
	}
	return fmt.Sprintf("section(%d)", id)
}

func parseCustomSection(r *binary.Reader, m *Module) error {
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	m.CustomSections = append(m.CustomSections, CustomSection{
		Name: name,
		Data: r.ReadRemaining(),
	})
	return nil
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Types = make([]linktest.FuncType, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return err
		}
		if form != FuncTypeByte {
			return fmt.Errorf("malformed type form 0x%02x at index %d", form, i)
		}
		params, err := readValTypes(r)
		if err != nil {
			return err
		}
		results, err := readValTypes(r)
		if err != nil {
			return err
		}
		m.Types = append(m.Types, linktest.FuncType{Params: params, Results: results})
	}
	return nil
}

func parseImportSection(r *binary.Reader, m *Module) error {
	imports, err := readImports(r)
	if err != nil {
		return err
	}
	m.Imports = imports
	return nil
}

func readImports(r *binary.Reader) ([]Import, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	imports := make([]Import, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		module, err := r.ReadName()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadName()
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}

		imp := Import{Module: module, Name: name, Kind: linktest.ExternKind(kind)}

		switch imp.Kind {
		case linktest.ExternFunc:
			imp.TypeIdx, err = r.ReadU32()
		case linktest.ExternTable:
			var table linktest.TableType
			table, err = readTableType(r)
			imp.Table = &table
		case linktest.ExternMemory:
			var memory linktest.MemoryType
			memory, err = readMemoryType(r)
			imp.Memory = &memory
		case linktest.ExternGlobal:
			var global linktest.GlobalType
			global, err = readGlobalType(r)
			imp.Global = &global
		default:
			return nil, fmt.Errorf("malformed import kind: 0x%02x", kind)
		}
		if err != nil {
			return nil, err
		}

		imports = append(imports, imp)
	}
	return imports, nil
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Funcs = make([]uint32, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Funcs = append(m.Funcs, idx)
	}
	return nil
}

func parseTableSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		t, err := readTableType(r)
		if err != nil {
			return err
		}
		m.Tables = append(m.Tables, t)
	}
	return nil
}

func parseMemorySection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		mt, err := readMemoryType(r)
		if err != nil {
			return err
		}
		m.Memories = append(m.Memories, mt)
	}
	return nil
}

func parseGlobalSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		globalType, err := readGlobalType(r)
		if err != nil {
			return err
		}
		init, err := readInitExpr(r)
		if err != nil {
			return err
		}
		m.Globals = append(m.Globals, Global{Type: globalType, Init: init})
	}
	return nil
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > byte(linktest.ExternGlobal) {
			return fmt.Errorf("malformed export kind: 0x%02x", kind)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: linktest.ExternKind(kind), Idx: idx})
	}
	return nil
}

func parseStartSection(r *binary.Reader, m *Module) error {
	idx, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Start = &idx
	return nil
}

func parseElementSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadU32()
		if err != nil {
			return err
		}
		if flags > 7 {
			return fmt.Errorf("malformed elements segment kind: %d", flags)
		}

		elem := Element{Flags: flags, Type: linktest.ValueTypeFuncRef}

		// Bit 0: passive/declarative (no table index or offset)
		// Bit 1: explicit table index (active) or declarative (non-active)
		// Bit 2: element expressions instead of function indices
		hasTableIdx := flags&0x02 != 0 && flags&0x01 == 0
		hasOffset := flags&0x01 == 0
		usesExprs := flags&0x04 != 0

		if hasTableIdx {
			elem.TableIdx, err = r.ReadU32()
			if err != nil {
				return err
			}
		}

		if hasOffset {
			elem.Offset, err = readInitExpr(r)
			if err != nil {
				return err
			}
		}

		if flags&0x03 != 0 {
			if usesExprs {
				t, err := readRefType(r)
				if err != nil {
					return err
				}
				elem.Type = t
			} else {
				elem.ElemKind, err = r.ReadByte()
				if err != nil {
					return err
				}
				if elem.ElemKind != ElemKindFunc {
					return fmt.Errorf("malformed element kind 0x%02x", elem.ElemKind)
				}
			}
		}

		vecCount, err := r.ReadU32()
		if err != nil {
			return err
		}

		for j := uint32(0); j < vecCount; j++ {
			if usesExprs {
				expr, err := readInitExpr(r)
				if err != nil {
					return err
				}
				elem.Exprs = append(elem.Exprs, expr)
			} else {
				idx, err := r.ReadU32()
				if err != nil {
					return err
				}
				elem.FuncIdxs = append(elem.FuncIdxs, idx)
			}
		}

		m.Elements = append(m.Elements, elem)
	}
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		bodySize, err := r.ReadU32()
		if err != nil {
			return err
		}
		bodyData, err := r.ReadBytes(int(bodySize))
		if err != nil {
			return err
		}

		br := binary.NewReader(bodyData)

		localCount, err := br.ReadU32()
		if err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
		var locals []LocalEntry
		var total uint64
		for j := uint32(0); j < localCount; j++ {
			n, err := br.ReadU32()
			if err != nil {
				return fmt.Errorf("function %d: %w", i, err)
			}
			total += uint64(n)
			if total > 1<<32-1 {
				return fmt.Errorf("function %d: too many locals", i)
			}
			t, err := readValType(br)
			if err != nil {
				return fmt.Errorf("function %d: %w", i, err)
			}
			locals = append(locals, LocalEntry{Count: n, Type: t})
		}

		code := br.ReadRemaining()
		if len(code) == 0 || code[len(code)-1] != OpEnd {
			return fmt.Errorf("function %d: END opcode expected", i)
		}

		m.Code = append(m.Code, FuncBody{Locals: locals, Code: code})
	}
	return nil
}

func parseDataSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadU32()
		if err != nil {
			return err
		}
		if flags > 2 {
			return fmt.Errorf("malformed data segment kind: %d", flags)
		}

		seg := DataSegment{Flags: flags}

		if flags == 2 {
			seg.MemIdx, err = r.ReadU32()
			if err != nil {
				return err
			}
		}

		if flags != 1 {
			seg.Offset, err = readInitExpr(r)
			if err != nil {
				return err
			}
		}

		initLen, err := r.ReadU32()
		if err != nil {
			return err
		}
		seg.Init, err = r.ReadBytes(int(initLen))
		if err != nil {
			return err
		}

		m.Data = append(m.Data, seg)
	}
	return nil
}

func parseDataCountSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.DataCount = &count
	return nil
}

func readValTypes(r *binary.Reader) ([]linktest.ValueType, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if int(count) > r.Len() {
		return nil, fmt.Errorf("value type count %d exceeds section", count)
	}
	types := make([]linktest.ValueType, count)
	for i := range types {
		types[i], err = readValType(r)
		if err != nil {
			return nil, err
		}
	}
	return types, nil
}

func readValType(r *binary.Reader) (linktest.ValueType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch linktest.ValueType(b) {
	case linktest.ValueTypeI32, linktest.ValueTypeI64, linktest.ValueTypeF32, linktest.ValueTypeF64,
		linktest.ValueTypeFuncRef, linktest.ValueTypeExternRef, linktest.ValueType(ValV128):
		return linktest.ValueType(b), nil
	}
	return 0, fmt.Errorf("malformed value type 0x%02x", b)
}

func readRefType(r *binary.Reader) (linktest.ValueType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	t := linktest.ValueType(b)
	if !t.IsRef() {
		return 0, fmt.Errorf("malformed reference type 0x%02x", b)
	}
	return t, nil
}

func readLimits(r *binary.Reader) (linktest.Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return linktest.Limits{}, err
	}
	if flags > LimitsHasMax {
		return linktest.Limits{}, fmt.Errorf("malformed limits flags 0x%02x", flags)
	}

	minVal, err := r.ReadU32()
	if err != nil {
		return linktest.Limits{}, err
	}
	l := linktest.Limits{Min: uint64(minVal)}
	if flags&LimitsHasMax != 0 {
		maxVal, err := r.ReadU32()
		if err != nil {
			return linktest.Limits{}, err
		}
		l.Max = linktest.Max(uint64(maxVal))
	}

	// min > max is a validation error, left to the engine.
	return l, nil
}

func readTableType(r *binary.Reader) (linktest.TableType, error) {
	elemType, err := readRefType(r)
	if err != nil {
		return linktest.TableType{}, err
	}
	limits, err := readLimits(r)
	if err != nil {
		return linktest.TableType{}, err
	}
	return linktest.TableType{ElemType: elemType, Limits: limits}, nil
}

func readMemoryType(r *binary.Reader) (linktest.MemoryType, error) {
	limits, err := readLimits(r)
	if err != nil {
		return linktest.MemoryType{}, err
	}
	return linktest.MemoryType{Limits: limits}, nil
}

func readGlobalType(r *binary.Reader) (linktest.GlobalType, error) {
	valType, err := readValType(r)
	if err != nil {
		return linktest.GlobalType{}, err
	}
	mut, err := r.ReadByte()
	if err != nil {
		return linktest.GlobalType{}, err
	}
	if mut > 1 {
		return linktest.GlobalType{}, fmt.Errorf("malformed mutability 0x%02x", mut)
	}
	return linktest.GlobalType{ValueType: valType, Mutable: mut == 1}, nil
}

// readInitExpr copies a const expression up to and including its end opcode.
// Unknown opcodes are copied as-is and rejected later by validation.
func readInitExpr(r *binary.Reader) ([]byte, error) {
	start := r.Position()
	for {
		op, err := r.ReadByte()
		if err != nil {
			return nil, errors.New("unexpected end of const expression")
		}
		if op == OpEnd {
			break
		}
		if err := skipInitExprImmediate(r, op); err != nil {
			return nil, err
		}
	}
	end := r.Position()
	expr := make([]byte, end-start)
	copy(expr, r.Slice(start, end))
	return expr, nil
}

func skipInitExprImmediate(r *binary.Reader, opcode byte) error {
	var err error
	switch opcode {
	case OpI32Const:
		_, err = r.ReadS32()
	case OpI64Const:
		_, err = r.ReadS64()
	case OpF32Const:
		_, err = r.ReadBytes(4)
	case OpF64Const:
		_, err = r.ReadBytes(8)
	case OpGlobalGet, OpRefFunc:
		_, err = r.ReadU32()
	case OpRefNull:
		_, err = readRefType(r)
	}
	return err
}
