package wasm

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01
)

// Section IDs define the binary identifiers for each module section.
// Sections must appear in increasing order by ID (except custom sections
// and the data count section, which sits between element and code).
const (
	SectionCustom    byte = 0  // Custom section (can appear anywhere)
	SectionType      byte = 1  // Type section (function signatures)
	SectionImport    byte = 2  // Import section
	SectionFunction  byte = 3  // Function section (type indices)
	SectionTable     byte = 4  // Table section
	SectionMemory    byte = 5  // Memory section
	SectionGlobal    byte = 6  // Global section
	SectionExport    byte = 7  // Export section
	SectionStart     byte = 8  // Start section
	SectionElement   byte = 9  // Element section
	SectionCode      byte = 10 // Code section (function bodies)
	SectionData      byte = 11 // Data section
	SectionDataCount byte = 12 // Data count section (bulk memory)
)

// Type encodings that are not value types.
const (
	FuncTypeByte byte = 0x60
	ElemKindFunc byte = 0x00
	ValV128      byte = 0x7B
)

// Limits flags.
const (
	LimitsHasMax byte = 0x01
)

// Opcodes used by const expressions and by the modules this repo synthesizes.
const (
	OpUnreachable   byte = 0x00
	OpNop           byte = 0x01
	OpBlock         byte = 0x02
	OpLoop          byte = 0x03
	OpIf            byte = 0x04
	OpElse          byte = 0x05
	OpEnd           byte = 0x0B
	OpBr            byte = 0x0C
	OpBrIf          byte = 0x0D
	OpReturn        byte = 0x0F
	OpCall          byte = 0x10
	OpCallIndirect  byte = 0x11
	OpDrop          byte = 0x1A
	OpSelect        byte = 0x1B
	OpLocalGet      byte = 0x20
	OpLocalSet      byte = 0x21
	OpLocalTee      byte = 0x22
	OpGlobalGet     byte = 0x23
	OpGlobalSet     byte = 0x24
	OpTableGet      byte = 0x25
	OpTableSet      byte = 0x26
	OpI32Load       byte = 0x28
	OpI32Load8U     byte = 0x2D
	OpI32Store      byte = 0x36
	OpI32Store8     byte = 0x3A
	OpMemorySize    byte = 0x3F
	OpMemoryGrow    byte = 0x40
	OpI32Const      byte = 0x41
	OpI64Const      byte = 0x42
	OpF32Const      byte = 0x43
	OpF64Const      byte = 0x44
	OpI32Eqz        byte = 0x45
	OpI32Eq         byte = 0x46
	OpI32Ne         byte = 0x47
	OpI32Add        byte = 0x6A
	OpI32Sub        byte = 0x6B
	OpI32Mul        byte = 0x6C
	OpI64Add        byte = 0x7C
	OpI64Sub        byte = 0x7D
	OpI64Mul        byte = 0x7E
	OpRefNull       byte = 0xD0
	OpRefIsNull     byte = 0xD1
	OpRefFunc       byte = 0xD2
	OpPrefixMisc    byte = 0xFC
	MiscTableGrow   byte = 0x0F
	MiscTableSize   byte = 0x10
	MiscTableFill   byte = 0x11
	BlockTypeVoid   byte = 0x40
	MemArgAlign32   byte = 0x02
	MemArgAlignByte byte = 0x00
)
