package wasm

import (
	"errors"
	"fmt"

	"github.com/wippyai/wasm-linktest/wasm/internal/binary"
)

// Active reports whether the segment is written into a table at
// instantiation.
func (e Element) Active() bool {
	return e.Flags&0x01 == 0
}

// Len returns the number of entries in the segment.
func (e Element) Len() int {
	return len(e.FuncIdxs) + len(e.Exprs)
}

// Active reports whether the segment is written into memory at
// instantiation.
func (d DataSegment) Active() bool {
	return d.Flags != 1
}

// Offset is a decoded segment offset: either a constant or the value of a
// global.
type Offset struct {
	Value    int32
	Global   uint32
	IsGlobal bool
}

// ParseOffset decodes an offset expression made of a single i32.const or
// global.get.
func ParseOffset(expr []byte) (Offset, error) {
	r := binary.NewReader(expr)
	op, err := r.ReadByte()
	if err != nil {
		return Offset{}, errors.New("empty offset expression")
	}

	var off Offset
	switch op {
	case OpI32Const:
		off.Value, err = r.ReadS32()
	case OpGlobalGet:
		off.Global, err = r.ReadU32()
		off.IsGlobal = true
	default:
		return Offset{}, fmt.Errorf("unsupported offset opcode 0x%02x", op)
	}
	if err != nil {
		return Offset{}, err
	}

	end, err := r.ReadByte()
	if err != nil || end != OpEnd || r.Len() != 0 {
		return Offset{}, errors.New("offset expression is not a single instruction")
	}
	return off, nil
}
