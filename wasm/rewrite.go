package wasm

import (
	"fmt"

	"github.com/wippyai/wasm-linktest/wasm/internal/binary"
)

// ImportTarget names the (module, name) pair an import should be redirected to.
type ImportTarget struct {
	Module string
	Name   string
}

// RewriteImports returns a copy of data whose i-th import is redirected to
// targets[i]. Only the import section is re-encoded; every other section is
// copied byte for byte. The number of targets must equal the number of
// imports.
func RewriteImports(data []byte, targets []ImportTarget) ([]byte, error) {
	r := binary.NewReader(data)
	header, err := r.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	w := binary.NewWriter()
	w.WriteBytes(header)

	seen := false
	for r.Len() > 0 {
		id, _ := r.ReadByte()
		size, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if id != SectionImport {
			writeSection(w, id, payload)
			continue
		}

		seen = true
		imports, err := readImports(binary.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if len(imports) != len(targets) {
			return nil, fmt.Errorf("rewrite imports: have %d targets for %d imports", len(targets), len(imports))
		}
		for i := range imports {
			imports[i].Module = targets[i].Module
			imports[i].Name = targets[i].Name
		}
		writeSection(w, SectionImport, encodeImports(imports))
	}

	if !seen && len(targets) != 0 {
		return nil, fmt.Errorf("rewrite imports: module has no imports, got %d targets", len(targets))
	}
	return w.Bytes(), nil
}
