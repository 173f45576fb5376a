package wasm_test

import (
	"bytes"
	"testing"

	"github.com/wippyai/wasm-linktest/wasm"
)

func TestRewriteImports(t *testing.T) {
	src := sampleModule()
	data := src.Encode()

	targets := []wasm.ImportTarget{
		{Module: "inst-1", Name: "f"},
		{Module: "inst-2", Name: "glob"},
		{Module: "inst-3", Name: "table"},
		{Module: "inst-3", Name: "memory"},
	}
	out, err := wasm.RewriteImports(data, targets)
	if err != nil {
		t.Fatalf("RewriteImports: %v", err)
	}

	m, err := wasm.ParseModule(out)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	for i, imp := range m.Imports {
		if imp.Module != targets[i].Module || imp.Name != targets[i].Name {
			t.Errorf("import %d: got %s.%s, want %s.%s", i, imp.Module, imp.Name, targets[i].Module, targets[i].Name)
		}
		if imp.Kind != src.Imports[i].Kind {
			t.Errorf("import %d: kind changed to %s", i, imp.Kind)
		}
	}
	if !bytes.Equal(m.Code[0].Code, src.Code[0].Code) {
		t.Error("code section changed")
	}
	if len(m.Exports) != len(src.Exports) {
		t.Errorf("exports: got %d, want %d", len(m.Exports), len(src.Exports))
	}
}

func TestRewriteImportsCountMismatch(t *testing.T) {
	data := sampleModule().Encode()
	if _, err := wasm.RewriteImports(data, []wasm.ImportTarget{{Module: "a", Name: "b"}}); err == nil {
		t.Error("expected error for target count mismatch")
	}
	if _, err := wasm.RewriteImports(header, []wasm.ImportTarget{{Module: "a", Name: "b"}}); err == nil {
		t.Error("expected error for module without imports")
	}
}

func TestRewriteImportsNoImports(t *testing.T) {
	m := &wasm.Module{Types: sampleModule().Types}
	data := m.Encode()
	out, err := wasm.RewriteImports(data, nil)
	if err != nil {
		t.Fatalf("RewriteImports: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("module without imports should be unchanged")
	}
}
