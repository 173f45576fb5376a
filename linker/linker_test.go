package linker

import (
	"context"
	"testing"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/engine"
	"github.com/wippyai/wasm-linktest/errors"
)

type fakeModule struct {
	imports []engine.Import
}

func (m *fakeModule) Imports() []engine.Import { return m.imports }

// recordingEngine captures the externs Instantiate is called with.
type recordingEngine struct {
	engine.Engine
	got []*linktest.Extern
	err error
}

func (e *recordingEngine) Instantiate(_ context.Context, _ engine.Module, imports []*linktest.Extern) (engine.Instance, error) {
	e.got = imports
	if e.err != nil {
		return nil, e.err
	}
	return &fakeInstance{name: "new", exports: []engine.Export{{Name: "f", Extern: funcExtern("new", "f")}}}, nil
}

func TestLinkerInstantiateResolves(t *testing.T) {
	eng := &recordingEngine{}
	reg := NewRegistry(nil)
	if err := reg.Register("M", newInstance("m1", "f")); err != nil {
		t.Fatal(err)
	}

	mod := &fakeModule{imports: []engine.Import{
		{Module: "M", Name: "f"},
		{Module: "M", Name: "missing"},
		{Module: "Nope", Name: "f"},
	}}

	inst, err := New(eng).Instantiate(context.Background(), mod, reg)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if inst.Name() != "new" {
		t.Errorf("got instance %s", inst.Name())
	}
	if _, ok := inst.Export("f"); !ok {
		t.Error("expected export f")
	}

	if len(eng.got) != 3 {
		t.Fatalf("expected 3 externs, got %d", len(eng.got))
	}
	if eng.got[0] == nil || eng.got[0].Owner != "m1" {
		t.Errorf("import 0: got %v", eng.got[0])
	}
	if eng.got[1] != nil || eng.got[2] != nil {
		t.Error("misses should be passed as nil")
	}
}

func TestLinkerInstantiatePropagatesEngineError(t *testing.T) {
	want := errors.Unlinkable([]string{"M", "f"}, "unknown import")
	eng := &recordingEngine{err: want}

	_, err := New(eng).Instantiate(context.Background(), &fakeModule{}, NewRegistry(nil))
	if err != want {
		t.Errorf("got %v, want %v", err, want)
	}

	if _, err := New(eng).Instantiate(context.Background(), &fakeModule{}, nil); err == nil {
		t.Error("expected error for nil registry")
	}
}
