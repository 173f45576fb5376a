package linker

import (
	"context"

	"go.uber.org/zap"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/engine"
	"github.com/wippyai/wasm-linktest/errors"
)

// Linker instantiates compiled modules against a registry.
type Linker struct {
	engine engine.Engine
}

// New creates a linker for eng.
func New(eng engine.Engine) *Linker {
	return &Linker{engine: eng}
}

// Engine returns the engine the linker instantiates with.
func (l *Linker) Engine() engine.Engine {
	return l.engine
}

// Instantiate resolves every import of mod through reg and instantiates it.
//
// Resolution misses are passed to the engine as nil externs; kind, type and
// limit checks are the engine's. The error is the engine's, so it is either
// unlinkable (nothing ran) or uninstantiable (initialization failed).
func (l *Linker) Instantiate(ctx context.Context, mod engine.Module, reg *Registry) (*Instance, error) {
	if reg == nil {
		return nil, errors.InvalidInput(errors.PhaseLink, "nil registry")
	}

	imports := mod.Imports()
	externs := make([]*linktest.Extern, len(imports))
	for i, imp := range imports {
		if ext, ok := reg.Resolve(imp.Module, imp.Name); ok {
			externs[i] = &ext
			continue
		}
		Logger().Debug("import unresolved", zap.String("module", imp.Module), zap.String("name", imp.Name))
	}

	handle, err := l.engine.Instantiate(ctx, mod, externs)
	if err != nil {
		return nil, err
	}
	return NewInstance(handle), nil
}
