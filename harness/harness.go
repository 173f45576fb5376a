package harness

import (
	"context"
	goerrors "errors"
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-linktest/engine"
	"github.com/wippyai/wasm-linktest/errors"
	"github.com/wippyai/wasm-linktest/linker"
	"github.com/wippyai/wasm-linktest/spectest"
)

// ErrValidated is the cause of the invalid-module error Compile raises when
// bytes validate although the caller expected them to be rejected.
var ErrValidated = goerrors.New("module validated")

// Harness runs linking test cases against one engine and one registry.
// It is not safe for concurrent use; run one harness per script.
type Harness struct {
	engine     engine.Engine
	linker     *linker.Linker
	registry   *linker.Registry
	exhaustion error
	sink       io.Writer
	skipProbe  bool
}

// Option configures a Harness.
type Option func(*Harness)

// WithSink sets where the built-in print functions write.
func WithSink(w io.Writer) Option {
	return func(h *Harness) { h.sink = w }
}

// WithExhaustion uses err as the exhaustion fingerprint instead of running
// the probe.
func WithExhaustion(err error) Option {
	return func(h *Harness) {
		h.exhaustion = err
		h.skipProbe = true
	}
}

// New creates a harness: it defines the built-in environment in eng, creates
// an empty registry around it, and fingerprints stack exhaustion.
func New(ctx context.Context, eng engine.Engine, opts ...Option) (*Harness, error) {
	h := &Harness{
		engine: eng,
		linker: linker.New(eng),
	}
	for _, opt := range opts {
		opt(h)
	}

	builtin, err := spectest.Instantiate(ctx, eng, h.sink)
	if err != nil {
		return nil, err
	}
	h.registry = linker.NewRegistry(builtin)

	if !h.skipProbe {
		fp, err := probeExhaustion(ctx, eng)
		if err != nil {
			return nil, err
		}
		h.exhaustion = fp
	}

	Logger().Debug("harness ready", zap.Int("builtin", builtin.Len()))
	return h, nil
}

// Engine returns the engine the harness drives.
func (h *Harness) Engine() engine.Engine {
	return h.engine
}

// Registry returns the harness registry.
func (h *Harness) Registry() *linker.Registry {
	return h.registry
}

// Compile submits bytes to the engine. It returns a module only when the
// engine accepts the bytes and expectValid is true.
//
// Engine failures must be malformed or invalid. Any other failure is a
// harness integrity error and is never mapped onto either kind.
func (h *Harness) Compile(ctx context.Context, data []byte, expectValid bool) (engine.Module, error) {
	mod, err := h.engine.Compile(ctx, data)
	if err != nil {
		kind, ok := errors.KindOf(err)
		if !ok || (kind != errors.KindMalformed && kind != errors.KindInvalid) {
			return nil, errors.Wrap(errors.PhaseCompile, errors.KindUnexpected, err,
				"engine compile failure is neither malformed nor invalid")
		}
		return nil, err
	}
	if !expectValid {
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalid).
			Detail("module was expected to fail validation").
			Cause(ErrValidated).
			Build()
	}
	return mod, nil
}

// Instance compiles bytes and instantiates them against the harness
// registry.
func (h *Harness) Instance(ctx context.Context, data []byte) (*linker.Instance, error) {
	return h.InstanceIn(ctx, data, h.registry)
}

// InstanceIn compiles bytes and instantiates them against reg.
func (h *Harness) InstanceIn(ctx context.Context, data []byte, reg *linker.Registry) (*linker.Instance, error) {
	mod, err := h.Compile(ctx, data, true)
	if err != nil {
		return nil, err
	}
	return h.linker.Instantiate(ctx, mod, reg)
}

// Register binds name to inst's exports in the harness registry.
func (h *Harness) Register(name string, inst *linker.Instance) error {
	return h.registry.Register(name, inst)
}

// Scope returns a registry holding only the built-in environment and
// "module" bound to inst.
func (h *Harness) Scope(inst *linker.Instance) *linker.Registry {
	return h.registry.Scope(inst)
}
