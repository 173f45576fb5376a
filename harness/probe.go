package harness

import (
	"context"
	goerrors "errors"

	"go.uber.org/zap"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/engine"
	"github.com/wippyai/wasm-linktest/errors"
	"github.com/wippyai/wasm-linktest/wasm"
)

// probeModule is a module exporting "run", which calls itself forever.
func probeModule() []byte {
	b := wasm.NewBuilder()
	run := b.Func(linktest.FuncType{}, nil, wasm.Op(wasm.OpCall, 0))
	b.Export("run", linktest.ExternFunc, run)
	return b.Bytes()
}

// probeExhaustion runs unbounded recursion once and returns the innermost
// cause of the resulting trap. Traps whose chain contains that cause are
// resource exhaustion.
func probeExhaustion(ctx context.Context, eng engine.Engine) (error, error) {
	mod, err := eng.Compile(ctx, probeModule())
	if err != nil {
		return nil, errors.Wrap(errors.PhaseProbe, errors.KindUnexpected, err, "compile exhaustion probe")
	}
	inst, err := eng.Instantiate(ctx, mod, nil)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseProbe, errors.KindUnexpected, err, "instantiate exhaustion probe")
	}

	_, err = eng.Invoke(ctx, inst, "run", nil)
	if err == nil {
		return nil, errors.InvalidInput(errors.PhaseProbe, "unbounded recursion returned normally")
	}
	if kind, _ := errors.KindOf(err); kind != errors.KindTrap {
		return nil, errors.Wrap(errors.PhaseProbe, errors.KindUnexpected, err, "exhaustion probe did not trap")
	}

	fp := innermost(err)
	var own *errors.Error
	if goerrors.As(fp, &own) {
		return nil, errors.Wrap(errors.PhaseProbe, errors.KindUnexpected, err, "exhaustion probe trap has no engine cause")
	}

	Logger().Debug("exhaustion fingerprint", zap.String("cause", fp.Error()))
	return fp, nil
}

func innermost(err error) error {
	for {
		next := goerrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// refine re-labels a trap caused by stack exhaustion.
func (h *Harness) refine(err error) error {
	if h.exhaustion == nil {
		return err
	}
	var e *errors.Error
	if !goerrors.As(err, &e) || e.Kind != errors.KindTrap {
		return err
	}
	if goerrors.Is(e.Cause, h.exhaustion) {
		return errors.Exhaustion(e)
	}
	return err
}
