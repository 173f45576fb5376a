package script

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/engine"
	"github.com/wippyai/wasm-linktest/errors"
	"github.com/wippyai/wasm-linktest/harness"
	"github.com/wippyai/wasm-linktest/linker"
)

// Runner executes scripts. Each run gets a fresh engine and harness, so
// scripts share nothing and may run concurrently.
type Runner struct {
	cfg   *engine.Config
	runID string
}

// Option configures a Runner.
type Option func(*Runner)

// WithConfig sets the engine configuration used for every run.
func WithConfig(cfg *engine.Config) Option {
	return func(r *Runner) { r.cfg = cfg }
}

// WithRunID fixes the run ID instead of generating one per run.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every command of s in order. A failing command is recorded
// and the run continues with the next one. The error is non-nil only when
// the run could not start.
func (r *Runner) Run(ctx context.Context, s *Script) (*Report, error) {
	runID := r.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := Logger().With(zap.String("script", s.Name), zap.String("run", runID))

	eng, err := engine.NewWazero(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := eng.Close(ctx); err != nil {
			log.Warn("close engine", zap.Error(err))
		}
	}()

	var output bytes.Buffer
	h, err := harness.New(ctx, eng, harness.WithSink(&output))
	if err != nil {
		return nil, err
	}

	x := &execution{h: h, bound: make(map[string]*linker.Instance)}
	report := &Report{RunID: runID, Script: s.Name, Results: make([]Result, 0, len(s.Commands))}
	for i := range s.Commands {
		cmd := &s.Commands[i]
		res := Result{Index: i, Line: cmd.Line, Command: cmd.String(), Status: StatusPass}
		if err := x.exec(ctx, cmd); err != nil {
			res.Status = StatusFail
			res.Error = err.Error()
			if kind, ok := errors.KindOf(err); ok {
				res.Kind = string(kind)
			}
			log.Debug("command failed", zap.Int("index", i), zap.Int("line", cmd.Line), zap.Error(err))
		}
		report.Results = append(report.Results, res)
	}
	report.Output = output.String()

	log.Info("script finished", zap.Int("passed", report.Passed()), zap.Int("failed", report.Failed()))
	return report, nil
}

// execution is the state of one run: the harness and the module bindings.
type execution struct {
	h       *harness.Harness
	bound   map[string]*linker.Instance
	current *linker.Instance
}

func (x *execution) exec(ctx context.Context, cmd *Command) error {
	switch cmd.Type {
	case CommandModule:
		inst, err := x.h.Instance(ctx, cmd.Wasm)
		if err != nil {
			return err
		}
		x.current = inst
		if cmd.Name != "" {
			x.bound[cmd.Name] = inst
		}
		return nil
	case CommandRegister:
		inst, err := x.instance(cmd.Name)
		if err != nil {
			return err
		}
		return x.h.Register(cmd.As, inst)
	case CommandAssertMalformed:
		return x.h.AssertMalformed(ctx, cmd.Wasm)
	case CommandAssertInvalid:
		return x.h.AssertInvalid(ctx, cmd.Wasm)
	case CommandAssertUnlinkable:
		return x.h.AssertUnlinkable(ctx, cmd.Wasm)
	case CommandAssertUninstantiable:
		return x.h.AssertUninstantiable(ctx, cmd.Wasm)
	}

	act, err := x.action(cmd.Action)
	if err != nil {
		return err
	}
	switch cmd.Type {
	case CommandAction:
		_, err := act.Run(ctx)
		return err
	case CommandAssertReturn:
		expected, err := expectations(cmd.Expected)
		if err != nil {
			return errors.Wrap(errors.PhaseScript, errors.KindInvalidInput, err, "expected values")
		}
		return x.h.AssertReturn(ctx, act, expected...)
	case CommandAssertTrap:
		return x.h.AssertTrap(ctx, act)
	case CommandAssertExhaustion:
		return x.h.AssertExhaustion(ctx, act)
	}
	return errors.InvalidInput(errors.PhaseScript, fmt.Sprintf("unknown command type %q", cmd.Type))
}

// instance returns the instance bound to name, or the most recent module
// when name is empty.
func (x *execution) instance(name string) (*linker.Instance, error) {
	if name == "" {
		if x.current == nil {
			return nil, errors.InvalidInput(errors.PhaseScript, "no module instantiated yet")
		}
		return x.current, nil
	}
	inst, ok := x.bound[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseScript, "module", name)
	}
	return inst, nil
}

// action builds the harness action for a. Inline modules are instantiated
// when the action runs, so their failures belong to the assertion.
func (x *execution) action(a *Action) (harness.Action, error) {
	if a == nil {
		return harness.Action{}, errors.InvalidInput(errors.PhaseScript, "missing action")
	}
	values, err := args(a.Args)
	if err != nil {
		return harness.Action{}, errors.Wrap(errors.PhaseScript, errors.KindInvalidInput, err, "action args")
	}

	target := func(ctx context.Context) (*linker.Instance, error) {
		return x.instance(a.Module)
	}
	if len(a.Wasm) > 0 {
		target = func(ctx context.Context) (*linker.Instance, error) {
			reg := x.h.Registry()
			if a.Scope != "" {
				scope, err := x.instance(a.Scope)
				if err != nil {
					return nil, err
				}
				reg = x.h.Scope(scope)
			}
			return x.h.InstanceIn(ctx, a.Wasm, reg)
		}
	}

	return harness.NewAction(a.String(), func(ctx context.Context) ([]linktest.Value, error) {
		inst, err := target(ctx)
		if err != nil {
			return nil, err
		}
		if a.Type == ActionGet {
			return x.h.Read(inst, a.Field).Run(ctx)
		}
		return x.h.Invoke(ctx, inst, a.Field, values)
	}), nil
}
