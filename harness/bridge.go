package harness

import (
	"context"
	"fmt"
	"strings"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/errors"
	"github.com/wippyai/wasm-linktest/linker"
)

// Invoke calls the function export name of inst. Results always come back
// as a slice; a function with no results yields an empty one.
func (h *Harness) Invoke(ctx context.Context, inst *linker.Instance, name string, args []linktest.Value) ([]linktest.Value, error) {
	ext, ok := inst.Export(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseInvoke, "export", name)
	}
	if ext.Kind != linktest.ExternFunc {
		return nil, errors.TypeMismatch(errors.PhaseInvoke, []string{name}, "func", ext.Kind.String())
	}

	results, err := h.engine.Invoke(ctx, inst.Handle(), name, args)
	if err != nil {
		return nil, h.refine(err)
	}
	if results == nil {
		results = []linktest.Value{}
	}
	return results, nil
}

// Get returns the current value of a global export as a linktest.Value.
// Any other export is returned as its linktest.Extern.
func (h *Harness) Get(ctx context.Context, inst *linker.Instance, name string) (any, error) {
	ext, ok := inst.Export(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseRead, "export", name)
	}
	if ext.Kind != linktest.ExternGlobal {
		return ext, nil
	}
	return h.engine.ReadGlobal(ctx, inst.Handle(), name)
}

// Action is a deferred operation whose outcome an assertion inspects.
type Action struct {
	run  func(ctx context.Context) ([]linktest.Value, error)
	desc string
}

// NewAction wraps fn as an action described by desc.
func NewAction(desc string, fn func(ctx context.Context) ([]linktest.Value, error)) Action {
	return Action{desc: desc, run: fn}
}

// Run performs the action.
func (a Action) Run(ctx context.Context) ([]linktest.Value, error) {
	if a.run == nil {
		return nil, errors.InvalidInput(errors.PhaseScript, "empty action")
	}
	return a.run(ctx)
}

func (a Action) String() string {
	return a.desc
}

// Call returns an action invoking the function export name of inst.
func (h *Harness) Call(inst *linker.Instance, name string, args ...linktest.Value) Action {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	desc := fmt.Sprintf("call %s %q [%s]", instName(inst), name, strings.Join(parts, ", "))
	return NewAction(desc, func(ctx context.Context) ([]linktest.Value, error) {
		if inst == nil {
			return nil, errors.InvalidInput(errors.PhaseInvoke, "no instance")
		}
		return h.Invoke(ctx, inst, name, args)
	})
}

// Read returns an action reading export name of inst. A global yields its
// value and a function yields a non-null funcref.
func (h *Harness) Read(inst *linker.Instance, name string) Action {
	desc := fmt.Sprintf("get %s %q", instName(inst), name)
	return NewAction(desc, func(ctx context.Context) ([]linktest.Value, error) {
		if inst == nil {
			return nil, errors.InvalidInput(errors.PhaseRead, "no instance")
		}
		v, err := h.Get(ctx, inst, name)
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case linktest.Value:
			return []linktest.Value{v}, nil
		case linktest.Extern:
			if v.Kind == linktest.ExternFunc {
				return []linktest.Value{{Type: linktest.ValueTypeFuncRef, Bits: 1}}, nil
			}
			return nil, errors.TypeMismatch(errors.PhaseRead, []string{name}, "global or func", v.Kind.String())
		}
		return nil, errors.InvalidInput(errors.PhaseRead, fmt.Sprintf("unexpected export value %T", v))
	})
}

func instName(inst *linker.Instance) string {
	if inst == nil {
		return "<nil>"
	}
	return inst.Name()
}
