package linker

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/errors"
)

// Reserved namespaces.
const (
	// Builtin names the built-in environment. It is present in every
	// registry and cannot be replaced.
	Builtin = "spectest"

	// Current names the module a scope was created for (see Scope).
	Current = "module"
)

// Registry maps namespaces to the environments imports resolve against.
//
// Lookup is two-tier: a registered namespace returns its environment, and
// any other namespace returns a shared empty environment. Resolution
// therefore never fails at the registry; a missing name surfaces later as
// an unlinkable module.
//
// Registry is thread-safe.
type Registry struct {
	envs  map[string]*Environment
	empty *Environment
	mu    sync.RWMutex
}

// NewRegistry creates a registry holding only the built-in environment.
// A nil builtin registers an empty one.
func NewRegistry(builtin *Environment) *Registry {
	if builtin == nil {
		builtin = NewEnvironment()
	}
	return &Registry{
		envs:  map[string]*Environment{Builtin: builtin},
		empty: NewEnvironment(),
	}
}

// Register binds name to the exports of inst, replacing any previous
// binding. The reserved namespaces are rejected.
func (r *Registry) Register(name string, inst *Instance) error {
	if inst == nil {
		return errors.InvalidInput(errors.PhaseRegister, "nil instance")
	}
	return r.RegisterEnvironment(name, inst.Exports())
}

// RegisterEnvironment binds name to env, replacing any previous binding.
func (r *Registry) RegisterEnvironment(name string, env *Environment) error {
	if name == Builtin || name == Current {
		return errors.Reserved(name)
	}
	if env == nil {
		return errors.InvalidInput(errors.PhaseRegister, "nil environment")
	}

	r.mu.Lock()
	_, replaced := r.envs[name]
	r.envs[name] = env
	r.mu.Unlock()

	Logger().Debug("namespace registered",
		zap.String("namespace", name),
		zap.Int("exports", env.Len()),
		zap.Bool("replaced", replaced))
	return nil
}

// Environment returns the environment registered under namespace, or the
// empty environment.
func (r *Registry) Environment(namespace string) *Environment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if env, ok := r.envs[namespace]; ok {
		return env
	}
	return r.empty
}

// Resolve looks up name in namespace. Unknown namespaces and unknown names
// are both misses.
func (r *Registry) Resolve(namespace, name string) (linktest.Extern, bool) {
	return r.Environment(namespace).Lookup(name)
}

// Names returns the registered namespaces, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.envs))
	for name := range r.envs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scope returns a registry that resolves only the built-in environment and
// Current, bound to the exports of inst. A nil inst leaves Current unbound.
func (r *Registry) Scope(inst *Instance) *Registry {
	scoped := NewRegistry(r.Environment(Builtin))
	if inst != nil {
		scoped.envs[Current] = inst.Exports()
	}
	return scoped
}
