package linker

import (
	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/engine"
)

// Environment is an ordered set of named externs that imports resolve
// against: the exports of one instance, or the built-in environment.
type Environment struct {
	externs map[string]linktest.Extern
	names   []string
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{externs: make(map[string]linktest.Extern)}
}

// EnvironmentOf builds an environment from an instance's exports in order,
// keyed by export name. Later entries replace earlier ones with the same
// name.
func EnvironmentOf(exports []engine.Export) *Environment {
	env := NewEnvironment()
	for _, exp := range exports {
		env.Define(exp.Name, exp.Extern)
	}
	return env
}

// Define binds name to ext. Rebinding a name keeps its original position.
func (e *Environment) Define(name string, ext linktest.Extern) {
	if _, exists := e.externs[name]; !exists {
		e.names = append(e.names, name)
	}
	e.externs[name] = ext
}

// Lookup returns the extern bound to name.
func (e *Environment) Lookup(name string) (linktest.Extern, bool) {
	if e == nil {
		return linktest.Extern{}, false
	}
	ext, ok := e.externs[name]
	return ext, ok
}

// Names returns the bound names in definition order.
func (e *Environment) Names() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Len returns the number of bound names.
func (e *Environment) Len() int {
	if e == nil {
		return 0
	}
	return len(e.names)
}

// Merge copies every binding of other into e.
func (e *Environment) Merge(other *Environment) {
	for _, name := range other.Names() {
		ext, _ := other.Lookup(name)
		e.Define(name, ext)
	}
}
