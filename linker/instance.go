package linker

import (
	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/engine"
)

// Instance is an instantiated module: the engine handle plus its export
// environment. The set of exports never changes; the contents of exported
// globals, tables and memories may.
type Instance struct {
	handle  engine.Instance
	exports *Environment
}

// NewInstance wraps an engine instance.
func NewInstance(handle engine.Instance) *Instance {
	return &Instance{
		handle:  handle,
		exports: EnvironmentOf(handle.Exports()),
	}
}

// Name returns the engine-level instance name.
func (i *Instance) Name() string {
	return i.handle.Name()
}

// Handle returns the engine instance.
func (i *Instance) Handle() engine.Instance {
	return i.handle
}

// Exports returns the instance's export environment.
func (i *Instance) Exports() *Environment {
	return i.exports
}

// Export looks up a single export.
func (i *Instance) Export(name string) (linktest.Extern, bool) {
	return i.exports.Lookup(name)
}
