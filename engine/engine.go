package engine

import (
	"context"

	linktest "github.com/wippyai/wasm-linktest"
)

// Engine compiles, links and runs modules. Every failure is returned as an
// *errors.Error whose Kind names the failure explicitly:
//
//	Compile      KindMalformed or KindInvalid
//	Instantiate  KindUnlinkable or KindUninstantiable
//	Invoke       KindTrap
//
// Other kinds (not_found, type_mismatch, invalid_input, unexpected) signal
// misuse of the engine or conditions it cannot classify.
type Engine interface {
	// Compile decodes and validates a binary module.
	Compile(ctx context.Context, data []byte) (Module, error)

	// Instantiate links a compiled module against one extern per import, in
	// import order, and runs its initializers. A nil extern is an
	// unresolved import.
	Instantiate(ctx context.Context, mod Module, imports []*linktest.Extern) (Instance, error)

	// Invoke calls an exported function and returns its results in order.
	Invoke(ctx context.Context, inst Instance, name string, args []linktest.Value) ([]linktest.Value, error)

	// ReadGlobal returns the current value of an exported global.
	ReadGlobal(ctx context.Context, inst Instance, name string) (linktest.Value, error)

	// DefineHost instantiates a module whose exports are Go functions.
	DefineHost(ctx context.Context, host HostModule) (Instance, error)

	// Close releases every module and instance the engine created.
	Close(ctx context.Context) error
}

// Module is a compiled module that has not been instantiated.
type Module interface {
	// Imports lists what the module requires, in declaration order.
	Imports() []Import
}

// Instance is an instantiated module.
type Instance interface {
	// Name is the engine-level name; it appears as Owner on the instance's
	// own exports.
	Name() string

	// Exports lists the instance's exports in declaration order. Re-exported
	// imports keep the owner and type of their definition.
	Exports() []Export
}

// Export is one export of an instance. Name is the name the instance
// exports it under; Extern.Owner and Extern.Name locate its definition,
// which differs from the exporting instance for re-exported imports.
type Export struct {
	Name   string
	Extern linktest.Extern
}

// Import is a single import declaration with the extern type it requires.
type Import struct {
	Module string
	Name   string
	Type   linktest.Extern
}

// HostModule is a set of Go functions exported under one module.
type HostModule struct {
	Name  string
	Funcs []HostFunc
}

// HostFunc is a Go function callable from wasm.
type HostFunc struct {
	Call func(ctx context.Context, args []linktest.Value) []linktest.Value
	Name string
	Type linktest.FuncType
}
