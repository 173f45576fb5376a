// Package linker resolves module imports against a registry of named
// environments and instantiates modules through an engine.
//
// # Main Types
//
//   - Environment: ordered name → extern bindings
//   - Instance: an engine instance and its export environment
//   - Registry: namespace → Environment, with the reserved "spectest" and
//     "module" namespaces
//   - Linker: resolves imports and calls the engine
//
// # Resolution
//
// A registry lookup never fails. Unknown namespaces resolve to an empty
// environment, so a missing namespace and a missing name are the same
// miss, and the engine reports both as an unlinkable module.
//
// # Example
//
//	reg := linker.NewRegistry(builtin)
//	l := linker.New(eng)
//	inst, err := l.Instantiate(ctx, mod, reg)
//	if err != nil {
//	    return err
//	}
//	_ = reg.Register("M", inst)
package linker
