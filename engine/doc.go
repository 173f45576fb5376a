// Package engine is the boundary between the harness and the module engine.
//
// The Engine interface compiles, links, instantiates and calls modules, and
// reports every failure as an *errors.Error with an explicit Kind. The harness
// never inspects engine error messages.
//
// # Wazero
//
// Wazero implements Engine on top of wazero:
//
//	Compile      wasm.ParseModule rejects malformed bytes, then wazero's
//	             compiler rejects invalid ones
//	Instantiate  imports are checked against their resolved externs
//	             (unlinkable), rewritten to the owning instances, and the
//	             module is instantiated under a unique name (uninstantiable
//	             if initialization fails)
//	Invoke       a failing call is a trap
//
// Host modules can only export functions in wazero. Globals, tables and
// memories of a built-in environment are provided by small synthesized
// modules instead (see wasm.Builder).
//
// # Logging
//
// The package logs through a zap logger that is a no-op until SetLogger is
// called.
package engine
