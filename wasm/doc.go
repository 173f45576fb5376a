// Package wasm decodes and encodes the core WebAssembly binary format to the
// depth needed for linking.
//
// ParseModule performs a structural decode. A failure means the bytes are
// malformed: the header, section framing, LEB128 integers, names, kinds and
// value type encodings are all checked here. Function bodies are kept as raw
// bytes and are not type-checked; validation is left to the engine.
//
//	m, err := wasm.ParseModule(data)
//	if errors.Is(err, wasm.ErrMalformed) {
//	    // reject
//	}
//
// A decoded module answers the questions the linker asks: what each import
// requires (Module.ImportType) and what each export provides
// (Module.ExportType).
//
// RewriteImports redirects every import to a new (module, name) pair while
// copying the rest of the binary unchanged. The engine uses it to point
// imports at the instance that actually defines the resolved extern.
//
// Module.Encode writes a module back out; the engine uses it to synthesize
// small modules such as the built-in globals, table and memory.
package wasm
