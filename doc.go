// Package linktest is a conformance harness for WebAssembly linking.
//
// It drives encoded modules through an external engine, wires the resulting
// instances together through a namespace registry, and checks that calls,
// traps and link failures come out the way a test script says they should.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	linktest/         Root package with the value and export model
//	├── errors/       Failure taxonomy and structured errors
//	├── wasm/         Structural decoder, import rewriter and module builder
//	├── engine/       Engine boundary and the wazero adapter
//	├── spectest/     The built-in "spectest" environment
//	├── linker/       Registry and instantiation pipeline
//	├── harness/      Compilation gate, call bridge and assertions
//	├── script/       YAML test scripts and the script runner
//	└── cmd/linktest  Command line runner and report browser
//
// # Quick Start
//
// Build a harness on top of wazero and run a few checks:
//
//	eng, err := engine.NewWazero(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	h, err := harness.New(ctx, eng)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mf, err := h.Instance(ctx, mfBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := h.Register("Mf", mf); err != nil {
//	    log.Fatal(err)
//	}
//	err = h.AssertReturn(ctx, h.Call(mf, "call"), harness.Literal(linktest.I32(2)))
//
// # Values
//
// Values are typed bit patterns. Floats compare by bits, so positive and
// negative zero differ. References are opaque: zero bits mean null, anything
// else is a live reference owned by the engine.
//
// # Thread Safety
//
// A Harness and its Registry are meant for one goroutine. Run independent
// scripts on separate harnesses; they may share one engine.
package linktest
