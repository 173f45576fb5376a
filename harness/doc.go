// Package harness drives linking test cases: it compiles module bytes,
// instantiates them against a registry, calls exports and checks outcomes.
//
// # Pipeline
//
//	bytes → Compile (gate) → Instantiate (registry) → Invoke / Get → Assert*
//
// The gate accepts only malformed and invalid engine failures; anything
// else is a harness integrity error. Instantiation failures are unlinkable
// or uninstantiable, and call failures are traps. A trap caused by stack
// exhaustion is re-labeled resource_exhaustion using a fingerprint taken
// once in New by running unbounded recursion.
//
// # Assertions
//
// Every Assert* method returns nil when the expectation holds and an
// *AssertionError otherwise:
//
//	err := h.AssertReturn(ctx, h.Call(inst, "call"), harness.Literal(linktest.I32(2)))
//	err = h.AssertTrap(ctx, h.Call(inst, "call", linktest.I32(7)))
//	err = h.AssertUnlinkable(ctx, bytes)
//
// Expected values are literals, compared by type and bit pattern, or the
// sentinels NanCanonical, NanArithmetic, NanAny, FuncRefExpected and
// ExternRefExpected.
package harness
