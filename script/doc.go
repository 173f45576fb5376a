// Package script runs linking test scripts written in YAML.
//
// A script is a list of commands in the order a test author wrote them:
// instantiate and bind a module, register an instance under a namespace,
// perform an action, or assert the outcome of one. Module bytes are hex;
// values are typed tokens such as {type: i32, value: "-4"} or
// {type: f32, value: nan:canonical}.
//
//	name: reexport
//	commands:
//	  - type: module
//	    name: $Mf
//	    wasm: 0061736d01000000...
//	  - type: register
//	    name: $Mf
//	    as: Mf
//	  - type: assert_return
//	    action: {type: invoke, module: $Mf, field: call}
//	    expected: [{type: i32, value: "2"}]
//
// A Runner executes a script against a fresh engine and harness and returns
// a Report with one Result per command. Failures never stop a run.
package script
