package script

import (
	"strings"
	"testing"

	"github.com/wippyai/wasm-linktest/errors"
)

func TestParse(t *testing.T) {
	src := `
name: tiny
commands:
  - type: module
    name: $M
    wasm: >-
      0061736d
      01000000
  - type: register
    name: $M
    as: M
  - type: assert_return
    line: 4
    action: {type: invoke, module: $M, field: f, args: [{type: i32, value: "1"}]}
    expected: [{type: f32, value: nan:canonical}]
`
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "tiny" || len(s.Commands) != 3 {
		t.Fatalf("got %q with %d commands", s.Name, len(s.Commands))
	}
	if got := string(s.Commands[0].Wasm); got != "\x00asm\x01\x00\x00\x00" {
		t.Errorf("wasm = %q", got)
	}
	ret := s.Commands[2]
	if ret.Line != 4 || ret.Action.Field != "f" || len(ret.Action.Args) != 1 {
		t.Errorf("unexpected assert_return: %+v", ret)
	}
	if ret.Expected[0].Value != "nan:canonical" {
		t.Errorf("expected = %+v", ret.Expected)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", "name: x\ncommands:\n  - type: module\n    wasm: 00\n    modul: $M\n", "modul"},
		{"missing name", "commands: []\n", "name is required"},
		{"bad hex", "name: x\ncommands:\n  - type: module\n    wasm: 0g\n", "invalid hex"},
		{"unknown type", "name: x\ncommands:\n  - type: assert_wat\n", "unknown command type"},
		{"missing type", "name: x\ncommands:\n  - line: 3\n", "type is required"},
		{"module without wasm", "name: x\ncommands:\n  - type: module\n", "wasm is required"},
		{"register without as", "name: x\ncommands:\n  - type: register\n", "as is required"},
		{"assert without action", "name: x\ncommands:\n  - type: assert_trap\n", "action is required"},
		{"unknown action", "name: x\ncommands:\n  - type: action\n    action: {type: call, field: f}\n", "unknown action type"},
		{"action without field", "name: x\ncommands:\n  - type: action\n    action: {type: invoke}\n", "field is required"},
		{"get with args", "name: x\ncommands:\n  - type: action\n    action: {type: get, field: g, args: [{type: i32, value: \"1\"}]}\n", "no args"},
		{"scope without wasm", "name: x\ncommands:\n  - type: action\n    action: {type: invoke, field: f, scope: $M}\n", "scope requires wasm"},
		{"expected on trap", "name: x\ncommands:\n  - type: assert_trap\n    action: {type: invoke, field: f}\n    expected: [{type: i32, value: \"1\"}]\n", "only allowed on assert_return"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			if kind, _ := errors.KindOf(err); kind != errors.KindInvalidInput {
				t.Errorf("kind = %q, want %q", kind, errors.KindInvalidInput)
			}
		})
	}
}

func TestLoadLinking(t *testing.T) {
	s, err := Load("testdata/linking.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	counts := make(map[string]int)
	for _, c := range s.Commands {
		counts[c.Type]++
	}
	want := map[string]int{
		CommandModule:               21,
		CommandRegister:             9,
		CommandAction:               4,
		CommandAssertReturn:         61,
		CommandAssertTrap:           18,
		CommandAssertUnlinkable:     12,
		CommandAssertUninstantiable: 7,
	}
	for typ, n := range want {
		if counts[typ] != n {
			t.Errorf("%s: got %d commands, want %d", typ, counts[typ], n)
		}
	}
	if len(s.Commands) != 132 {
		t.Errorf("got %d commands, want 132", len(s.Commands))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/missing.yaml")
	if kind, _ := errors.KindOf(err); kind != errors.KindInvalidInput {
		t.Fatalf("kind = %q, err = %v", kind, err)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Command{Type: CommandModule, Name: "$M", Wasm: make(Bytes, 8)}, "module $M (8 bytes)"},
		{Command{Type: CommandModule, Wasm: make(Bytes, 8)}, "module (8 bytes)"},
		{Command{Type: CommandRegister, As: "M"}, `register "M" <current>`},
		{Command{Type: CommandAssertUnlinkable, Wasm: make(Bytes, 30)}, "assert_unlinkable (30 bytes)"},
		{
			Command{
				Type:     CommandAssertReturn,
				Action:   &Action{Type: ActionInvoke, Module: "$M", Field: "f", Args: []Value{{Type: "i32", Value: "1"}}},
				Expected: []Value{{Type: "funcref"}},
			},
			`assert_return invoke $M "f" [i32:1] => [funcref]`,
		},
		{
			Command{Type: CommandAction, Action: &Action{Type: ActionInvoke, Wasm: make(Bytes, 40), Scope: "$M", Field: "run"}},
			`invoke <inline 40 bytes in $M> "run" []`,
		},
		{Command{Type: CommandAssertTrap, Action: &Action{Type: ActionGet, Field: "g"}}, `assert_trap get <current> "g"`},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
