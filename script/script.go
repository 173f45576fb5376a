package script

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-linktest/errors"
)

// Command types.
const (
	CommandModule               = "module"
	CommandRegister             = "register"
	CommandAction               = "action"
	CommandAssertReturn         = "assert_return"
	CommandAssertTrap           = "assert_trap"
	CommandAssertExhaustion     = "assert_exhaustion"
	CommandAssertMalformed      = "assert_malformed"
	CommandAssertInvalid        = "assert_invalid"
	CommandAssertUnlinkable     = "assert_unlinkable"
	CommandAssertUninstantiable = "assert_uninstantiable"
)

// Action types.
const (
	ActionInvoke = "invoke"
	ActionGet    = "get"
)

// Script is an ordered list of linking commands run against one registry.
type Script struct {
	// Name identifies the script in reports.
	Name string `yaml:"name"`

	// Description says what the script covers.
	Description string `yaml:"description,omitempty"`

	Commands []Command `yaml:"commands"`
}

// Command is one step of a script.
type Command struct {
	// Type is one of the Command* constants.
	Type string `yaml:"type"`

	// Line is the source line the command was converted from, if any.
	Line int `yaml:"line,omitempty"`

	// Name binds a module command's instance, or selects the instance a
	// register command exposes. Empty means the most recent module.
	Name string `yaml:"name,omitempty"`

	// As is the namespace a register command writes.
	As string `yaml:"as,omitempty"`

	// Wasm holds module bytes for module commands and module assertions.
	Wasm Bytes `yaml:"wasm,omitempty"`

	// Action is what action and action assertions run.
	Action *Action `yaml:"action,omitempty"`

	// Expected lists assert_return expectations.
	Expected []Value `yaml:"expected,omitempty"`
}

// Action invokes an exported function or reads an export.
type Action struct {
	// Type is ActionInvoke or ActionGet.
	Type string `yaml:"type"`

	// Module names a bound instance. Empty means the most recent module.
	Module string `yaml:"module,omitempty"`

	// Wasm, when set, is instantiated right before the action and used
	// instead of Module.
	Wasm Bytes `yaml:"wasm,omitempty"`

	// Scope instantiates Wasm against only the built-in environment and the
	// named instance bound as "module".
	Scope string `yaml:"scope,omitempty"`

	Field string  `yaml:"field"`
	Args  []Value `yaml:"args,omitempty"`
}

// Value is a typed value token: an argument or an expected result.
type Value struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value,omitempty"`
}

// Bytes is binary data written in YAML as hex. Whitespace is ignored, so
// long modules can be folded across lines.
type Bytes []byte

// UnmarshalYAML decodes a hex scalar.
func (b *Bytes) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	s = strings.Join(strings.Fields(s), "")
	data, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid hex: %w", node.Line, err)
	}
	*b = data
	return nil
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInvalidInput, err, "read script")
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Parse decodes a script. Unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInvalidInput, err, "parse script")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every command carries the fields its type needs.
func (s *Script) Validate() error {
	if s.Name == "" {
		return errors.InvalidInput(errors.PhaseScript, "name is required")
	}
	for i := range s.Commands {
		if err := s.Commands[i].validate(); err != nil {
			return errors.New(errors.PhaseScript, errors.KindInvalidInput).
				Path(fmt.Sprintf("commands[%d]", i)).
				Detail("%s", err).
				Build()
		}
	}
	return nil
}

func (c *Command) validate() error {
	switch c.Type {
	case CommandModule:
		if len(c.Wasm) == 0 {
			return fmt.Errorf("module: wasm is required")
		}
	case CommandRegister:
		if c.As == "" {
			return fmt.Errorf("register: as is required")
		}
	case CommandAssertMalformed, CommandAssertInvalid, CommandAssertUnlinkable, CommandAssertUninstantiable:
		if len(c.Wasm) == 0 {
			return fmt.Errorf("%s: wasm is required", c.Type)
		}
	case CommandAction, CommandAssertReturn, CommandAssertTrap, CommandAssertExhaustion:
		if c.Action == nil {
			return fmt.Errorf("%s: action is required", c.Type)
		}
		if err := c.Action.validate(); err != nil {
			return fmt.Errorf("%s: %w", c.Type, err)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown command type %q", c.Type)
	}
	if c.Type != CommandAssertReturn && len(c.Expected) > 0 {
		return fmt.Errorf("%s: expected is only allowed on assert_return", c.Type)
	}
	return nil
}

func (a *Action) validate() error {
	switch a.Type {
	case ActionInvoke:
	case ActionGet:
		if len(a.Args) > 0 {
			return fmt.Errorf("get takes no args")
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	if a.Field == "" {
		return fmt.Errorf("action field is required")
	}
	if a.Scope != "" && len(a.Wasm) == 0 {
		return fmt.Errorf("action scope requires wasm")
	}
	return nil
}

// String describes the command in one line.
func (c *Command) String() string {
	switch c.Type {
	case CommandModule:
		if c.Name == "" {
			return fmt.Sprintf("module (%d bytes)", len(c.Wasm))
		}
		return fmt.Sprintf("module %s (%d bytes)", c.Name, len(c.Wasm))
	case CommandRegister:
		return fmt.Sprintf("register %q %s", c.As, orCurrent(c.Name))
	case CommandAction:
		return c.Action.String()
	case CommandAssertReturn:
		parts := make([]string, len(c.Expected))
		for i, v := range c.Expected {
			parts[i] = v.String()
		}
		return fmt.Sprintf("%s %s => [%s]", c.Type, c.Action, strings.Join(parts, ", "))
	case CommandAssertTrap, CommandAssertExhaustion:
		return fmt.Sprintf("%s %s", c.Type, c.Action)
	}
	return fmt.Sprintf("%s (%d bytes)", c.Type, len(c.Wasm))
}

func (a *Action) String() string {
	if a == nil {
		return "<no action>"
	}
	target := orCurrent(a.Module)
	if len(a.Wasm) > 0 {
		target = fmt.Sprintf("<inline %d bytes>", len(a.Wasm))
		if a.Scope != "" {
			target = fmt.Sprintf("<inline %d bytes in %s>", len(a.Wasm), a.Scope)
		}
	}
	if a.Type == ActionGet {
		return fmt.Sprintf("get %s %q", target, a.Field)
	}
	parts := make([]string, len(a.Args))
	for i, v := range a.Args {
		parts[i] = v.String()
	}
	return fmt.Sprintf("invoke %s %q [%s]", target, a.Field, strings.Join(parts, ", "))
}

func (v Value) String() string {
	if v.Value == "" {
		return v.Type
	}
	return v.Type + ":" + v.Value
}

func orCurrent(name string) string {
	if name == "" {
		return "<current>"
	}
	return name
}
