package script_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	linktest "github.com/wippyai/wasm-linktest"
	"github.com/wippyai/wasm-linktest/engine"
	"github.com/wippyai/wasm-linktest/errors"
	"github.com/wippyai/wasm-linktest/script"
	"github.com/wippyai/wasm-linktest/wasm"
)

var voidToI32 = linktest.FuncType{Results: []linktest.ValueType{linktest.ValueTypeI32}}

func constModule(v int32) []byte {
	b := wasm.NewBuilder()
	f := b.Func(voidToI32, nil, wasm.I32Const(v))
	b.Export("call", linktest.ExternFunc, f)
	return b.Bytes()
}

func i32(v string) script.Value {
	return script.Value{Type: "i32", Value: v}
}

func run(t *testing.T, s *script.Script) *script.Report {
	t.Helper()
	report, err := script.NewRunner(script.WithRunID("test")).Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, report.Results, len(s.Commands))
	return report
}

func TestScenariosGolden(t *testing.T) {
	s, err := script.Load("testdata/scenarios.yaml")
	require.NoError(t, err)

	report, err := script.NewRunner(script.WithRunID("golden")).Run(context.Background(), s)
	require.NoError(t, err)
	require.Empty(t, report.Failures())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	var text bytes.Buffer
	require.NoError(t, report.WriteText(&text, true))
	g.Assert(t, "scenarios_text", text.Bytes())

	var js bytes.Buffer
	require.NoError(t, report.WriteJSON(&js))
	g.Assert(t, "scenarios_json", js.Bytes())
}

func TestLinkingScriptRuns(t *testing.T) {
	s, err := script.Load("testdata/linking.yaml")
	require.NoError(t, err)

	// Lines whose outcome depends on re-exported names or on out of bounds
	// element segments.
	watched := map[int]bool{18: true, 20: true, 68: true, 71: true, 169: true, 243: true, 266: true, 276: true, 409: true}

	configs := []struct {
		name string
		cfg  *engine.Config
	}{
		{"compiler", nil},
		{"interpreter", &engine.Config{Interpreter: true}},
	}
	for _, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			report, err := script.NewRunner(script.WithConfig(tc.cfg)).Run(context.Background(), s)
			require.NoError(t, err)
			require.Len(t, report.Results, len(s.Commands))

			for _, f := range report.Failures() {
				t.Errorf("line %d: %s: %s", f.Line, f.Command, f.Error)
			}
			seen := 0
			for _, res := range report.Results {
				if watched[res.Line] {
					seen++
					require.Equal(t, script.StatusPass, res.Status, "line %d", res.Line)
				}
			}
			require.Equal(t, len(watched), seen)
			require.Equal(t, len(s.Commands), report.Passed())
		})
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	s := &script.Script{
		Name: "failures",
		Commands: []script.Command{
			{Type: script.CommandModule, Name: "$M", Wasm: constModule(2)},
			{
				Type:     script.CommandAssertReturn,
				Action:   &script.Action{Type: script.ActionInvoke, Module: "$M", Field: "call"},
				Expected: []script.Value{i32("3")},
			},
			{Type: script.CommandRegister, Name: "$Missing", As: "X"},
			{Type: script.CommandAssertTrap, Action: &script.Action{Type: script.ActionInvoke, Field: "call"}},
			{
				Type:     script.CommandAssertReturn,
				Action:   &script.Action{Type: script.ActionInvoke, Field: "call"},
				Expected: []script.Value{i32("2")},
			},
			{Type: script.CommandRegister, As: "spectest"},
		},
	}
	report := run(t, s)

	status := make([]script.Status, len(report.Results))
	for i, r := range report.Results {
		status[i] = r.Status
	}
	require.Equal(t, []script.Status{
		script.StatusPass,
		script.StatusFail,
		script.StatusFail,
		script.StatusFail,
		script.StatusPass,
		script.StatusFail,
	}, status)

	require.Equal(t, string(errors.KindNotFound), report.Results[2].Kind)
	require.Equal(t, string(errors.KindReserved), report.Results[5].Kind)
	require.Equal(t, 2, report.Passed())
	require.False(t, report.OK())

	var text bytes.Buffer
	require.NoError(t, report.WriteText(&text, false))
	require.NotContains(t, text.String(), "module $M")
	require.Contains(t, text.String(), "passed 2, failed 4")
}

func TestInlineScopedAction(t *testing.T) {
	b := wasm.NewBuilder()
	imported := b.ImportFunc("module", "call", voidToI32)
	b.Export("run", linktest.ExternFunc, imported)
	inline := b.Bytes()

	s := &script.Script{
		Name: "inline",
		Commands: []script.Command{
			{Type: script.CommandModule, Name: "$M", Wasm: constModule(7)},
			{
				Type:     script.CommandAssertReturn,
				Action:   &script.Action{Type: script.ActionInvoke, Wasm: inline, Scope: "$M", Field: "run"},
				Expected: []script.Value{i32("7")},
			},
			// Without a scope "module" is not a registered namespace.
			{Type: script.CommandAction, Action: &script.Action{Type: script.ActionInvoke, Wasm: inline, Field: "run"}},
			{
				Type:     script.CommandAssertReturn,
				Action:   &script.Action{Type: script.ActionGet, Module: "$M", Field: "call"},
				Expected: []script.Value{{Type: "funcref"}},
			},
		},
	}
	report := run(t, s)

	require.Equal(t, script.StatusPass, report.Results[1].Status, report.Results[1].Error)
	require.Equal(t, script.StatusFail, report.Results[2].Status)
	require.Equal(t, string(errors.KindUnlinkable), report.Results[2].Kind)
	require.Equal(t, script.StatusPass, report.Results[3].Status, report.Results[3].Error)
}

func TestBuiltinOutputIsCaptured(t *testing.T) {
	b := wasm.NewBuilder()
	printI32 := b.ImportFunc("spectest", "print_i32", linktest.FuncType{Params: []linktest.ValueType{linktest.ValueTypeI32}})
	say := b.Func(linktest.FuncType{}, nil, wasm.I32Const(5), wasm.Op(wasm.OpCall, printI32))
	b.Export("say", linktest.ExternFunc, say)

	s := &script.Script{
		Name: "print",
		Commands: []script.Command{
			{Type: script.CommandModule, Wasm: b.Bytes()},
			{Type: script.CommandAction, Action: &script.Action{Type: script.ActionInvoke, Field: "say"}},
		},
	}
	report := run(t, s)
	require.True(t, report.OK())
	require.Equal(t, "print_i32(i32:5)\n", report.Output)
}

func TestRunIDsAreUnique(t *testing.T) {
	s := &script.Script{Name: "empty"}
	runner := script.NewRunner()

	a, err := runner.Run(context.Background(), s)
	require.NoError(t, err)
	b, err := runner.Run(context.Background(), s)
	require.NoError(t, err)
	require.NotEmpty(t, a.RunID)
	require.NotEqual(t, a.RunID, b.RunID)
}
