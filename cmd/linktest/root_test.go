package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-linktest/script"
)

const scenarios = "../../script/testdata/scenarios.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"run", "list"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "log-level", "no-color"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRunFlags(t *testing.T) {
	cmd := newRootCommand()
	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	format := run.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	jobs := run.Flags().Lookup("jobs")
	require.NotNil(t, jobs)
	assert.Equal(t, "j", jobs.Shorthand)
	assert.Equal(t, "1", jobs.DefValue)

	interactive := run.Flags().Lookup("interactive")
	require.NotNil(t, interactive)
	assert.Equal(t, "i", interactive.Shorthand)
}

func TestRunText(t *testing.T) {
	out, err := execute(t, "run", "--no-color", scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "script scenarios")
	assert.Contains(t, out, "passed 46, failed 0")
	assert.NotContains(t, out, "pass ")

	out, err = execute(t, "run", "-v", "-j", "2", scenarios, scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "assert_return invoke $Mf")
	assert.Contains(t, out, "total: passed 92, failed 0")
}

func TestRunJSON(t *testing.T) {
	out, err := execute(t, "run", "--format", "json", "--interpreter", scenarios)
	require.NoError(t, err)

	var report script.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "scenarios", report.Script)
	assert.NotEmpty(t, report.RunID)
	assert.Len(t, report.Results, 46)
}

func TestRunFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fail.yaml")
	src := `name: fail
commands:
  - type: assert_malformed
    wasm: 0061736d01000000
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	out, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err))
	assert.Contains(t, out, "fail")
	assert.Contains(t, out, "assert_malformed")
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"run", "--format", "xml", scenarios}},
		{"bad jobs", []string{"run", "--jobs", "0", scenarios}},
		{"missing file", []string{"run", "testdata/missing.yaml"}},
		{"bad log level", []string{"--log-level", "loud", "run", scenarios}},
		{"missing config", []string{"--config", "missing.yaml", "run", scenarios}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, exitCommandError, exitCode(err))
		})
	}
}

func TestRunWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linktest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\ninterpreter: true\n"), 0o600))

	out, err := execute(t, "--config", path, "run", scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "passed 46, failed 0")
}

func TestList(t *testing.T) {
	out, err := execute(t, "list", scenarios)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 47)
	assert.Equal(t, "scenarios: 46 commands", lines[0])
	assert.Contains(t, lines[1], "module $Mf")
}

func TestBrowserModel(t *testing.T) {
	files := []fileReport{{
		path: "a.yaml",
		report: &script.Report{Results: []script.Result{
			{Index: 0, Line: 1, Command: "module $M", Status: script.StatusPass},
			{Index: 1, Line: 2, Command: "assert_trap invoke $M \"f\" []", Status: script.StatusFail, Kind: "trap"},
			{Index: 2, Line: 3, Command: "register \"M\" $M", Status: script.StatusPass},
		}},
	}}
	m := newBrowserModel(files)
	require.Len(t, m.visible, 3)

	press := func(keys ...tea.KeyMsg) {
		for _, k := range keys {
			m.Update(k)
		}
	}
	runes := func(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	assert.Contains(t, m.View(), "1 failed")

	press(tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.selected)

	press(runes("f"))
	require.Len(t, m.visible, 1)
	assert.Equal(t, 0, m.selected)
	assert.Contains(t, m.detail.View(), "kind:    trap")

	press(runes("f"), runes("/"), runes("r"), runes("e"), runes("g"), tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.visible, 1)
	assert.Equal(t, 2, m.visible[0])
	assert.False(t, m.filter.Focused())
}
