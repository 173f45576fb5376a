package script

import (
	"encoding/json"
	"fmt"
	"io"
)

// Status is the outcome of one command.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Result is the outcome of one command.
type Result struct {
	Index   int    `json:"index"`
	Line    int    `json:"line,omitempty"`
	Command string `json:"command"`
	Status  Status `json:"status"`
	// Kind is the error kind of a failure, when it has one.
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error,omitempty"`
}

// Report collects the results of one script run.
type Report struct {
	RunID   string   `json:"run_id"`
	Script  string   `json:"script"`
	Results []Result `json:"results"`
	// Output is what the built-in print functions wrote.
	Output string `json:"output,omitempty"`
}

// Passed counts passing commands.
func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusPass {
			n++
		}
	}
	return n
}

// Failed counts failing commands.
func (r *Report) Failed() int {
	return len(r.Results) - r.Passed()
}

// OK reports whether every command passed.
func (r *Report) OK() bool {
	return r.Failed() == 0
}

// Failures returns the failing results in order.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status != StatusPass {
			out = append(out, res)
		}
	}
	return out
}

// WriteText writes a human-readable report. Passing commands are listed only
// when verbose is set.
func (r *Report) WriteText(w io.Writer, verbose bool) error {
	if _, err := fmt.Fprintf(w, "script %s (run %s)\n", r.Script, r.RunID); err != nil {
		return err
	}
	for _, res := range r.Results {
		if res.Status == StatusPass && !verbose {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %-4s %4d  %s\n", res.Status, res.Line, res.Command); err != nil {
			return err
		}
		if res.Error != "" {
			if _, err := fmt.Fprintf(w, "             %s\n", res.Error); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "passed %d, failed %d\n", r.Passed(), r.Failed())
	return err
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
