package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/wippyai/wasm-linktest/script"
)

type runOptions struct {
	format           string
	jobs             int
	verbose          bool
	interactive      bool
	interpreter      bool
	memoryLimitPages uint32
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <script.yaml>...",
		Short: "Run linking test scripts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "text" && opts.format != "json" {
				return &exitError{err: fmt.Errorf("invalid format %q: must be text or json", opts.format), code: exitCommandError}
			}
			if opts.jobs < 1 {
				return &exitError{err: fmt.Errorf("--jobs must be at least 1"), code: exitCommandError}
			}
			if cmd.Flags().Changed("interpreter") {
				root.config.Interpreter = opts.interpreter
			}
			if cmd.Flags().Changed("memory-limit-pages") {
				root.config.MemoryLimitPages = opts.memoryLimitPages
			}

			files, err := runFiles(cmd.Context(), root, opts.jobs, args)
			if err != nil {
				return &exitError{err: err, code: exitCommandError}
			}

			if opts.interactive {
				if !isTerminal(cmd.OutOrStdout()) {
					return &exitError{err: fmt.Errorf("-i needs a terminal"), code: exitCommandError}
				}
				if err := runInteractive(files); err != nil {
					return &exitError{err: err, code: exitCommandError}
				}
			} else if err := writeReports(cmd.OutOrStdout(), files, opts); err != nil {
				return err
			}

			for _, f := range files {
				if !f.report.OK() {
					return &exitError{err: fmt.Errorf("%s: %d command(s) failed", f.path, f.report.Failed()), code: exitFailure}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "text", "output format (text|json)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 1, "scripts to run in parallel")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "list passing commands too")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse the results in a TUI")
	cmd.Flags().BoolVar(&opts.interpreter, "interpreter", false, "use the wazero interpreter")
	cmd.Flags().Uint32Var(&opts.memoryLimitPages, "memory-limit-pages", 0, "maximum memory pages per instance")
	return cmd
}

// fileReport is the outcome of one script file.
type fileReport struct {
	path   string
	report *script.Report
}

// runFiles loads and runs every file with at most jobs scripts in flight.
// Reports come back in argument order.
func runFiles(ctx context.Context, root *rootOptions, jobs int, paths []string) ([]fileReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	scripts := make([]*script.Script, len(paths))
	for i, p := range paths {
		s, err := script.Load(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scripts[i] = s
	}

	runner := script.NewRunner(script.WithConfig(root.config))
	out := make([]fileReport, len(paths))
	errs := make([]error, len(paths))
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for i := range scripts {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			report, err := runner.Run(ctx, scripts[i])
			out[i] = fileReport{path: paths[i], report: report}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paths[i], err)
		}
	}
	return out, nil
}

func writeReports(w io.Writer, files []fileReport, opts *runOptions) error {
	if opts.format == "json" {
		for _, f := range files {
			if err := f.report.WriteJSON(w); err != nil {
				return err
			}
		}
		return nil
	}

	passed, failed := 0, 0
	for _, f := range files {
		fmt.Fprintln(w, headerStyle.Render(f.path))
		if err := f.report.WriteText(w, opts.verbose); err != nil {
			return err
		}
		passed += f.report.Passed()
		failed += f.report.Failed()
	}
	if len(files) > 1 {
		summary := fmt.Sprintf("total: passed %d, failed %d", passed, failed)
		if failed > 0 {
			fmt.Fprintln(w, failStyle.Render(summary))
		} else {
			fmt.Fprintln(w, passStyle.Render(summary))
		}
	}
	return nil
}
