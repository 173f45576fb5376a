package main

import (
	goerrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/wasm-linktest/engine"
	"github.com/wippyai/wasm-linktest/harness"
	"github.com/wippyai/wasm-linktest/linker"
	"github.com/wippyai/wasm-linktest/script"
)

// Exit codes.
const (
	exitFailure      = 1 // a command failed
	exitCommandError = 2 // bad flags, unreadable scripts
)

// exitError carries the process exit code for an error.
type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var e *exitError
	if goerrors.As(err, &e) {
		return e.code
	}
	return exitCommandError
}

// rootOptions holds the global flags and what PersistentPreRunE derives
// from them.
type rootOptions struct {
	configPath string
	logLevel   string
	noColor    bool

	config *engine.Config
	color  bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "linktest",
		Short:         "Run WebAssembly linking test scripts",
		Long:          "linktest runs linking test scripts against the wazero engine and reports each command's outcome.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "engine config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error), overrides the config")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg := engine.DefaultConfig()
	if o.configPath != "" {
		loaded, err := engine.LoadConfig(o.configPath)
		if err != nil {
			return &exitError{err: err, code: exitCommandError}
		}
		cfg = loaded
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	o.config = cfg

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return &exitError{err: err, code: exitCommandError}
	}
	engine.SetLogger(log)
	linker.SetLogger(log)
	harness.SetLogger(log)
	script.SetLogger(log)

	o.color = !o.noColor && isTerminal(cmd.OutOrStdout())
	setColor(o.color)
	return nil
}

// newLogger builds a console logger on stderr at the given level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
