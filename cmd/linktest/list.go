package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/wasm-linktest/script"
)

func newListCommand(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <script.yaml>",
		Short: "Print the commands of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := script.Load(args[0])
			if err != nil {
				return &exitError{err: err, code: exitCommandError}
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d commands\n", headerStyle.Render(s.Name), len(s.Commands))
			for i := range s.Commands {
				c := &s.Commands[i]
				fmt.Fprintf(w, "%4d %5d  %s\n", i, c.Line, c.String())
			}
			return nil
		},
	}
}
