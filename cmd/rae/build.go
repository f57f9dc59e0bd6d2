package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jonaskivi/rae-sub000/internal/cgen"
	"github.com/jonaskivi/rae-sub000/internal/modgraph"
)

func newBuildCmd() *cobra.Command {
	var emitC bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "compile a module graph and emit C source via the experimental backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !emitC {
				return errors.New("build: only --emit-c is currently implemented (spec.md §1 non-goal: full C backend)")
			}
			path := args[0]
			graph, err := modgraph.Load(path)
			if err != nil {
				return err
			}
			src, err := cgen.Generate(graph.Modules)
			if err != nil {
				return errors.WithStack(err)
			}
			if outPath == "" {
				fmt.Print(src)
				return nil
			}
			return errors.WithStack(os.WriteFile(outPath, []byte(src), 0o644))
		},
	}
	cmd.Flags().BoolVar(&emitC, "emit-c", false, "emit C source via the experimental backend")
	cmd.Flags().StringVar(&outPath, "out", "", "write generated source to `path` instead of stdout")
	return cmd
}
