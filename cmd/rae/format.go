package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jonaskivi/rae-sub000/internal/diag"
	"github.com/jonaskivi/rae-sub000/internal/parser"
	"github.com/jonaskivi/rae-sub000/internal/printer"
)

func newFormatCmd() *cobra.Command {
	var write bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "format <file>",
		Short: "pretty-print a single .rae file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return diag.NewIOError(path, err)
			}
			mod, comments, err := parser.ParseModule(path, src)
			if err != nil {
				return errors.WithStack(err)
			}
			out, err := printer.Print(mod, comments)
			if err != nil {
				return errors.Wrap(err, "format")
			}

			switch {
			case write:
				return errors.WithStack(os.WriteFile(path, []byte(out), 0o644))
			case outPath != "":
				return errors.WithStack(os.WriteFile(outPath, []byte(out), 0o644))
			default:
				fmt.Print(out)
				return nil
			}
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the file in place")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write formatted source to `path` instead of stdout")
	return cmd
}
