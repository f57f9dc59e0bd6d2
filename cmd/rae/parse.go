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

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "parse a single .rae file and dump its AST",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return diag.NewIOError(path, err)
			}
			mod, _, err := parser.ParseModule(path, src)
			if err != nil {
				return errors.WithStack(err)
			}
			fmt.Print(printer.DumpTree(mod))
			return nil
		},
	}
}
