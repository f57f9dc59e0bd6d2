package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jonaskivi/rae-sub000/internal/diag"
	"github.com/jonaskivi/rae-sub000/internal/lexer"
)

func newLexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lex <file>",
		Short: "dump the token stream for a single .rae file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return diag.NewIOError(path, err)
			}
			toks, _, err := lexer.Tokenize(path, src)
			if err != nil {
				return errors.WithStack(err)
			}
			for _, t := range toks {
				fmt.Printf("%-14s %-20q %s\n", t.Kind, t.Lexeme, t.Pos)
			}
			return nil
		},
	}
}
