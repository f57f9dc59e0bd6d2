// Command rae is the CLI dispatcher for the toolchain (spec.md §6):
// lex/parse/format/run/build. Grounded on the teacher's cmd/retro/main.go
// error-reporting convention (the `atExit` helper, `--debug` toggling `%v`
// vs `%+v`), adapted from raw `flag` to github.com/spf13/cobra since this
// tool needs five subcommands with shared persistent flags rather than the
// teacher's single command (see SPEC_FULL.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	flagRoot    string
	flagVerbose bool
	flagDebug   bool
)

func main() {
	root := &cobra.Command{
		Use:          "rae",
		Short:        "toolchain for the .rae source language",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagRoot, "root", "", "project root (defaults to the entry file's resolved root)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose status output")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "print full error cause chains (%+v) instead of a single line")

	root.AddCommand(newLexCmd(), newParseCmd(), newFormatCmd(), newRunCmd(), newBuildCmd())

	if err := root.Execute(); err != nil {
		atExit(err)
	}
}

// atExit is the teacher's error-reporting convention verbatim: print the
// diagnostic in `file:line:col: message` form (each diag.* error type
// already formats itself that way), using %+v under --debug for a full
// github.com/pkg/errors stack, and exit non-zero.
func atExit(err error) {
	if err == nil {
		return
	}
	if flagDebug {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	} else {
		fmt.Fprintln(os.Stderr, highlight(err.Error()))
	}
	os.Exit(1)
}

// colorEnabled reports whether stderr is a terminal, deciding whether
// diagnostics get ANSI highlighting (SPEC_FULL.md's go-isatty wiring).
func colorEnabled() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

func highlight(s string) string {
	if !colorEnabled() {
		return s
	}
	return "\x1b[31m" + s + "\x1b[0m"
}
