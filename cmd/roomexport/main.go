package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/bgunnarsson/roomexport/internal/errs"
)

func main() {
	root := newRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(os.Args[1:])

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
