package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgunnarsson/roomexport/internal/export"
	"github.com/bgunnarsson/roomexport/internal/print"
)

func newShowCommand(stdout io.Writer) *cobra.Command {
	var maxWidth int

	cmd := &cobra.Command{
		Use:   "show <result-file>",
		Short: "Print a result file as a table",
		Long:  "Decode a result file written by roomexport and print it as a table. The format is taken from the file extension.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showFile(stdout, args[0], maxWidth)
		},
	}
	cmd.Flags().IntVar(&maxWidth, "max-width", 60, "max width of a column")
	return cmd
}

func showFile(w io.Writer, path string, maxWidth int) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	codec, err := export.Lookup(format)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := codec.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	print.RenderTable(w, rows, print.Options{MaxWidth: maxWidth})
	return nil
}
