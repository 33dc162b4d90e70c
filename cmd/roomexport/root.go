package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgunnarsson/roomexport/internal/app"
	"github.com/bgunnarsson/roomexport/internal/config"
	"github.com/bgunnarsson/roomexport/internal/export"
	"github.com/bgunnarsson/roomexport/internal/logger"
	"github.com/bgunnarsson/roomexport/internal/print"
	"github.com/bgunnarsson/roomexport/internal/ui"
)

const rootLongDescription = `Load rooms and students into a database, run the four fixed
room queries and write each result to <results-dir>/queryN_result.<format>.

Connection settings come from DB_* environment variables, optionally
loaded from a dotenv file first.

Exit codes:
  0  success
  1  usage, configuration or other error
  2  database connection failed
  3  ingestion failed (nothing was committed)
  4  a query failed
  5  a result could not be serialized
  6  a result file could not be written
`

type rootOptions struct {
	envFile    string
	resultsDir string
	noProgress bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("roomexport <students-path> <rooms-path> <%s>", strings.Join(export.Formats(), "|")),
		Short: "Import rooms and students, export query results",
		Long:  rootLongDescription,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(3)(cmd, args); err != nil {
				return err
			}
			_, err := export.Lookup(args[2])
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts, args[0], args[1], args[2], stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file to load before reading the environment")
	flags.StringVar(&opts.resultsDir, "results-dir", "", "directory for result files (default $EXPORT_DIR or results)")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "do not draw progress bars")

	cmd.AddCommand(newShowCommand(stdout))
	return cmd
}

func runPipeline(cmd *cobra.Command, opts *rootOptions, studentsPath, roomsPath, format string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	if opts.resultsDir != "" {
		cfg.Export.Dir = opts.resultsDir
	}

	log := logger.New(cfg.Log, stderr)

	st, err := app.NewStore(cfg.Database, log)
	if err != nil {
		return err
	}

	pipeOpts := app.Options{
		StudentsPath: studentsPath,
		RoomsPath:    roomsPath,
		Format:       format,
		ResultsDir:   cfg.Export.Dir,
	}
	if !opts.noProgress && isTerminal(stderr) {
		pipeOpts.Observer = ui.NewProgress(stderr)
	}

	p, err := app.NewPipeline(st, pipeOpts, log)
	if err != nil {
		return err
	}

	report, err := p.Run(cmd.Context())
	if isTerminal(stdout) && len(report.Results) > 0 {
		print.RenderTable(stdout, report.Summary(), print.Options{MaxWidth: 60})
	}
	return err
}
