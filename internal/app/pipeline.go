package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/errs"
	"github.com/bgunnarsson/roomexport/internal/export"
	"github.com/bgunnarsson/roomexport/internal/ingest"
	"github.com/bgunnarsson/roomexport/internal/observe"
	"github.com/bgunnarsson/roomexport/internal/queries"
	"github.com/bgunnarsson/roomexport/internal/store"
)

type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateIngested
	StateQuerying
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateIngested:
		return "ingested"
	case StateQuerying:
		return "querying"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Options struct {
	StudentsPath string
	RoomsPath    string
	Format       string
	ResultsDir   string
	// Observer gets ingestion and export progress. Nil means none.
	Observer observe.Observer
}

// Result is the outcome of one fixed query.
type Result struct {
	Query queries.Query
	Path  string
	Rows  int
	Err   error
}

type Report struct {
	Results   []Result
	IngestErr error
	// IndexErr is logged and reported but never fails the run.
	IndexErr error
	CloseErr error
}

// Summary renders the report as a table: one row per query.
func (r *Report) Summary() *db.Rows {
	out := &db.Rows{
		Columns: []db.Column{{Name: "query"}, {Name: "title"}, {Name: "file"}, {Name: "rows"}, {Name: "status"}},
		Data:    make([]db.Row, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		status, rows, file := "ok", db.Int(int64(res.Rows)), db.String(res.Path)
		if res.Err != nil {
			status, rows, file = kindOf(res.Err), db.Null(), db.Null()
		}
		out.Data = append(out.Data, db.Row{
			db.String(res.Query.Name), db.String(res.Query.Title), file, rows, db.String(status),
		})
	}
	return out
}

func kindOf(err error) string {
	switch errs.ExitCode(err) {
	case errs.ExitQuery:
		return "query failed"
	case errs.ExitSerialization:
		return "serialization failed"
	case errs.ExitExport:
		return "export failed"
	default:
		return "failed"
	}
}

// Pipeline runs connect, ingest, the fixed queries and their exports against
// one Store, and always closes it.
type Pipeline struct {
	store *store.Store
	opts  Options
	codec export.Codec
	obs   observe.Observer
	log   zerolog.Logger
	state State
}

func NewPipeline(st *store.Store, opts Options, log zerolog.Logger) (*Pipeline, error) {
	codec, err := export.Lookup(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.ResultsDir == "" {
		opts.ResultsDir = "results"
	}

	log = log.With().Str("component", "pipeline").Logger()
	return &Pipeline{
		store: st,
		opts:  opts,
		codec: codec,
		obs:   observe.Multi(observe.Log(log), opts.Observer),
		log:   log,
	}, nil
}

func (p *Pipeline) State() State { return p.state }

func (p *Pipeline) transition(to State) {
	p.log.Debug().Stringer("from", p.state).Stringer("to", to).Msg("state")
	p.state = to
}

// Run executes every step. Failures are contained to their step; the
// returned error joins them all and is nil only when every step succeeded.
// A connection failure stops the run before ingestion.
func (p *Pipeline) Run(ctx context.Context) (report *Report, err error) {
	report = &Report{}
	var failed []error

	defer func() {
		if cerr := p.store.Close(); cerr != nil {
			p.log.Error().Err(cerr).Msg("close store")
			report.CloseErr = cerr
			failed = append(failed, cerr)
		}
		p.transition(StateClosed)
		err = errors.Join(failed...)
	}()

	if err := p.store.Connect(ctx); err != nil {
		p.obs.OnError("connect", err)
		failed = append(failed, err)
		return report, nil
	}
	p.transition(StateConnected)

	if err := p.ingest(ctx); err != nil {
		report.IngestErr = err
		failed = append(failed, err)
	}
	p.transition(StateIngested)

	if err := p.store.CreateIndexes(ctx); err != nil {
		p.log.Warn().Err(err).Msg("index creation failed")
		report.IndexErr = err
	}

	if err := os.MkdirAll(p.opts.ResultsDir, 0o755); err != nil {
		err = &errs.ExportError{Path: p.opts.ResultsDir, Err: err}
		p.obs.OnError("results", err)
		failed = append(failed, err)
		return report, nil
	}

	qs, err := queries.For(p.store.Dialect().Name())
	if err != nil {
		failed = append(failed, err)
		return report, nil
	}

	p.transition(StateQuerying)
	for _, q := range qs {
		res := p.runOne(ctx, q)
		if res.Err != nil {
			failed = append(failed, res.Err)
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// ingest reports load failures itself; row failures are reported by the
// Ingestor.
func (p *Pipeline) ingest(ctx context.Context) error {
	if err := p.store.CreateSchema(ctx); err != nil {
		err = &errs.IngestionError{Collection: "schema", Row: -1, Err: err}
		p.obs.OnError("schema", err)
		return err
	}

	rooms, err := ingest.LoadRooms(p.opts.RoomsPath)
	if err != nil {
		p.obs.OnError(ingest.CollectionRooms, err)
		return err
	}
	students, err := ingest.LoadStudents(p.opts.StudentsPath)
	if err != nil {
		p.obs.OnError(ingest.CollectionStudents, err)
		return err
	}

	return ingest.New(p.store, p.obs, p.log).Ingest(ctx, rooms, students)
}

func (p *Pipeline) runOne(ctx context.Context, q queries.Query) Result {
	res := Result{Query: q}
	log := p.log.With().Str("query", q.Name).Logger()

	rows, err := RunQuery(ctx, p.store, q)
	if err != nil {
		p.obs.OnError(q.Name, err)
		res.Err = err
		return res
	}
	res.Rows = len(rows.Data)

	path := filepath.Join(p.opts.ResultsDir, export.Filename(q.Name, p.codec.Format()))
	if err := export.WriteFile(path, p.codec, rows, p.obs); err != nil {
		res.Err = err
		return res
	}
	res.Path = path

	log.Info().Str("file", path).Int("rows", res.Rows).Msg("exported")
	return res
}
