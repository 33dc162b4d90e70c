// Package ingest loads rooms and students from JSON and inserts them into a
// Store in a single transaction.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/errs"
	"github.com/bgunnarsson/roomexport/internal/observe"
)

// Executor is the part of store.Store the Ingestor needs.
type Executor interface {
	Dialect() db.Dialect
	Begin(ctx context.Context) error
	Exec(ctx context.Context, query string, args ...any) error
	Commit() error
	Rollback() error
}

type Ingestor struct {
	exec Executor
	obs  observe.Observer
	log  zerolog.Logger
}

func New(exec Executor, obs observe.Observer, log zerolog.Logger) *Ingestor {
	if obs == nil {
		obs = observe.Nop
	}
	return &Ingestor{
		exec: exec,
		obs:  obs,
		log:  log.With().Str("component", "ingest").Logger(),
	}
}

// Ingest inserts rooms then students and commits once. On any failure the
// transaction is rolled back explicitly and nothing from either collection
// is committed.
func (in *Ingestor) Ingest(ctx context.Context, rooms []Room, students []Student) error {
	if err := in.exec.Begin(ctx); err != nil {
		return &errs.IngestionError{Collection: "transaction", Row: -1, Err: fmt.Errorf("begin: %w", err)}
	}

	err := in.ingestRooms(ctx, rooms)
	if err == nil {
		err = in.ingestStudents(ctx, students)
	}
	if err != nil {
		if rbErr := in.exec.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		in.log.Warn().Err(err).Msg("ingestion rolled back")
		return err
	}

	if err := in.exec.Commit(); err != nil {
		return &errs.IngestionError{Collection: "transaction", Row: -1, Err: fmt.Errorf("commit: %w", err)}
	}
	in.log.Info().Int("rooms", len(rooms)).Int("students", len(students)).Msg("ingestion committed")
	return nil
}

func (in *Ingestor) ingestRooms(ctx context.Context, rooms []Room) error {
	d := in.exec.Dialect()
	stmt := fmt.Sprintf("INSERT INTO %s (id, name) VALUES (%s, %s)",
		db.TableRoom, d.Placeholder(1), d.Placeholder(2))

	in.obs.OnProgress(CollectionRooms, 0, len(rooms))
	for i, r := range rooms {
		if err := in.exec.Exec(ctx, stmt, r.ID, r.Name); err != nil {
			return in.fail(CollectionRooms, i, r.ID, err)
		}
		in.obs.OnProgress(CollectionRooms, i+1, len(rooms))
	}
	return nil
}

func (in *Ingestor) ingestStudents(ctx context.Context, students []Student) error {
	d := in.exec.Dialect()
	stmt := fmt.Sprintf("INSERT INTO %s (id, birthday, name, room, sex) VALUES (%s, %s, %s, %s, %s)",
		db.TableStudent, d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4), d.Placeholder(5))

	in.obs.OnProgress(CollectionStudents, 0, len(students))
	for i, s := range students {
		if err := in.exec.Exec(ctx, stmt, s.ID, s.Birthday.String(), s.Name, s.Room, s.Sex); err != nil {
			return in.fail(CollectionStudents, i, s.ID, err)
		}
		in.obs.OnProgress(CollectionStudents, i+1, len(students))
	}
	return nil
}

func (in *Ingestor) fail(collection string, row, id int, err error) error {
	ierr := &errs.IngestionError{Collection: collection, Row: row, ID: id, Err: err}
	in.obs.OnError(collection, ierr)
	return ierr
}
