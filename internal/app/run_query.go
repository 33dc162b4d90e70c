package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/errs"
	"github.com/bgunnarsson/roomexport/internal/queries"
)

// Querier is the part of store.Store RunQuery needs.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) error
	FetchAll() (*db.Rows, error)
}

// RunQuery executes q and fetches its result right away. Any failure comes
// back as an *errs.QueryError naming q and carrying its SQL; no partial
// result is returned.
func RunQuery(ctx context.Context, st Querier, q queries.Query) (*db.Rows, error) {
	fail := func(err error) (*db.Rows, error) {
		var qe *errs.QueryError
		if errors.As(err, &qe) {
			err = qe.Err
		}
		return nil, &errs.QueryError{Name: q.Name, SQL: q.SQL, Err: err}
	}

	if err := st.Query(ctx, q.SQL); err != nil {
		return fail(err)
	}
	rows, err := st.FetchAll()
	if err != nil {
		return fail(err)
	}

	if names := rows.ColumnNames(); len(q.Columns) > 0 && !slices.Equal(names, q.Columns) {
		return fail(fmt.Errorf("result columns %v, want %v", names, q.Columns))
	}
	return rows, nil
}
