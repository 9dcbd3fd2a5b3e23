// Package sqlxrepos implements the repositories on top of sqlx, for both postgres and sqlite3.
// Queries are written with `?` bind vars and rebound for the driver in use.
package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Iamayomi/academic-management-platform/core"
)

// whereClause collects AND-ed conditions and their args.
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// addIn adds `col IN (?)`, expanded by sqlx.In. An empty list matches nothing.
func (w *whereClause) addIn(col string, values interface{}, empty bool) {
	if empty {
		w.add("1 = 0")
		return
	}
	w.add(col+" IN (?)", values)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// selectQuery expands IN clauses and rebinds the query before running it.
func selectQuery(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	q, qArgs, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "sqlx.In()")
	}
	return exec.SelectContext(ctx, dest, exec.Rebind(q), qArgs...)
}

func getQuery(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	q, qArgs, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "sqlx.In()")
	}
	return exec.GetContext(ctx, dest, exec.Rebind(q), qArgs...)
}

// execAffecting runs a statement and returns notFound when it touched no row.
func execAffecting(ctx context.Context, exec core.DBExecutor, notFound error, query string, args ...interface{}) error {
	res, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "RowsAffected()")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
