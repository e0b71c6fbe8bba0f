package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// paginate renders a LIMIT/OFFSET suffix. A non-positive limit means the
// caller wants the full result set.
func paginate(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

// buildPatch assembles a deterministic SET clause from a column patch.
// Columns outside the allow-list are dropped; updated_at is always stamped.
func buildPatch(patch map[string]interface{}, allowed map[string]struct{}, now time.Time) (string, []interface{}) {
	columns := make([]string, 0, len(patch))
	for column := range patch {
		if _, ok := allowed[column]; ok {
			columns = append(columns, column)
		}
	}
	sort.Strings(columns)

	clauses := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+1)
	for _, column := range columns {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, patch[column])
	}
	clauses = append(clauses, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, now)

	setClause := ""
	for i, clause := range clauses {
		if i > 0 {
			setClause += ", "
		}
		setClause += clause
	}
	return setClause, args
}

func entityCounts(ctx context.Context, db *sqlx.DB, table string) (int, int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_published) AS published FROM %s", table)
	var row struct {
		Total     int `db:"total"`
		Published int `db:"published"`
	}
	if err := db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("count %s: %w", table, err)
	}
	return row.Total, row.Published, nil
}

func createdBetween(ctx context.Context, db *sqlx.DB, table string, from, to time.Time) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE created_at >= $1 AND created_at < $2", table)
	var count int
	if err := db.GetContext(ctx, &count, query, from, to); err != nil {
		return 0, fmt.Errorf("count %s created: %w", table, err)
	}
	return count, nil
}

func bulkSetPublished(ctx context.Context, db *sqlx.DB, table string, ids []string, published bool, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE %s SET is_published = $1, updated_at = $2 WHERE id = ANY($3)", table)
	if _, err := db.ExecContext(ctx, query, published, now, pq.Array(ids)); err != nil {
		return fmt.Errorf("bulk publish %s: %w", table, err)
	}
	return nil
}

// IsUniqueViolation reports whether the error is a Postgres unique
// constraint violation, the storage-level backstop behind the advisory
// duplicate pre-checks.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
