package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/cscinfonest/portal-api/internal/models"
)

func newResultRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func resultRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "description", "academic_session", "semester", "level", "course_code", "file_url", "file_name", "file_size", "is_published", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "First Semester Results", nil, "2024-2025", "first", "100", nil, "https://cdn.example.com/r.pdf", "r.pdf", int64(1024), true, time.Now(), time.Now())
	}
	return rows
}

func TestResultRepositoryListSearchMatchesThreeColumns(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	repo := NewResultRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("(title ILIKE $3 OR description ILIKE $4 OR course_code ILIKE $5)")).
		WithArgs("100", true, "%CSC101%", "%CSC101%", "%CSC101%").
		WillReturnRows(resultRows("res-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM results")).
		WithArgs("100", true, "%CSC101%", "%CSC101%", "%CSC101%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	results, total, err := repo.List(context.Background(), models.ResultFilter{Level: "100", Search: "CSC101"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryListBySessionOnlyPublished(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	repo := NewResultRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE academic_session = $1 AND is_published = TRUE ORDER BY level ASC, semester ASC")).
		WithArgs("2024-2025").
		WillReturnRows(resultRows("res-1", "res-2"))

	results, err := repo.ListBySession(context.Background(), "2024-2025")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryAllBySessionIncludesDrafts(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	repo := NewResultRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM results WHERE academic_session = $1 ORDER BY created_at DESC")).
		WithArgs("2024-2025").
		WillReturnRows(resultRows("res-1"))

	results, err := repo.AllBySession(context.Background(), "2024-2025")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryUpdatePatchReturnsRow(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	repo := NewResultRepository(db)
	fixed := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE results SET academic_session = $1, title = $2, updated_at = $3 WHERE id = $4 RETURNING")).
		WithArgs("2025-2026", "Resit Results", fixed, "res-1").
		WillReturnRows(resultRows("res-1"))

	updated, err := repo.Update(context.Background(), "res-1", map[string]interface{}{
		"title":            "Resit Results",
		"academic_session": "2025-2026",
	})
	require.NoError(t, err)
	require.Equal(t, "res-1", updated.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositorySetPublished(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	repo := NewResultRepository(db)
	fixed := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE results SET is_published = $1, updated_at = $2 WHERE id = $3 RETURNING")).
		WithArgs(true, fixed, "res-1").
		WillReturnRows(resultRows("res-1"))

	updated, err := repo.SetPublished(context.Background(), "res-1", true)
	require.NoError(t, err)
	require.Equal(t, "res-1", updated.ID)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE results SET is_published = $1")).
		WithArgs(false, fixed, "missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.SetPublished(context.Background(), "missing", false)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryLevelDistribution(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	repo := NewResultRepository(db)
	rows := sqlmock.NewRows([]string{"level", "count"}).AddRow("100", 4).AddRow("300", 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT level, COUNT(*) AS count FROM results WHERE is_published = TRUE GROUP BY level")).
		WillReturnRows(rows)

	distribution, err := repo.LevelDistribution(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{"100": 4, "300": 2}, distribution)
	require.NoError(t, mock.ExpectationsWereMet())
}
