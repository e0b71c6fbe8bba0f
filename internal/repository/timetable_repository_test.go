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

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func timetableRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "description", "academic_session", "semester", "level", "type", "file_url", "file_name", "file_size", "is_published", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "Exam Timetable", nil, "2024-2025", "first", "200", "exam", "https://cdn.example.com/t.pdf", "t.pdf", int64(2048), true, time.Now(), time.Now())
	}
	return rows
}

func TestTimetableRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE level = $1 AND type = $2 AND is_published = $3 ORDER BY created_at DESC")).
		WithArgs("200", "exam", true).
		WillReturnRows(timetableRows("tt-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetables")).
		WithArgs("200", "exam", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	timetables, total, err := repo.List(context.Background(), models.TimetableFilter{Level: "200", Type: "exam"})
	require.NoError(t, err)
	require.Len(t, timetables, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindByTuple(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE academic_session = $1 AND semester = $2 AND level = $3 AND type = $4 LIMIT 1")).
		WithArgs("2024-2025", "first", "200", "exam").
		WillReturnRows(timetableRows("tt-1"))

	found, err := repo.FindByTuple(context.Background(), "2024-2025", models.SemesterFirst, "200", models.TimetableExam, "")
	require.NoError(t, err)
	require.Equal(t, "tt-1", found.ID)

	mock.ExpectQuery(regexp.QuoteMeta("AND type = $4 AND id <> $5 LIMIT 1")).
		WithArgs("2024-2025", "first", "200", "exam", "tt-1").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByTuple(context.Background(), "2024-2025", models.SemesterFirst, "200", models.TimetableExam, "tt-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetables")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	timetable := &models.Timetable{
		Title:           "Exam Timetable",
		AcademicSession: "2024-2025",
		Semester:        models.SemesterFirst,
		Level:           "200",
		Type:            models.TimetableExam,
		FileURL:         "https://cdn.example.com/t.pdf",
		FileName:        "t.pdf",
		FileSize:        2048,
	}
	require.NoError(t, repo.Create(context.Background(), timetable))
	require.NotEmpty(t, timetable.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySetPublishedNoRows(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE timetables SET is_published = $1")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.SetPublished(context.Background(), "missing", true)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
