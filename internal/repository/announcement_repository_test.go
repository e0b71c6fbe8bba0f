package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/cscinfonest/portal-api/internal/models"
)

func newAnnouncementRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func announcementRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "content", "priority", "target_audience", "expires_at", "is_published", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "Exam Notice", "Exams start next week.", "high", nil, nil, true, time.Now(), time.Now())
	}
	return rows
}

func TestAnnouncementRepositoryListHidesExpired(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()

	repo := NewAnnouncementRepository(db)
	fixed := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectQuery(regexp.QuoteMeta("is_published = $1 AND (expires_at IS NULL OR expires_at > $2) ORDER BY created_at DESC")).
		WithArgs(true, fixed).
		WillReturnRows(announcementRows("ann-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM announcements")).
		WithArgs(true, fixed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	announcements, total, err := repo.List(context.Background(), models.AnnouncementFilter{})
	require.NoError(t, err)
	require.Len(t, announcements, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryListIncludeExpiredSkipsClause(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()

	repo := NewAnnouncementRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE priority = $1 AND is_published = $2 ORDER BY created_at DESC")).
		WithArgs("high", true).
		WillReturnRows(announcementRows("ann-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM announcements WHERE priority = $1 AND is_published = $2")).
		WithArgs("high", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.AnnouncementFilter{Priority: "high", IncludeExpired: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()

	repo := NewAnnouncementRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO announcements")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	announcement := &models.Announcement{
		Title:    "Exam Notice",
		Content:  "Exams start next week.",
		Priority: models.PriorityHigh,
	}
	require.NoError(t, repo.Create(context.Background(), announcement))
	require.NotEmpty(t, announcement.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryUpdateClearsExpiry(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()

	repo := NewAnnouncementRepository(db)
	fixed := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE announcements SET expires_at = $1, updated_at = $2 WHERE id = $3 RETURNING")).
		WithArgs(nil, fixed, "ann-1").
		WillReturnRows(announcementRows("ann-1"))

	updated, err := repo.Update(context.Background(), "ann-1", map[string]interface{}{"expires_at": nil})
	require.NoError(t, err)
	require.Equal(t, "ann-1", updated.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
