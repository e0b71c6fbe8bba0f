package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cscinfonest/portal-api/internal/models"
)

type timetableRepoStub struct {
	timetables map[string]*models.Timetable
	occupant   *models.Timetable
	createErr  error

	lastExcludeID string
	lastPatch     map[string]interface{}
}

func newTimetableRepoStub() *timetableRepoStub {
	return &timetableRepoStub{timetables: make(map[string]*models.Timetable)}
}

func (r *timetableRepoStub) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	return nil, 0, nil
}

func (r *timetableRepoStub) ListBySession(ctx context.Context, session string) ([]models.Timetable, error) {
	return nil, nil
}

func (r *timetableRepoStub) GetByID(ctx context.Context, id string) (*models.Timetable, error) {
	if tt, ok := r.timetables[id]; ok {
		copy := *tt
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *timetableRepoStub) FindByTuple(ctx context.Context, session string, semester models.Semester, level string, ttype models.TimetableType, excludeID string) (*models.Timetable, error) {
	r.lastExcludeID = excludeID
	if r.occupant != nil && r.occupant.ID != excludeID {
		copy := *r.occupant
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *timetableRepoStub) Create(ctx context.Context, timetable *models.Timetable) error {
	if r.createErr != nil {
		return r.createErr
	}
	if timetable.ID == "" {
		timetable.ID = "tt-1"
	}
	r.timetables[timetable.ID] = timetable
	return nil
}

func (r *timetableRepoStub) Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Timetable, error) {
	r.lastPatch = patch
	tt, ok := r.timetables[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *tt
	return &copy, nil
}

func (r *timetableRepoStub) Delete(ctx context.Context, id string) error {
	delete(r.timetables, id)
	return nil
}

func (r *timetableRepoStub) SetPublished(ctx context.Context, id string, published bool) (*models.Timetable, error) {
	tt, ok := r.timetables[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	tt.IsPublished = published
	copy := *tt
	return &copy, nil
}

func newTimetableServiceForTest(repo *timetableRepoStub, blobs *blobStoreStub) *TimetableService {
	svc := NewTimetableService(repo, blobs, nil, zap.NewNop(), "portal-media", "https://storage.example.com", testMaxUpload)
	svc.now = func() time.Time { return time.Date(2025, time.August, 14, 9, 0, 0, 0, time.UTC) }
	return svc
}

func validTimetableCreate() CreateTimetableRequest {
	return CreateTimetableRequest{
		Title:           "First Semester Exams",
		AcademicSession: "2024-2025",
		Semester:        "first",
		Level:           "200",
		Type:            "exam",
		File:            &models.FileUpload{Name: "exams.pdf", Size: 2048, ContentType: "application/pdf", Data: []byte("pdf")},
	}
}

func TestTimetableServiceCreateValidatesEnums(t *testing.T) {
	repo := newTimetableRepoStub()
	svc := newTimetableServiceForTest(repo, newBlobStoreStub())

	req := validTimetableCreate()
	req.Semester = "summer"
	_, err := svc.Create(context.Background(), req)
	requireAppError(t, err, "Semester must be either first or second")

	req = validTimetableCreate()
	req.Level = "600"
	_, err = svc.Create(context.Background(), req)
	requireAppError(t, err, "Level must be one of 100, 200, 300, 400, 500")

	req = validTimetableCreate()
	req.Type = "weekly"
	_, err = svc.Create(context.Background(), req)
	requireAppError(t, err, "Type must be either exam or lecture")

	req = validTimetableCreate()
	req.File = nil
	_, err = svc.Create(context.Background(), req)
	requireAppError(t, err, "Missing required fields: file, title, and academic_session are required")
	require.Empty(t, repo.timetables)
}

func TestTimetableServiceCreateRejectsOccupiedSlot(t *testing.T) {
	repo := newTimetableRepoStub()
	repo.occupant = &models.Timetable{ID: "tt-9", Title: "Existing Exams"}
	blobs := newBlobStoreStub()
	svc := newTimetableServiceForTest(repo, blobs)

	_, err := svc.Create(context.Background(), validTimetableCreate())
	requireAppError(t, err, `A exam timetable already exists for 2024-2025 - first semester, 200 level: "Existing Exams". Please update the existing one or use a different combination.`)
	require.Empty(t, blobs.uploads)
}

func TestTimetableServiceCreateUploadsDocument(t *testing.T) {
	repo := newTimetableRepoStub()
	blobs := newBlobStoreStub()
	svc := newTimetableServiceForTest(repo, blobs)

	tt, err := svc.Create(context.Background(), validTimetableCreate())
	require.NoError(t, err)
	require.Len(t, blobs.uploads, 1)
	require.Contains(t, tt.FileURL, "https://storage.example.com/portal-media/2024-2025/first-semester/200-level/")
	require.Equal(t, "exams.pdf", tt.FileName)
	require.NoError(t, err)
}

func TestTimetableServiceCreateRemovesOrphanBlobOnRowFailure(t *testing.T) {
	repo := newTimetableRepoStub()
	repo.createErr = context.DeadlineExceeded
	blobs := newBlobStoreStub()
	svc := newTimetableServiceForTest(repo, blobs)

	_, err := svc.Create(context.Background(), validTimetableCreate())
	require.Error(t, err)
	require.Len(t, blobs.deleted, 1)
}

func TestTimetableServiceUpdateExcludesOwnRowFromDuplicateCheck(t *testing.T) {
	repo := newTimetableRepoStub()
	repo.timetables["tt-1"] = &models.Timetable{ID: "tt-1", Title: "First Semester Exams"}
	repo.occupant = &models.Timetable{ID: "tt-1", Title: "First Semester Exams"}
	svc := newTimetableServiceForTest(repo, newBlobStoreStub())

	_, err := svc.Update(context.Background(), "tt-1", UpdateTimetableRequest{
		Title:           "First Semester Exams",
		AcademicSession: "2024-2025",
		Semester:        "first",
		Level:           "200",
		Type:            "exam",
	})
	require.NoError(t, err)
	require.Equal(t, "tt-1", repo.lastExcludeID)
}

func TestTimetableServiceUpdateRemovesReplacedFileBlob(t *testing.T) {
	repo := newTimetableRepoStub()
	repo.timetables["tt-1"] = &models.Timetable{
		ID:      "tt-1",
		Title:   "First Semester Exams",
		FileURL: "https://storage.example.com/portal-media/2024-2025/first-semester/200-level/1-old.pdf",
	}
	blobs := newBlobStoreStub()
	svc := newTimetableServiceForTest(repo, blobs)

	_, err := svc.Update(context.Background(), "tt-1", UpdateTimetableRequest{
		Title:           "First Semester Exams",
		AcademicSession: "2024-2025",
		Semester:        "first",
		Level:           "200",
		Type:            "exam",
		File:            &models.FileUpload{Name: "exams-v2.pdf", Size: 1024, ContentType: "application/pdf", Data: []byte("pdf")},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"2024-2025/first-semester/200-level/1-old.pdf"}, blobs.deleted)
}

func TestTimetableServiceUpdateConflictWithOtherRow(t *testing.T) {
	repo := newTimetableRepoStub()
	repo.timetables["tt-1"] = &models.Timetable{ID: "tt-1"}
	repo.occupant = &models.Timetable{ID: "tt-2", Title: "Other Exams"}
	svc := newTimetableServiceForTest(repo, newBlobStoreStub())

	_, err := svc.Update(context.Background(), "tt-1", UpdateTimetableRequest{
		Title:           "First Semester Exams",
		AcademicSession: "2024-2025",
		Semester:        "first",
		Level:           "200",
		Type:            "exam",
	})
	requireAppError(t, err, `A exam timetable already exists for 2024-2025 - first semester, 200 level: "Other Exams". Please update the existing one or use a different combination.`)
}

func TestTimetableServiceSetPublished(t *testing.T) {
	repo := newTimetableRepoStub()
	repo.timetables["tt-1"] = &models.Timetable{ID: "tt-1"}
	svc := newTimetableServiceForTest(repo, newBlobStoreStub())

	tt, err := svc.SetPublished(context.Background(), "tt-1", true)
	require.NoError(t, err)
	require.True(t, tt.IsPublished)

	_, err = svc.SetPublished(context.Background(), "missing", true)
	requireAppError(t, err, "Timetable not found")
}
