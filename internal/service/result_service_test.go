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

type resultRepoStub struct {
	results     map[string]*models.Result
	sessionRows []models.Result
	createErr   error

	lastPatch    map[string]interface{}
	sessionCalls int
}

func newResultRepoStub() *resultRepoStub {
	return &resultRepoStub{results: make(map[string]*models.Result)}
}

func (r *resultRepoStub) List(ctx context.Context, filter models.ResultFilter) ([]models.Result, int, error) {
	return nil, 0, nil
}

func (r *resultRepoStub) ListBySession(ctx context.Context, session string) ([]models.Result, error) {
	r.sessionCalls++
	return r.sessionRows, nil
}

func (r *resultRepoStub) GetByID(ctx context.Context, id string) (*models.Result, error) {
	if result, ok := r.results[id]; ok {
		copy := *result
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *resultRepoStub) Create(ctx context.Context, result *models.Result) error {
	if r.createErr != nil {
		return r.createErr
	}
	if result.ID == "" {
		result.ID = "res-1"
	}
	r.results[result.ID] = result
	return nil
}

func (r *resultRepoStub) Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Result, error) {
	r.lastPatch = patch
	result, ok := r.results[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *result
	return &copy, nil
}

func (r *resultRepoStub) Delete(ctx context.Context, id string) error {
	delete(r.results, id)
	return nil
}

func (r *resultRepoStub) SetPublished(ctx context.Context, id string, published bool) (*models.Result, error) {
	result, ok := r.results[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	result.IsPublished = published
	copy := *result
	return &copy, nil
}

func newResultServiceForTest(repo *resultRepoStub, blobs *blobStoreStub) *ResultService {
	svc := NewResultService(repo, blobs, nil, zap.NewNop(), "portal-media", "https://storage.example.com", testMaxUpload)
	svc.now = func() time.Time { return time.Date(2025, time.August, 14, 9, 0, 0, 0, time.UTC) }
	return svc
}

func validResultCreate() CreateResultRequest {
	return CreateResultRequest{
		Title:           "First Semester Results",
		AcademicSession: "2024-2025",
		Semester:        "first",
		Level:           "100",
		File:            &models.FileUpload{Name: "results.pdf", Size: 1024, ContentType: "application/pdf", Data: []byte("pdf")},
	}
}

func TestResultServiceCreateRequiresFileTitleSession(t *testing.T) {
	repo := newResultRepoStub()
	svc := newResultServiceForTest(repo, newBlobStoreStub())

	req := validResultCreate()
	req.File = nil
	_, err := svc.Create(context.Background(), req)
	requireAppError(t, err, "Missing required fields: file, title, and academic_session are required")

	req = validResultCreate()
	req.AcademicSession = "2024-2026"
	_, err = svc.Create(context.Background(), req)
	requireAppError(t, err, "Academic session years must be consecutive (e.g., 2024-2025)")
	require.Empty(t, repo.results)
}

func TestResultServiceCreateUploadsUnderSessionKey(t *testing.T) {
	repo := newResultRepoStub()
	blobs := newBlobStoreStub()
	svc := newResultServiceForTest(repo, blobs)

	result, err := svc.Create(context.Background(), validResultCreate())
	require.NoError(t, err)
	require.Len(t, blobs.uploads, 1)
	require.Contains(t, result.FileURL, "https://storage.example.com/portal-media/2024-2025/first-semester/100-level/")
	require.True(t, result.Semester == models.SemesterFirst)
}

func TestResultServiceCreateRemovesOrphanBlobOnRowFailure(t *testing.T) {
	repo := newResultRepoStub()
	repo.createErr = context.DeadlineExceeded
	blobs := newBlobStoreStub()
	svc := newResultServiceForTest(repo, blobs)

	_, err := svc.Create(context.Background(), validResultCreate())
	require.Error(t, err)
	require.Len(t, blobs.deleted, 1)
}

func TestResultServiceUpdateFetchesRowForReplacementKey(t *testing.T) {
	repo := newResultRepoStub()
	repo.results["res-1"] = &models.Result{
		ID:              "res-1",
		AcademicSession: "2024-2025",
		Semester:        models.SemesterSecond,
		Level:           "300",
	}
	blobs := newBlobStoreStub()
	svc := newResultServiceForTest(repo, blobs)

	// Neither semester nor level in the payload; the replacement file must
	// land under the stored tuple, not a default one.
	_, err := svc.Update(context.Background(), "res-1", UpdateResultRequest{
		Title:           "Resit Results",
		AcademicSession: "2024-2025",
		File:            &models.FileUpload{Name: "resit.pdf", Size: 512, ContentType: "application/pdf", Data: []byte("pdf")},
	})
	require.NoError(t, err)
	require.Len(t, blobs.uploads, 1)
	require.Contains(t, repo.lastPatch["file_url"], "/2024-2025/second-semester/300-level/")
}

func TestResultServiceUpdateRemovesReplacedFileBlob(t *testing.T) {
	repo := newResultRepoStub()
	repo.results["res-1"] = &models.Result{
		ID:              "res-1",
		AcademicSession: "2024-2025",
		Semester:        models.SemesterFirst,
		Level:           "100",
		FileURL:         "https://storage.example.com/portal-media/2024-2025/first-semester/100-level/1-old.pdf",
	}
	blobs := newBlobStoreStub()
	svc := newResultServiceForTest(repo, blobs)

	_, err := svc.Update(context.Background(), "res-1", UpdateResultRequest{
		Title:           "Resit Results",
		AcademicSession: "2024-2025",
		File:            &models.FileUpload{Name: "resit.pdf", Size: 512, ContentType: "application/pdf", Data: []byte("pdf")},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"2024-2025/first-semester/100-level/1-old.pdf"}, blobs.deleted)
}

func TestResultServiceUpdatePartialFieldsStayUntouched(t *testing.T) {
	repo := newResultRepoStub()
	repo.results["res-1"] = &models.Result{ID: "res-1"}
	svc := newResultServiceForTest(repo, newBlobStoreStub())

	_, err := svc.Update(context.Background(), "res-1", UpdateResultRequest{
		Title:           "Renamed",
		AcademicSession: "2024-2025",
	})
	require.NoError(t, err)
	require.NotContains(t, repo.lastPatch, "semester")
	require.NotContains(t, repo.lastPatch, "level")
	require.NotContains(t, repo.lastPatch, "is_published")
}

func TestResultServiceGroupedBySessionCaches(t *testing.T) {
	repo := newResultRepoStub()
	repo.sessionRows = []models.Result{
		{ID: "res-1", Level: "100", Semester: models.SemesterFirst},
	}
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, time.Minute, zap.NewNop(), nil)
	svc := NewResultService(repo, newBlobStoreStub(), cache, zap.NewNop(), "portal-media", "https://storage.example.com", testMaxUpload)

	grouped, err := svc.GroupedBySession(context.Background(), "2024-2025")
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	require.Equal(t, 1, repo.sessionCalls)

	// Second read is served from the cache.
	grouped, err = svc.GroupedBySession(context.Background(), "2024-2025")
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	require.Equal(t, 1, repo.sessionCalls)

	_, err = svc.GroupedBySession(context.Background(), "24-25")
	requireAppError(t, err, "Academic session must be in YYYY-YYYY format (e.g., 2024-2025)")
}

func TestResultServiceSetPublished(t *testing.T) {
	repo := newResultRepoStub()
	repo.results["res-1"] = &models.Result{ID: "res-1"}
	svc := newResultServiceForTest(repo, newBlobStoreStub())

	result, err := svc.SetPublished(context.Background(), "res-1", true)
	require.NoError(t, err)
	require.True(t, result.IsPublished)

	_, err = svc.SetPublished(context.Background(), "missing", false)
	requireAppError(t, err, "Result not found")
}
