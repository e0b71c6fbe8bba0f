package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cscinfonest/portal-api/internal/models"
	"github.com/cscinfonest/portal-api/internal/service"
)

type announcementStoreStub struct {
	announcements map[string]*models.Announcement
	lastFilter    models.AnnouncementFilter
}

func newAnnouncementStoreStub() *announcementStoreStub {
	return &announcementStoreStub{announcements: make(map[string]*models.Announcement)}
}

func (r *announcementStoreStub) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	r.lastFilter = filter
	list := make([]models.Announcement, 0, len(r.announcements))
	for _, a := range r.announcements {
		list = append(list, *a)
	}
	return list, len(list), nil
}

func (r *announcementStoreStub) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	if a, ok := r.announcements[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *announcementStoreStub) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = "ann-1"
	}
	r.announcements[announcement.ID] = announcement
	return nil
}

func (r *announcementStoreStub) Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Announcement, error) {
	a, ok := r.announcements[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *a
	return &copy, nil
}

func (r *announcementStoreStub) Delete(ctx context.Context, id string) error {
	delete(r.announcements, id)
	return nil
}

func newAnnouncementHandlerForTest(store *announcementStoreStub) *AnnouncementHandler {
	return NewAnnouncementHandler(service.NewAnnouncementService(store, nil, zap.NewNop()))
}

func TestAnnouncementHandlerListEnvelopeShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newAnnouncementStoreStub()
	store.announcements["ann-1"] = &models.Announcement{ID: "ann-1", Title: "Exam Notice", Priority: models.PriorityHigh}
	handler := newAnnouncementHandlerForTest(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/announcements?priority=high&include_expired=true", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "high", store.lastFilter.Priority)
	require.True(t, store.lastFilter.IncludeExpired)

	var envelope struct {
		Success bool                  `json:"success"`
		Data    []models.Announcement `json:"data"`
		Count   int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.Equal(t, 1, envelope.Count)
	require.Len(t, envelope.Data, 1)
}

func TestAnnouncementHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAnnouncementHandlerForTest(newAnnouncementStoreStub())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(map[string]interface{}{
		"title":   "Exam Notice",
		"content": "Exams start next week.",
	})
	req, _ := http.NewRequest(http.MethodPost, "/admin/announcements", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"priority":"medium"`)
}

func TestAnnouncementHandlerCreateMissingContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAnnouncementHandlerForTest(newAnnouncementStoreStub())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(map[string]interface{}{"title": "Exam Notice"})
	req, _ := http.NewRequest(http.MethodPost, "/admin/announcements", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Missing required fields: title and content are required")
}

func TestAnnouncementHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAnnouncementHandlerForTest(newAnnouncementStoreStub())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/announcements/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Announcement not found")
}

func TestAnnouncementHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newAnnouncementStoreStub()
	store.announcements["ann-1"] = &models.Announcement{ID: "ann-1"}
	handler := newAnnouncementHandlerForTest(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/admin/announcements/ann-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "ann-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, store.announcements)
}
