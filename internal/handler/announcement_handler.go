package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cscinfonest/portal-api/internal/models"
	"github.com/cscinfonest/portal-api/internal/service"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
	"github.com/cscinfonest/portal-api/pkg/response"
)

// AnnouncementHandler handles announcement endpoints.
type AnnouncementHandler struct {
	service *service.AnnouncementService
}

// NewAnnouncementHandler constructs an announcement handler.
func NewAnnouncementHandler(svc *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

type announcementPayload struct {
	Title          *string    `json:"title"`
	Content        *string    `json:"content"`
	Priority       *string    `json:"priority"`
	TargetAudience *string    `json:"target_audience"`
	IsPublished    *bool      `json:"is_published"`
	ExpiresAt      *time.Time `json:"expires_at"`
	ClearExpiry    bool       `json:"clear_expiry"`
}

// List godoc
// @Summary List announcements
// @Tags Announcements
// @Produce json
// @Param priority query string false "Priority filter"
// @Param audience query string false "Target audience filter"
// @Param published query bool false "Publish state override"
// @Param include_expired query bool false "Include expired announcements"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	filter := models.AnnouncementFilter{
		Priority:       c.Query("priority"),
		TargetAudience: c.Query("audience"),
		IsPublished:    queryBoolPtr(c, "published"),
		Limit:          queryInt(c, "limit", 50),
		Offset:         queryInt(c, "offset", 0),
	}
	if include := queryBoolPtr(c, "include_expired"); include != nil {
		filter.IncludeExpired = *include
	}

	announcements, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, announcements, total)
}

// Get godoc
// @Summary Get announcement by id
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	announcement, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement)
}

// Create godoc
// @Summary Create announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body announcementPayload true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Router /admin/announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var payload announcementPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("invalid payload"))
		return
	}

	req := service.CreateAnnouncementRequest{ExpiresAt: payload.ExpiresAt}
	if payload.Title != nil {
		req.Title = *payload.Title
	}
	if payload.Content != nil {
		req.Content = *payload.Content
	}
	if payload.Priority != nil {
		req.Priority = *payload.Priority
	}
	if payload.TargetAudience != nil {
		req.TargetAudience = *payload.TargetAudience
	}
	if payload.IsPublished != nil {
		req.IsPublished = *payload.IsPublished
	}

	announcement, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Update godoc
// @Summary Update announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body announcementPayload true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var payload announcementPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("invalid payload"))
		return
	}

	req := service.UpdateAnnouncementRequest{
		Title:          payload.Title,
		Content:        payload.Content,
		Priority:       payload.Priority,
		TargetAudience: payload.TargetAudience,
		IsPublished:    payload.IsPublished,
		ExpiresAt:      payload.ExpiresAt,
		ClearExpiry:    payload.ClearExpiry,
	}

	announcement, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement)
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 204
// @Router /admin/announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
