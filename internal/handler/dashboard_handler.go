package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cscinfonest/portal-api/internal/service"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
	"github.com/cscinfonest/portal-api/pkg/response"
)

// DashboardHandler handles admin dashboard endpoints.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Stats godoc
// @Summary Content volume counters
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Activity godoc
// @Summary Recent changes across all content kinds
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/activity [get]
func (h *DashboardHandler) Activity(c *gin.Context) {
	items, err := h.service.RecentActivity(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Analytics godoc
// @Summary Monthly creation chart and level distribution
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/analytics [get]
func (h *DashboardHandler) Analytics(c *gin.Context) {
	data, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data)
}

// QuickMetrics godoc
// @Summary Month-over-month upload comparison
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/metrics [get]
func (h *DashboardHandler) QuickMetrics(c *gin.Context) {
	metrics, err := h.service.QuickMetrics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metrics)
}

// Search godoc
// @Summary Title search across all content kinds
// @Tags Dashboard
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/search [get]
func (h *DashboardHandler) Search(c *gin.Context) {
	results, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results)
}

// SessionContent godoc
// @Summary All uploads for one academic session
// @Tags Dashboard
// @Produce json
// @Param session query string true "Academic session"
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/session-content [get]
func (h *DashboardHandler) SessionContent(c *gin.Context) {
	content, err := h.service.ContentBySession(c.Request.Context(), c.Query("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content)
}

type bulkPublishRequest struct {
	Kind        string   `json:"kind"`
	IDs         []string `json:"ids"`
	IsPublished bool     `json:"is_published"`
}

// BulkPublish godoc
// @Summary Flip visibility for a batch of rows
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body bulkPublishRequest true "Batch"
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/bulk-publish [post]
func (h *DashboardHandler) BulkPublish(c *gin.Context) {
	var req bulkPublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("invalid payload"))
		return
	}
	if err := h.service.BulkPublish(c.Request.Context(), req.Kind, req.IDs, req.IsPublished); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": len(req.IDs)})
}
