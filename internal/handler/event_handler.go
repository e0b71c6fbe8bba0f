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

// EventHandler handles event endpoints.
type EventHandler struct {
	service *service.EventService
	exports *service.ExportService
}

// NewEventHandler constructs an event handler.
func NewEventHandler(svc *service.EventService, exports *service.ExportService) *EventHandler {
	return &EventHandler{service: svc, exports: exports}
}

// List godoc
// @Summary List events for the current year
// @Tags Events
// @Produce json
// @Param month query string false "Month filter (YYYY-MM)"
// @Param published query bool false "Publish state override"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	filter := models.EventFilter{
		Month:       c.Query("month"),
		IsPublished: queryBoolPtr(c, "published"),
		Limit:       queryInt(c, "limit", 50),
		Offset:      queryInt(c, "offset", 0),
	}

	events, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, events, total)
}

// Months godoc
// @Summary List months with published events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/months [get]
func (h *EventHandler) Months(c *gin.Context) {
	months, err := h.service.AvailableMonths(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, months)
}

// Get godoc
// @Summary Get event by id
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event)
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept mpfd
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	image, err := fileFromForm(c, "image")
	if err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("Could not read uploaded image"))
		return
	}

	req := service.CreateEventRequest{Image: image}
	req.Title, _ = formString(c, "title")
	req.Description, _ = formString(c, "description")
	req.Location, _ = formString(c, "location")
	req.Category, _ = formString(c, "category")
	if dt, ok := formTime(c, "date_time"); ok {
		req.DateTime = dt
	}
	if published, ok := formBool(c, "is_published"); ok {
		req.IsPublished = published
	}

	event, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Events
// @Accept mpfd
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /admin/events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	image, err := fileFromForm(c, "image")
	if err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("Could not read uploaded image"))
		return
	}

	req := service.UpdateEventRequest{Image: image}
	req.Title, _ = formString(c, "title")
	req.Location, _ = formString(c, "location")
	if dt, ok := formTime(c, "date_time"); ok {
		req.DateTime = dt
	}
	if desc, ok := formString(c, "description"); ok {
		req.Description = &desc
	}
	if category, ok := formString(c, "category"); ok {
		req.Category = &category
	}
	if published, ok := formBool(c, "is_published"); ok {
		req.IsPublished = &published
	}
	if remove, ok := formBool(c, "remove_image"); ok {
		req.RemoveImage = remove
	}

	event, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event)
}

// Delete godoc
// @Summary Delete event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 204
// @Router /admin/events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export events as CSV or PDF
// @Tags Events
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Router /admin/events/export [get]
func (h *EventHandler) Export(c *gin.Context) {
	year := time.Now().UTC().Year()
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	filter := models.EventFilter{IsPublished: queryBoolPtr(c, "published")}

	file, err := h.exports.Events(c.Request.Context(), filter, from, from.AddDate(1, 0, 0), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
