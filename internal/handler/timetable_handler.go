package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cscinfonest/portal-api/internal/models"
	"github.com/cscinfonest/portal-api/internal/service"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
	"github.com/cscinfonest/portal-api/pkg/response"
)

// TimetableHandler handles timetable endpoints.
type TimetableHandler struct {
	service        *service.TimetableService
	exports        *service.ExportService
	defaultSession string
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc *service.TimetableService, exports *service.ExportService, defaultSession string) *TimetableHandler {
	return &TimetableHandler{service: svc, exports: exports, defaultSession: defaultSession}
}

// List godoc
// @Summary List timetables
// @Tags Timetables
// @Produce json
// @Param level query string false "Level filter"
// @Param semester query string false "Semester filter"
// @Param type query string false "exam or lecture"
// @Param session query string false "Academic session filter"
// @Param published query bool false "Publish state override"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	filter := models.TimetableFilter{
		Level:           c.Query("level"),
		Semester:        strings.ToLower(c.Query("semester")),
		Type:            strings.ToLower(c.Query("type")),
		AcademicSession: c.Query("session"),
		Search:          strings.TrimSpace(c.Query("search")),
		IsPublished:     queryBoolPtr(c, "published"),
		Limit:           queryInt(c, "limit", 50),
		Offset:          queryInt(c, "offset", 0),
	}

	timetables, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, timetables, total)
}

// Grouped godoc
// @Summary Published timetables of one session grouped by level
// @Tags Timetables
// @Produce json
// @Param session query string false "Academic session, defaults to the active one"
// @Success 200 {object} response.Envelope
// @Router /timetables/grouped [get]
func (h *TimetableHandler) Grouped(c *gin.Context) {
	session := c.DefaultQuery("session", h.defaultSession)
	grouped, err := h.service.GroupedBySession(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grouped)
}

// Get godoc
// @Summary Get timetable by id
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	timetable, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable)
}

// Create godoc
// @Summary Upload timetable document
// @Tags Timetables
// @Accept mpfd
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/timetables [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	file, err := fileFromForm(c, "file")
	if err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("Could not read uploaded file"))
		return
	}

	req := service.CreateTimetableRequest{File: file}
	req.Title, _ = formString(c, "title")
	req.Description, _ = formString(c, "description")
	req.AcademicSession, _ = formString(c, "academic_session")
	req.Semester, _ = formString(c, "semester")
	req.Level, _ = formString(c, "level")
	req.Type, _ = formString(c, "type")
	if published, ok := formBool(c, "is_published"); ok {
		req.IsPublished = published
	}

	timetable, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable)
}

// Update godoc
// @Summary Update timetable
// @Tags Timetables
// @Accept mpfd
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /admin/timetables/{id} [put]
func (h *TimetableHandler) Update(c *gin.Context) {
	file, err := fileFromForm(c, "file")
	if err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("Could not read uploaded file"))
		return
	}

	req := service.UpdateTimetableRequest{File: file}
	req.Title, _ = formString(c, "title")
	req.AcademicSession, _ = formString(c, "academic_session")
	req.Semester, _ = formString(c, "semester")
	req.Level, _ = formString(c, "level")
	req.Type, _ = formString(c, "type")
	if desc, ok := formString(c, "description"); ok {
		req.Description = &desc
	}
	if published, ok := formBool(c, "is_published"); ok {
		req.IsPublished = &published
	}

	timetable, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable)
}

// Publish godoc
// @Summary Toggle timetable visibility
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /admin/timetables/{id}/publish [patch]
func (h *TimetableHandler) Publish(c *gin.Context) {
	var req struct {
		IsPublished bool `json:"is_published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("invalid payload"))
		return
	}
	timetable, err := h.service.SetPublished(c.Request.Context(), c.Param("id"), req.IsPublished)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable)
}

// Delete godoc
// @Summary Delete timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 204
// @Router /admin/timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export timetables as CSV or PDF
// @Tags Timetables
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Router /admin/timetables/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	filter := models.TimetableFilter{
		Level:           c.Query("level"),
		Semester:        strings.ToLower(c.Query("semester")),
		Type:            strings.ToLower(c.Query("type")),
		AcademicSession: c.Query("session"),
		IsPublished:     queryBoolPtr(c, "published"),
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	file, err := h.exports.Timetables(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
