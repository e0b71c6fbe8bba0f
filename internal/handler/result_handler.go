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

// ResultHandler handles result endpoints.
type ResultHandler struct {
	service        *service.ResultService
	exports        *service.ExportService
	defaultSession string
}

// NewResultHandler constructs a result handler.
func NewResultHandler(svc *service.ResultService, exports *service.ExportService, defaultSession string) *ResultHandler {
	return &ResultHandler{service: svc, exports: exports, defaultSession: defaultSession}
}

// List godoc
// @Summary List results
// @Tags Results
// @Produce json
// @Param level query string false "Level filter"
// @Param semester query string false "Semester filter"
// @Param session query string false "Academic session filter"
// @Param search query string false "Search keyword"
// @Param published query bool false "Publish state override"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /results [get]
func (h *ResultHandler) List(c *gin.Context) {
	filter := models.ResultFilter{
		Level:           c.Query("level"),
		Semester:        strings.ToLower(c.Query("semester")),
		AcademicSession: c.Query("session"),
		Search:          strings.TrimSpace(c.Query("search")),
		IsPublished:     queryBoolPtr(c, "published"),
		Limit:           queryInt(c, "limit", 50),
		Offset:          queryInt(c, "offset", 0),
	}

	results, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, results, total)
}

// Grouped godoc
// @Summary Published results of one session grouped by level
// @Tags Results
// @Produce json
// @Param session query string false "Academic session, defaults to the active one"
// @Success 200 {object} response.Envelope
// @Router /results/grouped [get]
func (h *ResultHandler) Grouped(c *gin.Context) {
	session := c.DefaultQuery("session", h.defaultSession)
	grouped, err := h.service.GroupedBySession(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grouped)
}

// Get godoc
// @Summary Get result by id
// @Tags Results
// @Produce json
// @Param id path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Router /results/{id} [get]
func (h *ResultHandler) Get(c *gin.Context) {
	result, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Create godoc
// @Summary Upload result document
// @Tags Results
// @Accept mpfd
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/results [post]
func (h *ResultHandler) Create(c *gin.Context) {
	file, err := fileFromForm(c, "file")
	if err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("Could not read uploaded file"))
		return
	}

	req := service.CreateResultRequest{File: file}
	req.Title, _ = formString(c, "title")
	req.Description, _ = formString(c, "description")
	req.AcademicSession, _ = formString(c, "academic_session")
	req.Semester, _ = formString(c, "semester")
	req.Level, _ = formString(c, "level")
	req.CourseCode, _ = formString(c, "course_code")
	if published, ok := formBool(c, "is_published"); ok {
		req.IsPublished = published
	}

	result, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Update result
// @Tags Results
// @Accept mpfd
// @Produce json
// @Param id path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Router /admin/results/{id} [put]
func (h *ResultHandler) Update(c *gin.Context) {
	file, err := fileFromForm(c, "file")
	if err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("Could not read uploaded file"))
		return
	}

	req := service.UpdateResultRequest{File: file}
	req.Title, _ = formString(c, "title")
	req.AcademicSession, _ = formString(c, "academic_session")
	if desc, ok := formString(c, "description"); ok {
		req.Description = &desc
	}
	if semester, ok := formString(c, "semester"); ok {
		req.Semester = &semester
	}
	if level, ok := formString(c, "level"); ok {
		req.Level = &level
	}
	if code, ok := formString(c, "course_code"); ok {
		req.CourseCode = &code
	}
	if published, ok := formBool(c, "is_published"); ok {
		req.IsPublished = &published
	}

	result, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Publish godoc
// @Summary Toggle result visibility
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Router /admin/results/{id}/publish [patch]
func (h *ResultHandler) Publish(c *gin.Context) {
	var req struct {
		IsPublished bool `json:"is_published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("invalid payload"))
		return
	}
	result, err := h.service.SetPublished(c.Request.Context(), c.Param("id"), req.IsPublished)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete result
// @Tags Results
// @Produce json
// @Param id path string true "Result ID"
// @Success 204
// @Router /admin/results/{id} [delete]
func (h *ResultHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export results as CSV or PDF
// @Tags Results
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Router /admin/results/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	filter := models.ResultFilter{
		Level:           c.Query("level"),
		Semester:        strings.ToLower(c.Query("semester")),
		AcademicSession: c.Query("session"),
		IsPublished:     queryBoolPtr(c, "published"),
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	file, err := h.exports.Results(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
