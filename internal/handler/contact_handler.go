package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cscinfonest/portal-api/internal/service"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
	"github.com/cscinfonest/portal-api/pkg/mailer"
)

// ContactHandler relays contact-form submissions. Its responses carry a
// bare message field instead of the common envelope, matching what the
// public contact form expects.
type ContactHandler struct {
	service *service.ContactService
}

// NewContactHandler constructs a contact handler.
func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{service: svc}
}

type contactRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Message     string `json:"message"`
	Subject     string `json:"subject"`
	StudentID   string `json:"studentId"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	PhoneNumber string `json:"phoneNumber"`
}

// Submit godoc
// @Summary Send a contact message to the support inbox
// @Tags Contact
// @Accept json
// @Produce json
// @Param payload body contactRequest true "Message"
// @Success 200 {object} map[string]string
// @Router /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}

	err := h.service.Submit(c.Request.Context(), mailer.ContactMessage{
		Name:        req.Name,
		Email:       req.Email,
		Message:     req.Message,
		Subject:     req.Subject,
		StudentID:   req.StudentID,
		Priority:    req.Priority,
		Category:    req.Category,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		appErr := appErrors.FromError(err)
		status := http.StatusInternalServerError
		if appErr.Status == http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"message": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully"})
}
