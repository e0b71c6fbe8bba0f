package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cscinfonest/portal-api/internal/service"
	"github.com/cscinfonest/portal-api/pkg/config"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
	"github.com/cscinfonest/portal-api/pkg/response"
)

// AuthHandler handles admin session endpoints.
type AuthHandler struct {
	service *service.AuthService
	cfg     config.JWTConfig
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(svc *service.AuthService, cfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{service: svc, cfg: cfg}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Sign in to the admin console
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.Clone("invalid payload"))
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, token, int(h.cfg.Expiration.Seconds()), "/", "", false, true)
	response.JSON(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout godoc
// @Summary Sign out and clear the session cookie
// @Tags Auth
// @Produce json
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", false, true)
	response.NoContent(c)
}

// Me godoc
// @Summary Current authenticated admin
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.CurrentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}
