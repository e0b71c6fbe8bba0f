package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cscinfonest/portal-api/internal/service"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
	"github.com/cscinfonest/portal-api/pkg/response"
)

// ContextUserKey is the gin context key storing session claims.
const ContextUserKey = "currentUser"

// SessionGate protects the admin surface. The session token is read from
// the session cookie, falling back to a bearer header for API clients.
// Browser requests without a valid session are redirected to the login
// page; API requests get a 401 envelope.
func SessionGate(authService *service.AuthService, cookieName, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			reject(c, loginPath, appErrors.ErrUnauthorized)
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			reject(c, loginPath, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func sessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func reject(c *gin.Context, loginPath string, err error) {
	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, loginPath)
		c.Abort()
		return
	}
	response.Error(c, err)
	c.Abort()
}

func wantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
