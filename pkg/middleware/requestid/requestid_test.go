package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newRequestIDRouter(capture *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		*capture = Value(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequestIDGeneratesUUID(t *testing.T) {
	var captured string
	r := newRequestIDRouter(&captured)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	_, err := uuid.Parse(captured)
	require.NoError(t, err)
	require.Equal(t, captured, w.Header().Get("X-Request-ID"))
}

func TestRequestIDKeepsInboundHeader(t *testing.T) {
	var captured string
	r := newRequestIDRouter(&captured)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "upstream-42")
	r.ServeHTTP(w, req)

	require.Equal(t, "upstream-42", captured)
	require.Equal(t, "upstream-42", w.Header().Get("X-Request-ID"))
}
