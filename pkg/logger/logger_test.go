package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newLoggedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/events", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, logs
}

func TestGinMiddlewareLogsRequestFields(t *testing.T) {
	r, logs := newLoggedRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/events", nil)
	r.ServeHTTP(w, req)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "http_request", entries[0].Message)

	fields := entries[0].ContextMap()
	require.Equal(t, "GET", fields["method"])
	require.Equal(t, "/api/events", fields["path"])
	require.EqualValues(t, http.StatusOK, fields["status"])
}

func TestGinMiddlewareSkipsProbePaths(t *testing.T) {
	r, logs := newLoggedRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, logs.Len())
}
