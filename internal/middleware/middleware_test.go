package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/geetaway-search-api/internal/logger"
)

func newServer(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw...)
	e.GET("/search", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func do(e *echo.Echo, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/search", http.NoBody)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyAuth(t *testing.T) {
	e := newServer(APIKeyAuth([]string{"k1", "k2"}))

	assert.Equal(t, http.StatusUnauthorized, do(e, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(e, map[string]string{APIKeyHeader: "nope"}).Code)
	assert.Equal(t, http.StatusOK, do(e, map[string]string{APIKeyHeader: "k2"}).Code)
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	e := newServer(APIKeyAuth(nil))
	assert.Equal(t, http.StatusOK, do(e, nil).Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := newServer(RequestLogger(zap.New(core)))

	do(e, nil)
	entries := logs.FilterMessage("request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/search", fields["uri"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
	}
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(ContextLogger(zap.New(core)))
	e.GET("/search", func(c echo.Context) error {
		logger.FromContext(c.Request().Context()).Info("inside")
		return c.NoContent(http.StatusNoContent)
	})

	do(e, nil)
	assert.Equal(t, 1, logs.FilterMessage("inside").Len())
}

func TestCORSMiddleware(t *testing.T) {
	e := newServer(CORSMiddleware([]string{"https://thegeetaway.app"}))

	rec := do(e, map[string]string{echo.HeaderOrigin: "https://thegeetaway.app"})
	assert.Equal(t, "https://thegeetaway.app", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
