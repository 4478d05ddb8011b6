package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// APIKeyHeader carries the client's API key
const APIKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests without a valid X-API-Key: 401 when the header is
// missing, 403 when the key is unknown. With no keys configured it is a no-op.
func APIKeyAuth(keys []string) echo.MiddlewareFunc {
	if len(keys) == 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + APIKeyHeader,
		Validator: func(key string, _ echo.Context) (bool, error) {
			for _, k := range keys {
				if subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
					return true, nil
				}
			}
			return false, nil
		},
		ErrorHandler: func(err error, _ echo.Context) error {
			var missing *middleware.ErrKeyAuthMissing
			if errors.As(err, &missing) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing API Key")
			}
			return echo.NewHTTPError(http.StatusForbidden, "Invalid API Key")
		},
	})
}
