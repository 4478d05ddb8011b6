package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/geetaway-search-api/internal/logger"
)

// ContextLogger attaches a request-scoped zap logger to the request context
func ContextLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := base
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				l = l.With(zap.String("request_id", id))
			}
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithLogger(req.Context(), l)))
			return next(c)
		}
	}
}

// RequestLogger writes one access log line per request to zap
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				base.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			base.Info("request", fields...)
			return nil
		},
	})
}
