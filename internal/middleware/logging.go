package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLoggerOption customizes RequestLogger.
type RequestLoggerOption func(*requestLogger)

// SkipPaths suppresses the access log for exact request paths such as health probes.
// Failed requests on those paths are still logged.
func SkipPaths(paths ...string) RequestLoggerOption {
	return func(l *requestLogger) {
		for _, p := range paths {
			l.skip[p] = struct{}{}
		}
	}
}

// SlowRequestThreshold logs successful requests slower than d at warn level.
func SlowRequestThreshold(d time.Duration) RequestLoggerOption {
	return func(l *requestLogger) { l.slow = d }
}

type requestLogger struct {
	logger *zap.Logger
	skip   map[string]struct{}
	slow   time.Duration
}

// RequestLogger writes one access log entry per request after it completes.
// Entries carry the matched route, the request id and, behind auth, the caller's uid.
func RequestLogger(logger *zap.Logger, opts ...RequestLoggerOption) gin.HandlerFunc {
	if logger == nil {
		panic("RequestLogger requires a non-nil zap.Logger instance")
	}
	l := &requestLogger{logger: logger, skip: map[string]struct{}{}}
	for _, opt := range opts {
		opt(l)
	}
	return l.handle
}

func (l *requestLogger) handle(c *gin.Context) {
	start := time.Now()
	path := c.Request.URL.Path
	query := c.Request.URL.RawQuery

	c.Next()

	statusCode := c.Writer.Status()
	latency := time.Since(start)
	if _, skip := l.skip[path]; skip && statusCode < http.StatusBadRequest {
		return
	}

	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", path),
		zap.String("route", c.FullPath()),
		zap.Int("status_code", statusCode),
		zap.Int("response_bytes", c.Writer.Size()),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
		zap.String("request_id", c.GetString(ContextKeyRequestID)),
	}
	if claims, ok := ClaimsFrom(c); ok {
		fields = append(fields, zap.String("uid", claims.UID))
	}
	if query != "" {
		fields = append(fields, zap.String("query", query))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("gin_errors", c.Errors.String()))
	}

	switch {
	case statusCode >= http.StatusInternalServerError:
		l.logger.Error("Request completed", fields...)
	case statusCode >= http.StatusBadRequest:
		l.logger.Warn("Request completed", fields...)
	case l.slow > 0 && latency > l.slow:
		l.logger.Warn("Slow request", fields...)
	default:
		l.logger.Info("Request completed", fields...)
	}
}
