package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptreel/server/internal/shared/logger"
)

// Logging returns a middleware that writes one access log line per request.
// Requests for skipPaths (health probes, metric scrapes) are only logged when
// they fail.
func Logging(log *logger.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		if _, ok := skip[path]; ok && status < 400 {
			return
		}

		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"bytes_out", c.Writer.Size(),
		}
		if route := c.FullPath(); route != "" && route != path {
			attrs = append(attrs, "route", route)
		}
		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, "query", query)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.ErrorContext(ctx, "HTTP Request", attrs...)
		case status >= 400:
			log.WarnContext(ctx, "HTTP Request", attrs...)
		default:
			log.InfoContext(ctx, "HTTP Request", attrs...)
		}
	}
}
