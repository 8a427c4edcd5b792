package server

import (
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yaklabco/docqa/internal/logging"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// requestID reuses the caller's X-Request-ID or assigns a new one, and attaches
// a logger carrying it to the request context.
func requestID(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)

		ctx := logging.WithRequestID(logging.WithLogger(c.Request.Context(), logger), id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// accessLog logs each request after it completes and records its duration.
func accessLog(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		metrics.requestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		logger := logging.FromContext(c.Request.Context())
		keyvals := []any{
			logging.FieldMethod, c.Request.Method,
			logging.FieldRoute, route,
			logging.FieldStatus, status,
			logging.FieldDuration, elapsed,
			logging.FieldClientIP, c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			keyvals = append(keyvals, logging.FieldError, c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("request", keyvals...)
		case route == "/health" || route == "/metrics":
			logger.Debug("request", keyvals...)
		default:
			logger.Info("request", keyvals...)
		}
	}
}

// corsMiddleware allows the configured origins. A "*" entry allows any origin
// without credentials.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", HeaderRequestID},
		ExposeHeaders: []string{HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
