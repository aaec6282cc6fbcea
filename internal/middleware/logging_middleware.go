package middleware

import (
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceHeader - заголовок ответа с trace-ID запроса
const TraceHeader = "X-Trace-ID"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
// Без логгера компонента пишет через глобальный logging пакет.
type RequestLogger struct {
	logger    *logging.Logger
	quietPath map[string]struct{}
}

// NewRequestLogger создает middleware. logger может быть nil.
// Запросы к quietPaths (например, /health) логируются на уровне DEBUG.
func NewRequestLogger(logger *logging.Logger, quietPaths ...string) *RequestLogger {
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}
	return &RequestLogger{logger: logger, quietPath: quiet}
}

func (rl *RequestLogger) logf(quiet bool, format string, args ...interface{}) {
	switch {
	case rl.logger != nil && quiet:
		rl.logger.Debug(format, args...)
	case rl.logger != nil:
		rl.logger.Info(format, args...)
	case quiet:
		logging.Debug(format, args...)
	default:
		logging.Info(format, args...)
	}
}

// Handler возвращает gin.HandlerFunc для router.Use()
func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Пытаемся извлечь trace-id из OpenTelemetry, если уже создан.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)
		c.Header(TraceHeader, traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		_, quiet := rl.quietPath[path]

		rl.logf(quiet, "[HTTP] ▶ %s %s ip=%s trace=%s", method, path, c.ClientIP(), traceID)

		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			quiet = false
		}
		rl.logf(quiet, "[HTTP] ◀ %s %s %d %s trace=%s", method, path, status, time.Since(start), traceID)
	}
}
