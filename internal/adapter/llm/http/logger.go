package http

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// maxLoggedContentLength bounds response text included in logs so user
	// code and secrets do not end up in log aggregators wholesale.
	maxLoggedContentLength = 200
)

// Logger provides structured logging for provider API calls.
type Logger interface {
	// LogRequest logs an outgoing API request (API key redacted).
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing and token info.
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs a classified API error.
	LogError(ctx context.Context, errLog ErrorLog)
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Provider    string
	Model       string
	PromptChars int
	APIKey      string
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Provider  string
	Model     string
	Duration  time.Duration
	TokensIn  int
	TokensOut int
	Cost      float64

	// Content is the generated text; only a bounded preview is logged.
	Content string
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Provider   string
	Model      string
	Duration   time.Duration
	Err        error
	Class      ErrorClass
	StatusCode int
	Retryable  bool
}

// ZapLogger writes call logs through a shared zap logger.
type ZapLogger struct {
	logger     *zap.Logger
	redactKeys bool
}

// NewZapLogger creates a call logger on top of logger.
func NewZapLogger(logger *zap.Logger, redactKeys bool) *ZapLogger {
	return &ZapLogger{logger: logger, redactKeys: redactKeys}
}

// LogRequest logs an API request at debug level.
func (l *ZapLogger) LogRequest(_ context.Context, req RequestLog) {
	l.logger.Debug("provider request",
		zap.String("provider", req.Provider),
		zap.String("model", req.Model),
		zap.Int("prompt_chars", req.PromptChars),
		zap.String("api_key", l.redact(req.APIKey)),
	)
}

// LogResponse logs an API response at info level.
func (l *ZapLogger) LogResponse(_ context.Context, resp ResponseLog) {
	fields := []zap.Field{
		zap.String("provider", resp.Provider),
		zap.String("model", resp.Model),
		zap.Duration("duration", resp.Duration),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Float64("cost_usd", resp.Cost),
	}
	if resp.Content != "" {
		fields = append(fields, zap.String("content_preview", TruncateForLogging(resp.Content)))
	}
	l.logger.Info("provider response", fields...)
}

// LogError logs a classified API error.
func (l *ZapLogger) LogError(_ context.Context, errLog ErrorLog) {
	l.logger.Error("provider call failed",
		zap.String("provider", errLog.Provider),
		zap.String("model", errLog.Model),
		zap.Duration("duration", errLog.Duration),
		zap.String("class", string(errLog.Class)),
		zap.Int("status_code", errLog.StatusCode),
		zap.Bool("retryable", errLog.Retryable),
		zap.Error(errLog.Err),
	)
}

// redact shows only the last 4 characters of an API key.
func (l *ZapLogger) redact(key string) string {
	if !l.redactKeys {
		return key
	}
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}

// TruncateForLogging caps response text destined for logs, keeping enough of
// the head for debugging.
func TruncateForLogging(content string) string {
	if len(content) <= maxLoggedContentLength {
		return content
	}
	return content[:maxLoggedContentLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(content))
}
