// Package httpserver exposes the webhook ingestion endpoint plus the health
// and metrics surfaces.
package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/brandon/webhook-agent/internal/domain"
	"github.com/brandon/webhook-agent/internal/usecase/pipeline"
)

// Processor runs one delivery through the pipeline.
type Processor interface {
	Process(ctx context.Context, body []byte, header http.Header) (pipeline.Outcome, error)
}

// Config holds the listener settings.
type Config struct {
	Addr            string
	MaxBodyBytes    int64
	RatePerSecond   float64
	RateBurst       int
	MetricsEnabled  bool
	ShutdownTimeout time.Duration
}

// Server is the HTTP front end.
type Server struct {
	engine    *gin.Engine
	processor Processor
	limiter   *rate.Limiter
	logger    *zap.Logger
	config    Config
}

// New builds the server and its routes. gatherer may be nil when metrics are
// disabled.
func New(processor Processor, gatherer prometheus.Gatherer, logger *zap.Logger, config Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 1 << 20
	}
	if config.RatePerSecond <= 0 {
		config.RatePerSecond = 10
	}
	if config.RateBurst <= 0 {
		config.RateBurst = 20
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 15 * time.Second
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		processor: processor,
		limiter:   rate.NewLimiter(rate.Limit(config.RatePerSecond), config.RateBurst),
		logger:    logger,
		config:    config,
	}

	engine.GET("/healthz", s.handleHealth)
	if config.MetricsEnabled && gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	engine.POST("/webhook", s.handleWebhook)

	return s
}

// Handler exposes the underlying handler (for tests and custom listeners).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("listening", zap.String("addr", s.config.Addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "agentd"})
}

func (s *Server) handleWebhook(c *gin.Context) {
	if !s.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}

	// Deliveries normally carry a platform ID; synthesize one for log
	// correlation when it is absent.
	requestID := c.GetHeader("X-GitHub-Delivery")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, s.config.MaxBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body"})
		return
	}
	if int64(len(body)) > s.config.MaxBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body exceeds limit"})
		return
	}

	outcome, err := s.processor.Process(c.Request.Context(), body, c.Request.Header)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("delivery processing failed",
			zap.String("requestId", requestID),
			zap.Error(err))
	}

	response := gin.H{"disposition": outcome.Disposition}
	if outcome.Detail != "" {
		response["detail"] = outcome.Detail
	}
	c.JSON(status, response)
}

// statusFor maps pipeline errors to transport status codes. Skip-class and
// execution failures are acknowledged with 200: the delivery was valid even
// when nothing came of it, and the platform must not redeliver it.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrSignatureInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrMalformedPayload):
		return http.StatusBadRequest
	case pipeline.IsSkip(err),
		errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrFallbackExhausted):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
