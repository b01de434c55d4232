package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-interactions/core"
	glog "github.com/goliatone/go-logger/glog"
)

const DefaultBodyLimitBytes int64 = 8192

// InteractionHandler is satisfied by *inbound.Handler.
type InteractionHandler interface {
	Handle(ctx context.Context, req core.InboundRequest) (core.InboundResult, error)
}

type Config struct {
	Handler InteractionHandler
	Logger  core.Logger
	// BodyLimitBytes caps interaction bodies; larger requests get 413.
	BodyLimitBytes int64
}

type Server struct {
	engine    *gin.Engine
	handler   InteractionHandler
	logger    core.Logger
	bodyLimit int64
}

func New(cfg Config) (*Server, error) {
	if cfg.Handler == nil {
		return nil, internalError("server: interaction handler is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = glog.Nop()
	}
	limit := cfg.BodyLimitBytes
	if limit <= 0 {
		limit = DefaultBodyLimitBytes
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:    gin.New(),
		handler:   cfg.Handler,
		logger:    logger,
		bodyLimit: limit,
	}
	s.engine.Use(RequestIDMiddleware(), LoggingMiddleware(logger), RecoveryMiddleware(logger))
	s.engine.GET("/health", s.health)
	s.engine.POST("/", s.interaction)
	s.engine.POST("/interactions", s.interaction)
	s.engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
			RequestID: RequestID(c),
			ErrorCode: "not_found",
			Message:   http.StatusText(http.StatusNotFound),
		})
	})
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) interaction(c *gin.Context) {
	requestID := RequestID(c)
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.bodyLimit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, payloadTooLarge(s.bodyLimit))
			return
		}
		s.fail(c, serverError("server: read request body", goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadInput))
		return
	}

	result, err := s.handler.Handle(c.Request.Context(), core.InboundRequest{
		Headers:    flattenHeaders(c.Request.Header),
		Body:       body,
		RequestID:  requestID,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		status, payload := errorResponse(requestID, err)
		if result.State == core.StateRejected && result.StatusCode != 0 {
			status = result.StatusCode
		}
		c.AbortWithStatusJSON(status, payload)
		return
	}
	c.Data(result.StatusCode, result.ContentType, result.Body)
}

func (s *Server) fail(c *gin.Context, err error) {
	status, body := errorResponse(RequestID(c), err)
	c.AbortWithStatusJSON(status, body)
}

// flattenHeaders keeps the first value of each header under its canonical key.
func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}

// HTTPServer wraps the router with the configured timeouts.
func (s *Server) HTTPServer(cfg core.ServerConfig) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           s.engine,
		ReadTimeout:       cfg.ReadTimeoutDuration(),
		ReadHeaderTimeout: cfg.ReadTimeoutDuration(),
		WriteTimeout:      cfg.WriteTimeoutDuration(),
	}
}

// Serve runs srv on ln until ctx ends, then drains in-flight requests for at
// most shutdownTimeout.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
