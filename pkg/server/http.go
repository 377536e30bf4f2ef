package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/tripglot/pkg/service"
)

// Options configures the HTTP server.
type Options struct {
	Port               int
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	// WriteTimeout of zero leaves job event streams open until the job ends.
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// SSEPollInterval is how often job event streams check for progress.
	SSEPollInterval time.Duration
}

// HTTPServer exposes translation, simplification, batch jobs with SSE
// progress, health and metrics over HTTP.
type HTTPServer struct {
	service  *service.TranslationService
	jobQueue *service.JobQueue
	logger   *logrus.Logger
	opts     Options
}

type simplifyBody struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
	Level  string `json:"level"`
}

// NewHTTPServer creates a new HTTP server.
func NewHTTPServer(svc *service.TranslationService, jobQueue *service.JobQueue, logger *logrus.Logger, opts Options) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.SSEPollInterval <= 0 {
		opts.SSEPollInterval = time.Second
	}
	if len(opts.CORSAllowedOrigins) == 0 {
		opts.CORSAllowedOrigins = []string{"*"}
	}

	return &HTTPServer{
		service:  svc,
		jobQueue: jobQueue,
		logger:   logger,
		opts:     opts,
	}
}

// Handler builds the echo router.
func (s *HTTPServer) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := s.logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("HTTP request failed")
				return nil
			}
			entry.Debug("HTTP request")
			return nil
		},
	}))

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.POST("/translate", s.handleTranslate)
	api.POST("/simplify", s.handleSimplify)
	api.POST("/translate-simplify", s.handleTranslateAndSimplify)
	api.GET("/languages", s.handleLanguages)
	api.GET("/providers", s.handleProviders)
	api.POST("/jobs", s.handleCreateJob)
	api.GET("/jobs/:id", s.handleJobStatus)
	api.GET("/jobs/:id/events", s.handleJobEvents)

	return e
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	e := s.Handler()

	addr := fmt.Sprintf(":%d", s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("HTTP server shutdown failed")
		}
	}()

	s.logger.WithFields(logrus.Fields{
		"port": s.opts.Port,
	}).Info("Starting HTTP server")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start HTTP server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *HTTPServer) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if v, ok := he.Message.(string); ok && strings.TrimSpace(v) != "" {
			message = v
		} else if text := http.StatusText(status); text != "" {
			message = text
		}
	}

	if status >= 500 {
		s.logger.WithError(err).Error("Unhandled HTTP error")
		_ = internalError(c, message)
		return
	}
	_ = fail(c, status, message, nil)
}

// respondError maps service errors onto jsend envelopes.
func (s *HTTPServer) respondError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrInvalidRequest) {
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}
	s.logger.WithError(err).WithField("path", c.Path()).Error("Request failed")
	return internalError(c, err.Error())
}

func (s *HTTPServer) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service":   "tripglot",
		"status":    "healthy",
		"providers": s.service.Availability(),
		"time":      time.Now().UTC(),
	})
}

func (s *HTTPServer) handleTranslate(c echo.Context) error {
	var req service.TranslateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body", nil)
	}

	resp, err := s.service.Translate(c.Request().Context(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return success(c, resp)
}

func (s *HTTPServer) handleSimplify(c echo.Context) error {
	var req simplifyBody
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body", nil)
	}

	resp, err := s.service.Simplify(c.Request().Context(), req.Text, req.Level)
	if err != nil {
		return s.respondError(c, err)
	}
	return success(c, resp)
}

func (s *HTTPServer) handleTranslateAndSimplify(c echo.Context) error {
	var req simplifyBody
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body", nil)
	}

	resp, err := s.service.TranslateAndSimplify(c.Request().Context(), service.TranslateRequest{
		Text:   req.Text,
		Source: req.Source,
		Target: req.Target,
	}, req.Level)
	if err != nil {
		return s.respondError(c, err)
	}
	return success(c, resp)
}

func (s *HTTPServer) handleLanguages(c echo.Context) error {
	return success(c, map[string]any{
		"languages": s.service.Languages(),
	})
}

func (s *HTTPServer) handleProviders(c echo.Context) error {
	return success(c, map[string]any{
		"providers": s.service.Providers(c.Request().Context()),
	})
}

func (s *HTTPServer) handleCreateJob(c echo.Context) error {
	var req service.JobRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body", nil)
	}

	jobID, err := s.jobQueue.CreateJob(req)
	if err != nil {
		return s.respondError(c, err)
	}
	return successWithStatus(c, http.StatusAccepted, map[string]any{
		"job_id": jobID,
	})
}

// handleJobStatus returns the current status of a translation job.
func (s *HTTPServer) handleJobStatus(c echo.Context) error {
	job, err := s.jobQueue.GetJob(c.Param("id"))
	if err != nil {
		return failNotFound(c, err.Error())
	}
	return success(c, job.Snapshot())
}

// handleJobEvents streams job progress as Server-Sent Events until the job
// completes or fails.
func (s *HTTPServer) handleJobEvents(c echo.Context) error {
	job, err := s.jobQueue.GetJob(c.Param("id"))
	if err != nil {
		return failNotFound(c, err.Error())
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(s.opts.SSEPollInterval)
	defer ticker.Stop()

	lastStatus := service.TranslationJobStatus("")
	lastProgress := int32(-1)

	for {
		// Snapshots copy results, so only take one when something moved.
		status, _, progress := job.GetStatus()
		if status != lastStatus || progress != lastProgress {
			snap := job.Snapshot()
			if err := s.sendSSEEvent(w, "status", snap); err != nil {
				return nil
			}
			lastStatus = snap.Status
			lastProgress = snap.ProgressPercent

			if snap.Status == service.JobStatusCompleted || snap.Status == service.JobStatusFailed {
				return nil
			}
		}

		select {
		case <-c.Request().Context().Done():
			// Client disconnected
			return nil
		case <-ticker.C:
		}
	}
}

// sendSSEEvent writes one event in "event: <type>\ndata: <json>\n\n" form.
func (s *HTTPServer) sendSSEEvent(w *echo.Response, eventType string, snap service.JobSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal SSE event")
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
