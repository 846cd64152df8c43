// Package api is the sync service for tit repositories: a gin HTTP server keeping repositories in
// badger, the matching client, and the sync driver that moves commits and branch pointers between
// a working copy and a server.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

const requestIDHeader = "X-Request-ID"

// ServerConfig configures a sync server.
type ServerConfig struct {
	// Listen is the TCP address to serve on, ":6969" by default.
	Listen string

	// Logger is used for access and error logs. Nil means slog.Default().
	Logger *slog.Logger

	// ShutdownTimeout bounds how long Run waits for in-flight requests.
	ShutdownTimeout time.Duration

	// MaxBodyBytes bounds request bodies, 128 MiB by default. Uploads carry base64 commits.
	MaxBodyBytes int64
}

// Server serves repositories from a Storage.
type Server struct {
	storage *Storage
	cfg     ServerConfig
	logger  *slog.Logger
	engine  *gin.Engine
}

// NewServer wires the routes of a server over storage.
func NewServer(storage *Storage, cfg ServerConfig) *Server {
	if cfg.Listen == "" {
		cfg.Listen = ":6969"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 128 << 20
	}
	s := &Server{storage: storage, cfg: cfg, logger: cfg.Logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.observe(), s.limitBody())
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/repos", s.handleList)
	v1.POST("/repos/:repo", s.handleCreate)
	v1.PUT("/repos/:repo", s.handleEnsure)
	v1.GET("/repos/:repo/index", s.handleIndex)
	v1.GET("/repos/:repo/commits/:id", s.handleGetCommit)
	v1.POST("/repos/:repo/commits", s.handleUpload)
	v1.POST("/repos/:repo/offer", s.handleOffer)
	s.engine = r
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("sync server listening", slog.String("addr", s.cfg.Listen))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	s.logger.Info("sync server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}

// requestID makes sure every request and response carries an X-Request-ID.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// limitBody caps how much of a request body handlers can read.
func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
		}
		c.Next()
	}
}

// badBody classifies a request body that failed to bind.
func badBody(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errors.Wrapf(ErrTooLarge, "body over %d bytes", tooLarge.Limit)
	}
	return errors.Wrap(ErrInvalidCommit, err.Error())
}

// observe logs each request and records its metrics.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		requestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		s.logger.Info("request",
			slog.String("request_id", c.GetString(requestIDHeader)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", elapsed))
	}
}

// fail answers with the status matching err.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrRepositoryNotFound), errors.Is(err, ErrCommitNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrRepositoryExists):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidCommit):
		status = http.StatusBadRequest
	case errors.Is(err, ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("request_id", c.GetString(requestIDHeader)),
			slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: Version})
}

func (s *Server) handleList(c *gin.Context) {
	repos, err := s.storage.List()
	if err != nil {
		s.fail(c, err)
		return
	}
	if repos == nil {
		repos = []RepoInfo{}
	}
	c.JSON(http.StatusOK, ListResponse{Repos: repos})
}

func (s *Server) handleCreate(c *gin.Context) {
	if err := s.storage.Create(c.Param("repo")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) handleEnsure(c *gin.Context) {
	created, err := s.storage.Ensure(c.Param("repo"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if created {
		c.Status(http.StatusCreated)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleIndex(c *gin.Context) {
	idx, err := s.storage.Index(c.Param("repo"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, idx)
}

func (s *Server) handleGetCommit(c *gin.Context) {
	id := c.Param("id")
	data, err := s.storage.GetCommit(c.Param("repo"), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	commitsServed.Inc()
	c.JSON(http.StatusOK, CommitBlob{ID: id, Data: data})
}

func (s *Server) handleUpload(c *gin.Context) {
	var req CommitBlob
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badBody(err))
		return
	}
	id, err := s.storage.PutCommit(c.Param("repo"), req.Data)
	if err != nil {
		s.fail(c, err)
		return
	}
	if req.ID != "" && req.ID != id {
		s.logger.Warn("uploaded commit id differs from its content",
			slog.String("claimed", req.ID), slog.String("stored", id))
	}
	commitsStored.Inc()
	c.JSON(http.StatusCreated, CommitBlob{ID: id})
}

func (s *Server) handleOffer(c *gin.Context) {
	var offer Offer
	if err := c.ShouldBindJSON(&offer); err != nil {
		s.fail(c, badBody(err))
		return
	}
	missing, err := s.storage.Offer(c.Param("repo"), offer)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, OfferResponse{Missing: missing})
}
