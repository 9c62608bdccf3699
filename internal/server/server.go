// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the publication cache as a read-only JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/IRL-CT/IRL-CT.github.io/internal/cache"
	"github.com/IRL-CT/IRL-CT.github.io/internal/logging"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// Options configure a Server.
type Options struct {
	TTL     time.Duration
	Version string
	Logger  *zap.Logger
	Now     func() time.Time
}

// Server serves cached publications. It never writes to the store.
type Server struct {
	store     cache.Store
	ttl       time.Duration
	version   string
	logger    *zap.Logger
	now       func() time.Time
	startTime time.Time
	echo      *echo.Echo
}

// New builds a Server over store with its routes registered.
func New(store cache.Store, opts Options) *Server {
	if opts.TTL <= 0 {
		opts.TTL = types.DefaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		store:     store,
		ttl:       opts.TTL,
		version:   opts.Version,
		logger:    logging.OrNop(opts.Logger).With(zap.String("component", "server")),
		now:       opts.Now,
		startTime: opts.Now(),
		echo:      e,
	}

	e.Use(s.requestLogger)
	e.GET("/health", s.Health)
	e.GET("/api/cache", s.CacheInfo)
	e.GET("/api/publications", s.List)
	e.GET("/api/publications/*", s.Get)
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// PublicationResponse is a cached publication with its freshness.
type PublicationResponse struct {
	types.Publication
	Fresh bool `json:"fresh"`
}

// ListResponse is the body of GET /api/publications.
type ListResponse struct {
	Items       []PublicationResponse `json:"items"`
	TotalCount  int                   `json:"total_count"`
	LastUpdated time.Time             `json:"last_updated"`
}

// CacheResponse is the body of GET /api/cache.
type CacheResponse struct {
	LastUpdated time.Time `json:"last_updated"`
	Age         string    `json:"age"`
	TTL         string    `json:"ttl"`
	Count       int       `json:"count"`
	Stale       int       `json:"stale"`
}

// List returns every cached publication, newest first. An optional
// ?year= filter restricts the result.
func (s *Server) List(c echo.Context) error {
	ctx := c.Request().Context()

	year := 0
	if v := c.QueryParam("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "year must be an integer")
		}
		year = y
	}

	doc := s.store.Read(ctx)
	now := s.now()
	items := make([]PublicationResponse, 0, len(doc.Publications))
	for _, p := range cache.Entries(doc) {
		if year != 0 && p.Year() != year {
			continue
		}
		items = append(items, PublicationResponse{Publication: p, Fresh: cache.Fresh(p, now, s.ttl)})
	}

	return c.JSON(http.StatusOK, ListResponse{
		Items:       items,
		TotalCount:  len(items),
		LastUpdated: doc.LastUpdated,
	})
}

// Get returns one publication. The DOI is the rest of the path and is
// matched case-insensitively.
func (s *Server) Get(c echo.Context) error {
	raw := c.Param("*")
	id, err := url.PathUnescape(raw)
	if err != nil || id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid DOI")
	}

	p, ok := s.store.Get(c.Request().Context(), id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "publication not cached")
	}
	return c.JSON(http.StatusOK, PublicationResponse{Publication: p, Fresh: cache.Fresh(p, s.now(), s.ttl)})
}

// CacheInfo reports the cache document's age and size.
func (s *Server) CacheInfo(c echo.Context) error {
	doc := s.store.Read(c.Request().Context())
	now := s.now()

	stale := 0
	for _, p := range doc.Publications {
		if !cache.Fresh(p, now, s.ttl) {
			stale++
		}
	}
	return c.JSON(http.StatusOK, CacheResponse{
		LastUpdated: doc.LastUpdated,
		Age:         cache.Age(doc, now).Round(time.Second).String(),
		TTL:         s.ttl.String(),
		Count:       len(doc.Publications),
		Stale:       stale,
	})
}

// Health returns liveness and build information.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
		"uptime":  s.now().Sub(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		res := c.Response()
		start := time.Now()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		id := req.Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		s.logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.String("route", c.Path()),
			zap.Int("status", res.Status),
			zap.Duration("response_time", time.Since(start)),
			zap.Int64("response_size", res.Size),
		)
		return nil
	}
}
