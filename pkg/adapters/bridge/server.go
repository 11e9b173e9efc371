package bridge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/aretw0/sparklet/pkg/core"
)

// Server serves a backend over HTTP.
type Server struct {
	backend  core.Backend
	validate *validator.Validate
	logger   *slog.Logger
	echo     *echo.Echo
}

// NewServer builds the HTTP routes for backend. logger may be nil.
func NewServer(backend core.Backend, logger *slog.Logger) *Server {
	s := &Server{
		backend:  backend,
		validate: validator.New(),
		logger:   logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("16M"))
	e.Use(s.logRequests)

	e.POST(routeGet, s.get)
	e.POST(routeSet, s.set)
	e.GET(routeHealth, s.health)

	s.echo = e
	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	if s.logger != nil {
		s.logger.Info("bridge listening", "addr", addr)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if s.logger != nil {
			s.logger.Debug("bridge request",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"duration", time.Since(start))
		}
		return err
	}
}

func (s *Server) get(c echo.Context) error {
	var req GetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, malformedBody)
	}
	if err := s.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validationProblems(err))
	}

	value, found, err := s.backend.Read(c.Request().Context(), req.Key)
	if err != nil {
		return s.backendFailure(c, "read", req.Key, err)
	}
	return c.JSON(http.StatusOK, GetResponse{Found: found, Value: value})
}

func (s *Server) set(c echo.Context) error {
	var req SetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, malformedBody)
	}
	if err := s.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validationProblems(err))
	}

	if err := s.backend.Write(c.Request().Context(), req.Key, req.Value); err != nil {
		return s.backendFailure(c, "write", req.Key, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) backendFailure(c echo.Context, op, key string, err error) error {
	if s.logger != nil {
		s.logger.Error("bridge backend failure", "op", op, "key", key, "error", err)
	}
	return c.JSON(http.StatusBadGateway, ErrorResponse{Message: err.Error()})
}
