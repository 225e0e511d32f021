// Package server hosts the HTTP API over the procurement pipeline.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/procura-labs/procura/internal/profile"
	apiv1 "github.com/procura-labs/procura/server/router/api/v1"
	"github.com/procura-labs/procura/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.Info("http request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 5 * time.Minute,
		Skipper: func(c echo.Context) bool {
			// Pipeline runs can legitimately take minutes; the per-stage
			// providers carry their own timeouts.
			return c.Path() == "/api/v1/procurements"
		},
	}))

	e.GET("/healthz", s.healthzHandler)

	apiService, err := apiv1.NewAPIV1Service(ctx, profile, store)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create api v1 service")
	}
	s.apiService = apiService
	apiService.Register(e)

	return s, nil
}

// Start binds the listener and serves in the background. Bind failures are
// returned synchronously; serve errors are logged.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to serve", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("procura stopped properly")
}

func (s *Server) healthzHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	})
}
