package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"country_fetcher/internal/domain"
	"country_fetcher/internal/service"
)

type Refresher interface {
	Refresh(ctx context.Context) (*domain.RefreshResult, error)
}

type Countries interface {
	List(ctx context.Context, q service.ListQuery) ([]domain.Country, error)
	Get(ctx context.Context, name string) (*domain.Country, error)
	Delete(ctx context.Context, name string) error
	Status(ctx context.Context) (*domain.RefreshStatus, error)
	SummaryImage(ctx context.Context) ([]byte, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	echo   *echo.Echo
	cfg    Config
	logger *slog.Logger
}

func NewServer(cfg Config, refresher Refresher, countries Countries, db Pinger, logger *slog.Logger) *Server {
	logger = logger.With("component", "http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(accessLog(logger))
	e.Use(middleware.Recover())

	h := &handler{
		refresher: refresher,
		countries: countries,
		db:        db,
	}

	e.POST("/countries/refresh", h.refresh)
	e.GET("/countries", h.list)
	e.GET("/countries/image", h.image)
	e.GET("/countries/:name", h.get)
	e.DELETE("/countries/:name", h.delete)
	e.GET("/status", h.status)
	e.GET("/healthz", h.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{echo: e, cfg: cfg, logger: logger}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
