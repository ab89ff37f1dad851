package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/DjordjeVuckovic/news-highlight/internal/apperr"
	mw "github.com/DjordjeVuckovic/news-highlight/pkg/middleware"
	pkgserver "github.com/DjordjeVuckovic/news-highlight/pkg/server"
)

const (
	GracefulShutdownTimeout = 10 * time.Second
)

type Server struct {
	Echo *echo.Echo

	cfg    *Config
	health pkgserver.HealthChecker
	ctx    context.Context
	stop   context.CancelFunc
	// quiet holds route paths left out of the request log.
	quiet map[string]bool
}

// New creates a server whose context is cancelled on SIGINT or SIGTERM.
func New(cfg *Config, health pkgserver.HealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.DisableHTTP2 = !cfg.UseHttp2

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &Server{
		Echo:   e,
		cfg:    cfg,
		health: health,
		ctx:    ctx,
		stop:   stop,
		quiet:  map[string]bool{},
	}
}

func (s *Server) SetupMiddlewares() *Server {
	s.Echo.Use(mw.Logger(mw.WithSkipper(func(c echo.Context) bool {
		return s.quiet[c.Path()]
	})))
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestID())
	s.Echo.Use(middleware.BodyLimit(s.cfg.BodyLimit))
	s.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.CorsOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	return s
}

func (s *Server) SetupErrorHandler() *Server {
	s.Echo.HTTPErrorHandler = apperr.GlobalErrorHandler()
	return s
}

func (s *Server) SetupHealthChecks(path string) *Server {
	s.quiet[path] = true
	s.Echo.GET(path, func(c echo.Context) error {
		if !s.health.Healthy(c.Request().Context()) {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return s
}

func (s *Server) SetupOpenApi(path string) *Server {
	s.quiet[path] = true
	s.Echo.GET(path, echoSwagger.WrapHandler)
	return s
}

// Context is cancelled when a shutdown signal arrives.
func (s *Server) Context() context.Context {
	return s.ctx
}

func (s *Server) ShutdownSignal() <-chan struct{} {
	return s.ctx.Done()
}

func (s *Server) RequestTimeout() time.Duration {
	return s.cfg.RequestTimeout
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start() error {
	defer s.stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.Echo.Start(":" + s.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-s.ctx.Done():
	}

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()

	return s.Echo.Shutdown(ctx)
}
