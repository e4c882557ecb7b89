package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/musicjacker/backend/internal/config"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/musicjacker/backend/pkg/utils"
)

const (
	maxHeaderBytes = 1 << 20
	ctxTimeout     = 5
)

type Server struct {
	echo        *echo.Echo
	cfg         *config.Config
	redisClient *redis.Client
	s3Client    *s3.Client
	logger      logger.Logger
}

// NewServer wires an HTTP server around the given backends. redisClient
// and s3Client may be nil; the handler wiring falls back to in-memory and
// local-disk equivalents.
func NewServer(cfg *config.Config, redisClient *redis.Client, s3Client *s3.Client, logger logger.Logger) *Server {
	return &Server{
		echo:        echo.New(),
		cfg:         cfg,
		redisClient: redisClient,
		s3Client:    s3Client,
		logger:      logger,
	}
}

func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.MapHandlers(ctx, s.echo); err != nil {
		return err
	}
	s.echo.Server.MaxHeaderBytes = maxHeaderBytes
	s.echo.HTTPErrorHandler = newHTTPErrorHandler(s.logger)
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "X-Download-Token"},
		MaxAge:       300,
	}))
	server := &http.Server{
		Addr:         s.cfg.Server.Port,
		ReadTimeout:  time.Second * time.Duration(s.cfg.Server.ReadTimeout),
		IdleTimeout:  time.Second * time.Duration(s.cfg.Server.IdleTimeout),
		WriteTimeout: time.Second * time.Duration(s.cfg.Server.WriteTimeout),
	}
	go func() {
		s.logger.Infof("server is listening on %s", s.cfg.Server.Port)
		if err := s.echo.StartServer(server); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("error starting server: ", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
	<-quit

	cancel()
	shutdownCtx, shutdown := context.WithTimeout(context.Background(), time.Second*ctxTimeout)
	defer shutdown()
	s.logger.Infof("shutting down server")
	return s.echo.Server.Shutdown(shutdownCtx)
}

// newHTTPErrorHandler keeps the error body shape uniform for failures that
// escape the handlers, recovered panics included.
func newHTTPErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		message := "Server error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}
		log.Errorf("request failed: %v", err)
		if writeErr := utils.JSONError(c, code, message); writeErr != nil {
			log.Errorf("could not write error response: %v", writeErr)
		}
	}
}
