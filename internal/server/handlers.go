package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	convertHttp "github.com/musicjacker/backend/internal/convert/delivery/http"
	convertUsecase "github.com/musicjacker/backend/internal/convert/usecase"
	downloadsHttp "github.com/musicjacker/backend/internal/downloads/delivery/http"
	downloadsUsecase "github.com/musicjacker/backend/internal/downloads/usecase"
	"github.com/musicjacker/backend/internal/files"
	filesHttp "github.com/musicjacker/backend/internal/files/delivery/http"
	"github.com/musicjacker/backend/internal/jobs"
	"github.com/musicjacker/backend/internal/media"
	"github.com/musicjacker/backend/internal/middleware"
	"github.com/musicjacker/backend/internal/storage"
	"github.com/musicjacker/backend/internal/taskrunner"
	"github.com/musicjacker/backend/internal/tokens"
	"github.com/musicjacker/backend/pkg/utils"
)

func (s *Server) MapHandlers(ctx context.Context, e *echo.Echo) error {
	artifactTTL := time.Duration(s.cfg.Storage.TTLSeconds) * time.Second

	store, err := storage.NewLocalDriver(s.cfg.Storage.BaseDir, artifactTTL, s.logger)
	if err != nil {
		return err
	}
	var archive storage.Driver
	if s.cfg.Storage.Driver == "s3" && s.s3Client != nil {
		archive = storage.NewS3Driver(s.s3Client, s.cfg.S3.Bucket, artifactTTL, s.logger)
	}

	var (
		registry       jobs.Registry
		tokenAuthority tokens.Authority
		runner         taskrunner.Runner
	)
	transcoder := media.NewFFmpegTranscoder(s.cfg, s.logger)
	extractor := media.NewYtDlpExtractor(s.cfg, s.logger)

	if s.redisClient != nil {
		registry = jobs.NewRedisRegistry(s.redisClient, artifactTTL)
		tokenAuthority = tokens.NewRedisAuthority(s.redisClient, s.logger)
		runner = taskrunner.NewQueueRunner(s.redisClient, s.cfg.Worker.QueueKey)
		s.logger.Infof("using redis backends, queue %q", s.cfg.Worker.QueueKey)
	} else {
		registry = jobs.NewMemoryRegistry()
		tokenAuthority = tokens.NewMemoryAuthority()
		executor := taskrunner.NewExecutor(transcoder, registry, s.logger)
		runner = taskrunner.NewLocalRunner(ctx, executor, s.cfg.Worker.PoolSize, s.logger)
		s.logger.Infof("no redis configured, running conversions on a local pool of %d", s.cfg.Worker.PoolSize)
	}

	downloadUC := downloadsUsecase.NewDownloadUseCase(s.cfg, extractor, transcoder, store, archive, tokenAuthority, s.logger)
	convertUC := convertUsecase.NewConvertUseCase(s.cfg, transcoder, store, registry, runner, tokenAuthority, s.logger)

	downloadHandlers := downloadsHttp.NewDownloadHandler(downloadUC, s.logger)
	convertHandlers := convertHttp.NewConvertHandler(convertUC, s.logger)
	fileHandlers := filesHttp.NewFilesHandler(store, tokenAuthority, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg, []string{"*"}, s.logger)
	e.Use(mw.RequestLoggerMiddleware)

	api := e.Group("/api")
	convertGroup := api.Group("/convert")
	serveGroup := e.Group("/serve")
	v1 := e.Group("/api/v1")
	health := v1.Group("/health")

	downloadsHttp.MapDownloadRoutes(api, downloadHandlers)
	convertHttp.MapConvertRoutes(convertGroup, convertHandlers)
	filesHttp.MapFilesRoutes(serveGroup, fileHandlers)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})

	sweepInterval := artifactTTL / 4
	if sweepInterval < time.Minute {
		sweepInterval = time.Minute
	}
	sweepDrivers := []storage.Driver{store}
	if archive != nil {
		sweepDrivers = append(sweepDrivers, archive)
	}
	go files.NewSweeper(sweepInterval, s.logger, sweepDrivers...).Run(ctx)

	return nil
}
