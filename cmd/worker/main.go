package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/musicjacker/backend/internal/config"
	"github.com/musicjacker/backend/internal/jobs"
	"github.com/musicjacker/backend/internal/media"
	"github.com/musicjacker/backend/internal/taskrunner"
	"github.com/musicjacker/backend/internal/worker"
	"github.com/musicjacker/backend/pkg/db/redis"
	"github.com/musicjacker/backend/pkg/logger"
)

func main() {
	log.Println("Starting worker")
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	redisClient, err := redis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	appLogger.Infof("redis connected, queue %q", cfg.Worker.QueueKey)
	defer redisClient.Close()

	registry := jobs.NewRedisRegistry(redisClient, time.Duration(cfg.Storage.TTLSeconds)*time.Second)
	transcoder := media.NewFFmpegTranscoder(cfg, appLogger)
	executor := taskrunner.NewExecutor(transcoder, registry, appLogger)
	w := worker.NewWorker(cfg, redisClient, executor, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Infof("shutting down worker")
		cancel()
	}()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Worker.PoolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}
	wg.Wait()
}
