package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/musicjacker/backend/internal/config"
	"github.com/musicjacker/backend/internal/server"
	"github.com/musicjacker/backend/pkg/db/aws"
	"github.com/musicjacker/backend/pkg/db/redis"
	"github.com/musicjacker/backend/pkg/logger"
)

func main() {
	log.Println("Starting server")
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
		appLogger.Warnf("could not connect to redis, using in-memory backends: %s", err)
		redisClient = nil
	} else {
		appLogger.Infof("redis connected")
		defer redisClient.Close()
	}

	s3Client, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Warnf("could not connect to s3, artifact mirroring disabled: %s", err)
		s3Client = nil
	}

	s := server.NewServer(cfg, redisClient, s3Client, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Fatalf("could not start server: %s", err)
	}
}
