package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/engine"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/gateway/ebay"
	"github.com/flipflow/flipflow/internal/gateway/mock"
	"github.com/flipflow/flipflow/internal/pkg/logger"
	"github.com/flipflow/flipflow/internal/repository/postgres"
	"github.com/flipflow/flipflow/internal/store"
	"github.com/flipflow/flipflow/internal/store/memory"
	"github.com/flipflow/flipflow/internal/worker"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config file")
	flag.Parse()

	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, continuing without it", "error", err)
			redisClient = nil
		}
	}

	var st store.Store
	var pg *postgres.Store
	if cfg.Database.URL != "" {
		pg, err = postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("open database", "error", err)
			os.Exit(1)
		}
		st = pg
		logger.Info("connected to postgres")
	} else {
		st = memory.New()
		logger.Warn("no DATABASE_URL set, using in-memory store")
	}
	defer st.Close()

	var gw gateway.Gateway
	if cfg.Ebay.Mode == "mock" {
		gw = mock.New()
		logger.Info("gateway in mock mode")
	} else {
		client, err := ebay.New(cfg.Ebay, redisClient)
		if err != nil {
			logger.Error("build ebay client", "error", err)
			os.Exit(1)
		}
		gw = client
		logger.Info("gateway ready", "mode", cfg.Ebay.Mode)
	}

	coord, err := engine.New(st, gw, cfg)
	if err != nil {
		logger.Error("build coordinator", "error", err)
		os.Exit(1)
	}

	sched := worker.NewScheduler(coord, cfg)
	if redisClient != nil {
		sched.SetRedisClient(redisClient)
	}
	if pg != nil {
		sched.SetDB(pg.DB())
	}
	if err := sched.Start(); err != nil {
		logger.Error("start scheduler", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	sched.Stop()
	logger.Info("worker stopped")
}
