package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitrine/dmconsole/internal/api"
	"github.com/vitrine/dmconsole/internal/autoctl"
	"github.com/vitrine/dmconsole/internal/cache"
	"github.com/vitrine/dmconsole/internal/config"
	"github.com/vitrine/dmconsole/internal/dbapi"
	"github.com/vitrine/dmconsole/internal/importer"
	"github.com/vitrine/dmconsole/internal/pkg/logger"
	"github.com/vitrine/dmconsole/internal/telemetry"
)

// checkPortAvailable verifies that the target port is not already in use,
// so a stale process does not silently shadow this one.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		logger.Error("pre-flight check failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unreachable, caches and progress polling degraded",
			"addr", cfg.Redis.Addr, "error", err)
	}

	lists := cache.New(rdb)
	store := dbapi.NewClient(cfg.DatabaseAPI, lists)
	auto := autoctl.NewClient(cfg.Automation)
	imports := importer.NewService(store, cfg.Import)

	state := telemetry.NewState()
	consumer := telemetry.NewConsumer(cfg.Automation.StreamURL, cfg.Telemetry, state)

	server := api.NewServer(store, auto, imports, state, rdb)
	consumer.SetRelay(server.Hub().Publish)

	ctx, cancel := context.WithCancel(context.Background())
	go consumer.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("console listening", "addr", addr,
			"database_api", cfg.DatabaseAPI.BaseURL, "stream", cfg.Automation.StreamURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", "error", err)
	}

	if err := rdb.Close(); err != nil {
		logger.Warn("redis close", "error", err)
	}
	logger.Info("console stopped")
}
