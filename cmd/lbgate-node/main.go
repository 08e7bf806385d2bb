package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/songzhibin97/lbgate/internal/config"
	"github.com/songzhibin97/lbgate/internal/health"
	"github.com/songzhibin97/lbgate/internal/loadbalancer"
	"github.com/songzhibin97/lbgate/internal/log/driver/stdout"
	"github.com/songzhibin97/lbgate/internal/proxy"
	"github.com/songzhibin97/lbgate/internal/router"
	"github.com/songzhibin97/lbgate/pkg/log"
)

var (
	configFile = flag.String("config", "config.yaml", "Configuration file path")
	version    = flag.Bool("version", false, "Show version information")
)

const (
	Version   = "v0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("lbgate-node %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	logger, err := stdout.New(stdout.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to construct logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatal("failed to load configuration", log.Error(err))
	}

	ctx := context.Background()
	groups, err := router.Build(ctx, cfg, nil)
	if err != nil {
		logger.Fatal("failed to build target groups", log.Error(err))
	}

	rt := router.New(groups)
	algorithms := loadbalancer.NewRegistry(cfg.Algorithm)
	pipeline := proxy.New(cfg, rt, algorithms, logger.With(log.String("component", "pipeline")))

	scheduler := health.New(groups, logger.With(log.String("component", "health")))
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ListenerPort),
		Handler:           pipeline,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting lbgate-node", log.Int("port", cfg.ListenerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", log.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down lbgate-node")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", log.Error(err))
	} else {
		logger.Info("server gracefully stopped")
	}
	pipeline.Close()
}
