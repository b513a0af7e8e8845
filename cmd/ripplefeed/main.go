package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mvasques/ripple/internal/feed"
	"go.uber.org/zap"
)

// settings come from RIPPLEFEED_* environment variables.
type settings struct {
	ListenAddr    string        `envconfig:"LISTEN_ADDR" default:":8787"`
	MinInterval   time.Duration `envconfig:"MIN_INTERVAL" default:"1s"`
	MaxInterval   time.Duration `envconfig:"MAX_INTERVAL" default:"3s"`
	Conversations int64         `envconfig:"CONVERSATIONS" default:"12"`
}

func main() {
	var cfg settings
	if err := envconfig.Process("ripplefeed", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	broadcaster, err := feed.New(feed.Options{
		MinInterval:   cfg.MinInterval,
		MaxInterval:   cfg.MaxInterval,
		Conversations: cfg.Conversations,
	}, logger)
	if err != nil {
		logger.Fatal("failed to build broadcaster", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go broadcaster.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/feed", feed.NewServer(broadcaster, logger))
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		logger.Info("feed server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("feed server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	broadcaster.ForceDetachAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}
