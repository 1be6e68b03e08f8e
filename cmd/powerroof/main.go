package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"

	"github.com/powerroof/powerroof/pkg/facility"
	"github.com/powerroof/powerroof/pkg/imagery"
	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/metrics"
	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/prices"
	"github.com/powerroof/powerroof/pkg/server"
	"github.com/powerroof/powerroof/pkg/storage"
)

func main() {
	// init packages
	s := storage.Configured()
	pol := policy.Configured()
	fac := facility.Configured()
	img := imagery.Configured()
	history := prices.NewHistory(s)

	srv := server.Configured(history, pol, img, fac)
	seed := lflag.Bool("seed-prices", true, "Seed an empty price history with the default estimated series")

	lflag.Configure()
	level := log.SyncLevel()
	slog.Debug("logger configured", slog.String("level", level.String()))

	metrics.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", slog.Any("error", err))
		}
	}()

	if *seed {
		if err := history.Init(ctx); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed price history", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
