// Package main starts the HTTP server and Discord bot of the GFX order service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/monkeystudio/gfx-order-system/internal/config"
	"github.com/monkeystudio/gfx-order-system/internal/discord"
	"github.com/monkeystudio/gfx-order-system/internal/handler"
	"github.com/monkeystudio/gfx-order-system/internal/middleware"
	"github.com/monkeystudio/gfx-order-system/internal/repository"
	"github.com/monkeystudio/gfx-order-system/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	svc := service.NewService(repo)
	defer svc.Close()

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.SeedAdmin(seedCtx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		cancelSeed()
		sugar.Fatalw("seed bootstrap admin", "error", err.Error())
	}
	cancelSeed()

	sessions := middleware.NewSessionManager(cfg.SessionSecret, svc)
	h := handler.NewHandler(svc, logger, sessions)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Discord intake bot, enabled only when a token is configured
	if cfg.DiscordBotToken != "" {
		bot, err := discord.NewBot(cfg.DiscordBotToken, svc, logger)
		if err != nil {
			sugar.Fatalw("discord bot initialization error", "error", err.Error())
		}
		g.Go(func() error {
			return bot.Run(ctx)
		})
	} else {
		sugar.Info("no discord bot token configured, bot disabled")
	}

	// HTTP server
	g.Go(func() error {
		sugar.Infow("starting gfx order server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown on context cancellation (signal or error in another goroutine)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
