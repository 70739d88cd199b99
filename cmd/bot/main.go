package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	environment "membify/internal/env"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env, err := environment.Setup(ctx)
	if err != nil {
		log.Fatalf("Failed to setup environment: %v", err)
	}

	logger := env.Logger
	logger.Info("Starting membify")

	go func() {
		logger.Info("Starting observability server", slog.String("addr", env.Servers.HTTP.Observability.Addr))
		if err := env.Servers.HTTP.Observability.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Observability server error", slog.Any("error", err))
		}
	}()

	go func() {
		if err := env.Servers.Webhook.Start(); err != nil {
			logger.Error("Webhook server error", slog.Any("error", err))
		}
	}()

	if err := startTelegramBot(ctx, env); err != nil {
		logger.Error("Failed to start telegram bot", slog.Any("error", err))
		return
	}

	if err := env.Services.WorkerManager.Start(); err != nil {
		logger.Error("Failed to start workers", slog.Any("error", err))
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Membify started. Press Ctrl+C to stop.")
	<-quit

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), env.Config.ShutdownDuration)
	defer shutdownCancel()

	env.Services.WorkerManager.Stop()
	env.Clients.TelegramBot.Stop()

	if err := env.Servers.Webhook.Stop(shutdownCtx); err != nil {
		logger.Error("Webhook server shutdown error", slog.Any("error", err))
	}
	if err := env.Servers.HTTP.Observability.Shutdown(shutdownCtx); err != nil {
		logger.Error("Observability server shutdown error", slog.Any("error", err))
	}

	for _, closer := range env.Closers {
		closer()
	}

	logger.Info("Stopped")
}

func startTelegramBot(ctx context.Context, env *environment.Env) error {
	logger := env.Logger

	if err := env.Clients.TelegramBot.Start(ctx); err != nil {
		return err
	}

	updates := env.Clients.TelegramBot.GetUpdates()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if err := env.Services.TelegramRouter.Route(&update); err != nil {
					logger.Error("Update handling failed", slog.Any("error", err))
				}
			}
		}
	}()

	logger.Info("Started listening for updates")
	return nil
}
