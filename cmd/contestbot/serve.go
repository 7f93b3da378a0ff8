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

	"github.com/spf13/cobra"

	"contest-bot-backend/internal/common/logger"
	apihttp "contest-bot-backend/internal/http"
	"contest-bot-backend/internal/service/admin"
	"contest-bot-backend/internal/service/identity"
	"contest-bot-backend/internal/service/membership"
	"contest-bot-backend/internal/service/publisher"
	"contest-bot-backend/internal/service/webhook"
	"contest-bot-backend/internal/workers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and background workers",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (overrides PORT env var)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Bool("debug", cfg.Debug).
		Str("storage", cfg.Storage.Driver).
		Int("admins", len(cfg.Admins)).
		Msg("Starting contest bot backend")

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}()

	bot := newTelegramClient(cfg)
	syncSvc := newSyncService(cfg, store)
	resolver := identity.NewSupabaseResolver(cfg.Identity.URL, cfg.Identity.APIKey, nil)

	router := apihttp.NewRouter(apihttp.Deps{
		Config:     cfg,
		Authorizer: admin.NewAuthorizer(resolver, cfg.Admins),
		Publisher:  publisher.NewService(bot, store.repo, cfg.Telegram.ChannelID),
		Webhook:    webhook.NewRouter(bot, cfg.WebAppHost(), cfg.Telegram.WebhookSecret),
		Verifier: membership.NewVerifier(bot, membership.Options{
			BotToken:        cfg.Telegram.BotToken,
			RequireInitData: cfg.Membership.RequireInitData,
			InitDataTTL:     cfg.Membership.InitDataTTL,
		}),
		Sync:        syncSvc,
		HealthCheck: store.health,
	})

	if cfg.Workers.SyncInterval > 0 {
		scheduler, err := workers.NewSyncScheduler(syncSvc, cfg.Workers.SyncInterval)
		if err != nil {
			return err
		}
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn().Err(err).Msg("Failed to stop sync scheduler")
			}
		}()
	}

	if cfg.Workers.ParticipantStreamEnabled && store.redis != nil {
		worker := workers.NewRedisStreamWorker(store.redis.Client, syncSvc)
		go worker.Start(ctx)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.Info().Msg("Server exited")
	return nil
}
