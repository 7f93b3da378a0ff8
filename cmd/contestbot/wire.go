package main

import (
	"context"
	"fmt"

	"contest-bot-backend/internal/common/logger"
	"contest-bot-backend/internal/config"
	"contest-bot-backend/internal/domain/contest"
	redisp "contest-bot-backend/internal/platform/redis"
	"contest-bot-backend/internal/platform/sqlite"
	tg "contest-bot-backend/internal/platform/telegram"
	redisrepo "contest-bot-backend/internal/repository/redis"
	sqliterepo "contest-bot-backend/internal/repository/sqlite"
	"contest-bot-backend/internal/service/countsync"
)

// storage is the opened contest store with its lifecycle hooks.
type storage struct {
	repo   contest.Repository
	redis  *redisp.Client
	health func(ctx context.Context) error
	close  func() error
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		client, err := sqlite.NewClient(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info().Str("path", cfg.Storage.SQLitePath).Msg("SQLite storage opened")
		return &storage{
			repo:   sqliterepo.NewContestRepository(client.GetDB()),
			health: client.HealthCheck,
			close:  client.Close,
		}, nil
	default:
		rdb, err := redisp.Open(ctx, redisp.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		logger.Info().Str("addr", cfg.Storage.RedisAddr).Msg("Redis storage opened")
		return &storage{
			repo:   redisrepo.NewContestRepository(rdb.Client),
			redis:  rdb,
			health: rdb.HealthCheck,
			close:  rdb.Close,
		}, nil
	}
}

func newTelegramClient(cfg *config.Config) *tg.Client {
	return tg.NewClient(cfg.Telegram.BotToken, tg.WithBaseURL(cfg.Telegram.APIBaseURL))
}

func newSyncService(cfg *config.Config, store *storage) *countsync.Service {
	return countsync.NewService(store.repo, newTelegramClient(cfg))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init("contest-bot-backend", cfg.Debug, cfg.LogFile)
	return cfg, nil
}
