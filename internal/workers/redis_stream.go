package workers

import (
	"context"
	"errors"
	"time"

	go_redis "github.com/redis/go-redis/v9"

	"contest-bot-backend/internal/common/logger"
	redisp "contest-bot-backend/internal/platform/redis"
	"contest-bot-backend/internal/service/countsync"
)

const (
	StreamKey     = "contest:events"
	consumerGroup = "contest_backend_consumers"
	consumerName  = "contest_sync_worker_1"

	EventParticipantJoined = "participant_joined"
)

// Syncer refreshes one contest's channel button.
type Syncer interface {
	Sync(ctx context.Context, contestID string) (*countsync.Result, error)
}

// RedisStreamWorker consumes participant events written by the inserting
// collaborator and resynchronizes the affected contest.
type RedisStreamWorker struct {
	rdb    *go_redis.Client
	syncer Syncer
	block  time.Duration
}

func NewRedisStreamWorker(rdb *go_redis.Client, syncer Syncer) *RedisStreamWorker {
	return &RedisStreamWorker{
		rdb:    rdb,
		syncer: syncer,
		block:  5 * time.Second,
	}
}

// PublishParticipantJoined appends a participant_joined event to the stream.
func PublishParticipantJoined(ctx context.Context, rdb *go_redis.Client, contestID string) error {
	return rdb.XAdd(ctx, &go_redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]interface{}{
			"type":       EventParticipantJoined,
			"contest_id": contestID,
		},
	}).Err()
}

// Start blocks reading the stream until ctx is cancelled.
func (w *RedisStreamWorker) Start(ctx context.Context) {
	if err := redisp.EnsureGroup(ctx, w.rdb, StreamKey, consumerGroup); err != nil {
		logger.Error().Err(err).Msg("Error creating consumer group")
	}

	logger.Info().Str("stream", StreamKey).Msg("Starting Redis stream worker")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Stopping Redis stream worker")
			return
		default:
		}

		entries, err := w.rdb.XReadGroup(ctx, &go_redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: consumerName,
			Streams:  []string{StreamKey, ">"},
			Count:    10,
			Block:    w.block,
		}).Result()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, go_redis.Nil) {
				continue
			}
			logger.Error().Err(err).Msg("Error reading from stream")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range entries {
			for _, msg := range stream.Messages {
				w.processMessage(ctx, msg.Values)
				if err := w.rdb.XAck(ctx, StreamKey, consumerGroup, msg.ID).Err(); err != nil {
					logger.Warn().Err(err).Str("id", msg.ID).Msg("Failed to ack stream message")
				}
			}
		}
	}
}

func (w *RedisStreamWorker) processMessage(ctx context.Context, values map[string]interface{}) {
	eventType, _ := values["type"].(string)
	if eventType != EventParticipantJoined {
		return
	}

	contestID, _ := values["contest_id"].(string)
	if contestID == "" {
		logger.Warn().Interface("values", values).Msg("Invalid contest_id in participant_joined event")
		return
	}

	result, err := w.syncer.Sync(ctx, contestID)
	switch {
	case err != nil:
		logger.Error().Err(err).Str("contest_id", contestID).Msg("Error synchronizing contest after participant event")
	case !result.Success:
		logger.Debug().Str("contest_id", contestID).Msg(result.Message)
	default:
		logger.Debug().Str("contest_id", contestID).Int64("count", result.ParticipantCount).Msg("Contest synchronized after participant event")
	}
}
