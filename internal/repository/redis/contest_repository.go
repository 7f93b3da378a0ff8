package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"contest-bot-backend/internal/domain/contest"
)

const (
	keyPrefixContest      = "contest:"
	keyPrefixParticipants = "contest:participants:"
	keyPublishedContests  = "contests:published"
	maxPublishRetries     = 3
)

// ContestRepository stores contests as JSON strings and participant rows as
// list entries, so LLEN yields the exact row count.
type ContestRepository struct {
	client *redis.Client
}

func NewContestRepository(client *redis.Client) *ContestRepository {
	return &ContestRepository{client: client}
}

var _ contest.Repository = (*ContestRepository)(nil)

func makeContestKey(id string) string {
	return keyPrefixContest + id
}

func makeParticipantsKey(id string) string {
	return keyPrefixParticipants + id
}

func (r *ContestRepository) GetContest(ctx context.Context, id string) (*contest.Contest, error) {
	return getContest(ctx, r.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getContest(ctx context.Context, g getter, id string) (*contest.Contest, error) {
	data, err := g.Get(ctx, makeContestKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, contest.ErrContestNotFound
	}
	if err != nil {
		return nil, err
	}

	var c contest.Contest
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode contest %s: %w", id, err)
	}
	return &c, nil
}

func (r *ContestRepository) CountParticipants(ctx context.Context, contestID string) (int64, error) {
	return r.client.LLen(ctx, makeParticipantsKey(contestID)).Result()
}

// MarkPublished sets coordinates under WATCH so a concurrent publish of the
// same contest cannot overwrite them.
func (r *ContestRepository) MarkPublished(ctx context.Context, contestID string, coords contest.MessageCoordinates) error {
	key := makeContestKey(contestID)

	txf := func(tx *redis.Tx) error {
		c, err := getContest(ctx, tx, contestID)
		if err != nil {
			return err
		}
		if c.TelegramChatID != nil || c.TelegramMessageID != nil {
			return contest.ErrAlreadyPublished
		}

		now := time.Now().UTC()
		c.TelegramChatID = &coords.ChatID
		c.TelegramMessageID = &coords.MessageID
		c.PublishedAt = &now
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode contest %s: %w", contestID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, keyPublishedContests, contestID)
			return nil
		})
		return err
	}

	for i := 0; i < maxPublishRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("mark contest %s published: too much contention", contestID)
}

func (r *ContestRepository) ListPublished(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, keyPublishedContests).Result()
}

func (r *ContestRepository) SaveContest(ctx context.Context, c *contest.Contest) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode contest %s: %w", c.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, makeContestKey(c.ID), data, 0)
	if c.IsPublished() {
		pipe.SAdd(ctx, keyPublishedContests, c.ID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *ContestRepository) AddParticipant(ctx context.Context, p contest.Participant) error {
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode participant: %w", err)
	}
	return r.client.RPush(ctx, makeParticipantsKey(p.ContestID), data).Err()
}
