package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contest-bot-backend/internal/domain/contest"
)

type ContestRepository struct {
	db *sql.DB
}

func NewContestRepository(db *sql.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

var _ contest.Repository = (*ContestRepository)(nil)

const selectContest = `
SELECT id, title, description, prize, image_url, button_text, button_url, target_channel_id,
       telegram_chat_id, telegram_message_id, published_at, created_at
FROM contests WHERE id = ?`

func (r *ContestRepository) GetContest(ctx context.Context, id string) (*contest.Contest, error) {
	var (
		c           contest.Contest
		chatID      sql.NullInt64
		messageID   sql.NullInt64
		publishedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, selectContest, id).Scan(
		&c.ID, &c.Title, &c.Description, &c.Prize, &c.ImageURL, &c.ButtonText, &c.ButtonURL, &c.TargetChannelID,
		&chatID, &messageID, &publishedAt, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contest.ErrContestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select contest %s: %w", id, err)
	}

	if chatID.Valid {
		c.TelegramChatID = &chatID.Int64
	}
	if messageID.Valid {
		c.TelegramMessageID = &messageID.Int64
	}
	if publishedAt.Valid {
		c.PublishedAt = &publishedAt.Time
	}
	return &c, nil
}

func (r *ContestRepository) CountParticipants(ctx context.Context, contestID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contest_participants WHERE contest_id = ?`, contestID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count participants of %s: %w", contestID, err)
	}
	return n, nil
}

// MarkPublished relies on the IS NULL guard for set-once semantics.
func (r *ContestRepository) MarkPublished(ctx context.Context, contestID string, coords contest.MessageCoordinates) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE contests
SET telegram_chat_id = ?, telegram_message_id = ?, published_at = ?
WHERE id = ? AND telegram_chat_id IS NULL AND telegram_message_id IS NULL`,
		coords.ChatID, coords.MessageID, time.Now().UTC(), contestID)
	if err != nil {
		return fmt.Errorf("mark contest %s published: %w", contestID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark contest %s published: %w", contestID, err)
	}
	if affected == 1 {
		return nil
	}

	if _, err := r.GetContest(ctx, contestID); err != nil {
		return err
	}
	return contest.ErrAlreadyPublished
}

func (r *ContestRepository) ListPublished(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id FROM contests
WHERE telegram_chat_id IS NOT NULL AND telegram_message_id IS NOT NULL
ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list published contests: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ContestRepository) SaveContest(ctx context.Context, c *contest.Contest) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO contests (id, title, description, prize, image_url, button_text, button_url, target_channel_id,
                      telegram_chat_id, telegram_message_id, published_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	description = excluded.description,
	prize = excluded.prize,
	image_url = excluded.image_url,
	button_text = excluded.button_text,
	button_url = excluded.button_url,
	target_channel_id = excluded.target_channel_id,
	telegram_chat_id = excluded.telegram_chat_id,
	telegram_message_id = excluded.telegram_message_id,
	published_at = excluded.published_at`,
		c.ID, c.Title, c.Description, c.Prize, c.ImageURL, c.ButtonText, c.ButtonURL, c.TargetChannelID,
		nullInt64(c.TelegramChatID), nullInt64(c.TelegramMessageID), nullTime(c.PublishedAt), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("save contest %s: %w", c.ID, err)
	}
	return nil
}

func (r *ContestRepository) AddParticipant(ctx context.Context, p contest.Participant) error {
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contest_participants (contest_id, participant_id, joined_at) VALUES (?, ?, ?)`,
		p.ContestID, p.ParticipantID, p.JoinedAt)
	if err != nil {
		return fmt.Errorf("add participant to %s: %w", p.ContestID, err)
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
