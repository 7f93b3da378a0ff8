package contest

import (
	"strings"
	"time"
)

// Contest is a promotional record. Once published it carries the coordinates
// of its channel message; TelegramChatID and TelegramMessageID are either both
// nil or both set.
type Contest struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Prize           string `json:"prize"`
	ImageURL        string `json:"image_url,omitempty"`
	ButtonText      string `json:"button_text,omitempty"`
	ButtonURL       string `json:"button_url,omitempty"`
	TargetChannelID string `json:"target_channel_id,omitempty"`

	TelegramChatID    *int64     `json:"telegram_chat_id,omitempty"`
	TelegramMessageID *int64     `json:"telegram_message_id,omitempty"`
	PublishedAt       *time.Time `json:"published_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// IsPublished reports whether message coordinates are recorded.
func (c *Contest) IsPublished() bool {
	return c.TelegramChatID != nil && c.TelegramMessageID != nil
}

// MissingSyncFields lists what prevents the channel button from being
// rebuilt. An empty result means the contest can be synchronized.
func (c *Contest) MissingSyncFields() []string {
	var missing []string
	if c.TelegramMessageID == nil {
		missing = append(missing, "telegram_message_id")
	}
	if c.TelegramChatID == nil {
		missing = append(missing, "telegram_chat_id")
	}
	if strings.TrimSpace(c.ButtonText) == "" {
		missing = append(missing, "button_text")
	}
	if strings.TrimSpace(c.ButtonURL) == "" {
		missing = append(missing, "button_url")
	}
	return missing
}

// Participant is one participation row. Rows are not deduplicated here.
type Participant struct {
	ContestID     string    `json:"contest_id"`
	ParticipantID string    `json:"participant_id"`
	JoinedAt      time.Time `json:"joined_at"`
}

// MessageCoordinates locate a published channel message.
type MessageCoordinates struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}
