package contest

import (
	"context"
	"errors"
)

var (
	ErrContestNotFound  = errors.New("contest not found")
	ErrAlreadyPublished = errors.New("contest already published")
)

// Repository defines persistence operations used by the contest handlers.
type Repository interface {
	GetContest(ctx context.Context, id string) (*Contest, error)
	// CountParticipants returns the exact number of participant rows.
	CountParticipants(ctx context.Context, contestID string) (int64, error)
	// MarkPublished records message coordinates once. It returns
	// ErrAlreadyPublished if coordinates are already set.
	MarkPublished(ctx context.Context, contestID string, coords MessageCoordinates) error
	ListPublished(ctx context.Context) ([]string, error)

	SaveContest(ctx context.Context, c *Contest) error
	AddParticipant(ctx context.Context, p Participant) error
}
