package profile

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the user has no profile yet.
var ErrNotFound = errors.New("profile not found")

// Repo stores one profile row per user.
type Repo interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Upsert(ctx context.Context, profile Profile) error
}
