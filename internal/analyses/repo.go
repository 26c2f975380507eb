package analyses

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no analysis exists for the key.
var ErrNotFound = errors.New("analysis not found")

// Repo stores analysis records. Upsert keeps at most one live row per
// (resumeID, jobID); a recompute replaces the older row in place.
type Repo interface {
	GetByKey(ctx context.Context, userID, resumeID, jobID string) (Record, error)
	Upsert(ctx context.Context, record Record) error
	DeleteByResume(ctx context.Context, userID, resumeID string) error
}
