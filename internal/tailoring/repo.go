package tailoring

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no preview exists for the key.
var ErrNotFound = errors.New("tailoring preview not found")

// PreviewRepo stores tailoring previews. Upsert keeps at most one live row
// per (resumeID, jobID); a newer result replaces the older one.
type PreviewRepo interface {
	GetByKey(ctx context.Context, userID, resumeID, jobID string) (Preview, error)
	Upsert(ctx context.Context, preview Preview) error
	DeleteByResume(ctx context.Context, userID, resumeID string) error
}
