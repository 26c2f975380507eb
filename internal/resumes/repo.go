package resumes

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no resume exists for the key.
	ErrNotFound = errors.New("resume not found")
	// ErrForbidden is returned when the resume is owned by a different user.
	ErrForbidden = errors.New("resume not owned by user")
)

// Repo defines persistence operations for resumes. All writes are single-row
// upserts scoped by owning user plus resume ID.
type Repo interface {
	Create(ctx context.Context, resume Resume) error
	GetByID(ctx context.Context, userID, resumeID string) (Resume, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Resume, error)
	UpdateRawTextKey(ctx context.Context, userID, resumeID, rawTextKey string, at time.Time) error
	UpdateParseStatus(ctx context.Context, userID, resumeID, status string) error
	UpdateParsed(ctx context.Context, userID, resumeID string, parsed ParsedRecord, at time.Time) error
	UpdateParseFailure(ctx context.Context, userID, resumeID string, failure ParseFailure) error
}
