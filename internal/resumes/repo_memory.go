package resumes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores resumes in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Resume
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Resume)}
}

// Create stores the resume.
func (r *MemoryRepo) Create(ctx context.Context, resume Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[resume.ID] = resume
	return nil
}

// GetByID returns a resume by ID, enforcing ownership.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, resumeID string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	resume, ok := r.byID[resumeID]
	if !ok {
		return Resume{}, ErrNotFound
	}
	if resume.UserID != userID {
		return Resume{}, ErrForbidden
	}
	return resume, nil
}

// ListByUser returns resumes for a user ordered newest-first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Resume
	for _, resume := range r.byID {
		if resume.UserID == userID {
			out = append(out, resume)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []Resume{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// UpdateRawTextKey records the stored raw-text key.
func (r *MemoryRepo) UpdateRawTextKey(ctx context.Context, userID, resumeID, rawTextKey string, at time.Time) error {
	return r.update(ctx, userID, resumeID, func(resume *Resume) {
		resume.RawTextKey = rawTextKey
		resume.UpdatedAt = at
	})
}

// UpdateParseStatus sets the parse lifecycle status.
func (r *MemoryRepo) UpdateParseStatus(ctx context.Context, userID, resumeID, status string) error {
	return r.update(ctx, userID, resumeID, func(resume *Resume) {
		resume.ParseStatus = status
		resume.UpdatedAt = time.Now().UTC()
	})
}

// UpdateParsed stores a successful parse result, clearing any prior failure.
func (r *MemoryRepo) UpdateParsed(ctx context.Context, userID, resumeID string, parsed ParsedRecord, at time.Time) error {
	return r.update(ctx, userID, resumeID, func(resume *Resume) {
		copied := parsed
		resume.Parsed = &copied
		resume.ParsedAt = &at
		resume.ParseStatus = ParseStatusCompleted
		resume.ParseError = nil
		resume.UpdatedAt = at
	})
}

// UpdateParseFailure records a parse failure payload on the resume.
func (r *MemoryRepo) UpdateParseFailure(ctx context.Context, userID, resumeID string, failure ParseFailure) error {
	return r.update(ctx, userID, resumeID, func(resume *Resume) {
		copied := failure
		resume.ParseError = &copied
		resume.ParseStatus = ParseStatusFailed
		resume.UpdatedAt = time.Now().UTC()
	})
}

func (r *MemoryRepo) update(ctx context.Context, userID, resumeID string, apply func(*Resume)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.byID[resumeID]
	if !ok {
		return ErrNotFound
	}
	if resume.UserID != userID {
		return ErrForbidden
	}
	apply(&resume)
	r.byID[resumeID] = resume
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
