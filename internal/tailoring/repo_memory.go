package tailoring

import (
	"context"
	"sync"
)

type previewKey struct {
	resumeID string
	jobID    string
}

// MemoryPreviewRepo stores previews in memory and is safe for concurrent use.
type MemoryPreviewRepo struct {
	mu    sync.RWMutex
	byKey map[previewKey]Preview
}

// NewMemoryPreviewRepo constructs a MemoryPreviewRepo.
func NewMemoryPreviewRepo() *MemoryPreviewRepo {
	return &MemoryPreviewRepo{byKey: make(map[previewKey]Preview)}
}

// GetByKey returns the preview for (resumeID, jobID), enforcing ownership.
func (r *MemoryPreviewRepo) GetByKey(ctx context.Context, userID, resumeID, jobID string) (Preview, error) {
	if err := ctx.Err(); err != nil {
		return Preview{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	preview, ok := r.byKey[previewKey{resumeID: resumeID, jobID: jobID}]
	if !ok || preview.UserID != userID {
		return Preview{}, ErrNotFound
	}
	return preview, nil
}

// Upsert replaces any existing preview for the same (resumeID, jobID).
func (r *MemoryPreviewRepo) Upsert(ctx context.Context, preview Preview) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := previewKey{resumeID: preview.ResumeID, jobID: preview.JobID}
	if existing, ok := r.byKey[key]; ok {
		preview.ID = existing.ID
		preview.CreatedAt = existing.CreatedAt
	}
	r.byKey[key] = preview
	return nil
}

// DeleteByResume removes all previews for one resume.
func (r *MemoryPreviewRepo) DeleteByResume(ctx context.Context, userID, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, preview := range r.byKey {
		if key.resumeID == resumeID && preview.UserID == userID {
			delete(r.byKey, key)
		}
	}
	return nil
}

var _ PreviewRepo = (*MemoryPreviewRepo)(nil)
