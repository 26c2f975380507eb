package analyses

import (
	"context"
	"sync"
)

type recordKey struct {
	resumeID string
	jobID    string
}

// MemoryRepo stores analysis records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu    sync.RWMutex
	byKey map[recordKey]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byKey: make(map[recordKey]Record)}
}

// GetByKey returns the record for (resumeID, jobID), enforcing ownership.
func (r *MemoryRepo) GetByKey(ctx context.Context, userID, resumeID, jobID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.byKey[recordKey{resumeID: resumeID, jobID: jobID}]
	if !ok || record.UserID != userID {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// Upsert replaces any existing record for the same (resumeID, jobID).
func (r *MemoryRepo) Upsert(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{resumeID: record.ResumeID, jobID: record.JobID}
	if existing, ok := r.byKey[key]; ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	}
	r.byKey[key] = record
	return nil
}

// DeleteByResume removes all records for one resume.
func (r *MemoryRepo) DeleteByResume(ctx context.Context, userID, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, record := range r.byKey {
		if key.resumeID == resumeID && record.UserID == userID {
			delete(r.byKey, key)
		}
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
