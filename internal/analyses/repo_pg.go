package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres. The unique constraint on
// (resume_id, job_id) backs the single-live-row guarantee.
type PGRepo struct {
	DB *sql.DB
}

// GetByKey returns the record for (resumeID, jobID), enforcing ownership.
func (r *PGRepo) GetByKey(ctx context.Context, userID, resumeID, jobID string) (Record, error) {
	const query = `
SELECT id, user_id, resume_id, job_id, target_role, target_industry, resume_fingerprint,
       result, model, created_at, updated_at
FROM analyses
WHERE resume_id = $1 AND job_id = $2
LIMIT 1`
	var record Record
	var payload []byte
	err := r.DB.QueryRowContext(ctx, query, resumeID, jobID).Scan(
		&record.ID,
		&record.UserID,
		&record.ResumeID,
		&record.JobID,
		&record.TargetRole,
		&record.TargetIndustry,
		&record.Fingerprint,
		&payload,
		&record.Model,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	if record.UserID != userID {
		return Record{}, ErrNotFound
	}
	if err := json.Unmarshal(payload, &record.Result); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Upsert writes the record, replacing any existing row for the same key.
func (r *PGRepo) Upsert(ctx context.Context, record Record) error {
	payload, err := json.Marshal(record.Result)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO analyses (id, user_id, resume_id, job_id, target_role, target_industry,
	resume_fingerprint, result, model, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (resume_id, job_id) DO UPDATE
SET target_role = EXCLUDED.target_role,
    target_industry = EXCLUDED.target_industry,
    resume_fingerprint = EXCLUDED.resume_fingerprint,
    result = EXCLUDED.result,
    model = EXCLUDED.model,
    updated_at = EXCLUDED.updated_at`
	_, err = r.DB.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.ResumeID,
		record.JobID,
		record.TargetRole,
		record.TargetIndustry,
		record.Fingerprint,
		payload,
		record.Model,
		record.CreatedAt,
		record.UpdatedAt,
	)
	return err
}

// DeleteByResume removes all records for one resume.
func (r *PGRepo) DeleteByResume(ctx context.Context, userID, resumeID string) error {
	const query = `DELETE FROM analyses WHERE resume_id = $1 AND user_id = $2`
	_, err := r.DB.ExecContext(ctx, query, resumeID, userID)
	return err
}

var _ Repo = (*PGRepo)(nil)
