package tailoring

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGPreviewRepo implements PreviewRepo using Postgres. The unique index on
// (resume_id, job_id) backs the single-live-row guarantee.
type PGPreviewRepo struct {
	DB *sql.DB
}

// GetByKey returns the preview for (resumeID, jobID), enforcing ownership.
func (r *PGPreviewRepo) GetByKey(ctx context.Context, userID, resumeID, jobID string) (Preview, error) {
	const query = `
SELECT id, user_id, resume_id, job_id, result, model, created_at, updated_at
FROM tailoring_previews
WHERE resume_id = $1 AND job_id = $2
LIMIT 1`
	var preview Preview
	var payload []byte
	err := r.DB.QueryRowContext(ctx, query, resumeID, jobID).Scan(
		&preview.ID,
		&preview.UserID,
		&preview.ResumeID,
		&preview.JobID,
		&payload,
		&preview.Model,
		&preview.CreatedAt,
		&preview.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Preview{}, ErrNotFound
	}
	if err != nil {
		return Preview{}, err
	}
	if preview.UserID != userID {
		return Preview{}, ErrNotFound
	}
	if err := json.Unmarshal(payload, &preview.Result); err != nil {
		return Preview{}, err
	}
	return preview, nil
}

// Upsert writes the preview, replacing any existing row for the same key.
func (r *PGPreviewRepo) Upsert(ctx context.Context, preview Preview) error {
	payload, err := json.Marshal(preview.Result)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO tailoring_previews (id, user_id, resume_id, job_id, result, model, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (resume_id, job_id) DO UPDATE
SET result = EXCLUDED.result, model = EXCLUDED.model, updated_at = EXCLUDED.updated_at`
	_, err = r.DB.ExecContext(ctx, query,
		preview.ID,
		preview.UserID,
		preview.ResumeID,
		preview.JobID,
		payload,
		preview.Model,
		preview.CreatedAt,
		preview.UpdatedAt,
	)
	return err
}

// DeleteByResume removes all previews for one resume.
func (r *PGPreviewRepo) DeleteByResume(ctx context.Context, userID, resumeID string) error {
	const query = `DELETE FROM tailoring_previews WHERE resume_id = $1 AND user_id = $2`
	_, err := r.DB.ExecContext(ctx, query, resumeID, userID)
	return err
}

var _ PreviewRepo = (*PGPreviewRepo)(nil)
