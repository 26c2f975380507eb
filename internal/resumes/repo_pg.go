package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new resume.
func (r *PGRepo) Create(ctx context.Context, resume Resume) error {
	const query = `
INSERT INTO resumes (id, user_id, file_name, mime_type, size_bytes, storage_key, raw_text_key,
	parse_status, parse_error, parsed, parsed_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	parseError, err := marshalNullable(resume.ParseError)
	if err != nil {
		return err
	}
	parsed, err := marshalNullable(resume.Parsed)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		resume.ID,
		resume.UserID,
		resume.FileName,
		resume.MimeType,
		resume.SizeBytes,
		resume.StorageKey,
		nullString(resume.RawTextKey),
		resume.ParseStatus,
		parseError,
		parsed,
		nullTime(resume.ParsedAt),
		resume.CreatedAt,
		resume.UpdatedAt,
	)
	return err
}

// GetByID returns a resume by ID, enforcing ownership.
func (r *PGRepo) GetByID(ctx context.Context, userID, resumeID string) (Resume, error) {
	const query = `
SELECT id, user_id, file_name, mime_type, size_bytes, storage_key, raw_text_key,
       parse_status, parse_error, parsed, parsed_at, created_at, updated_at
FROM resumes
WHERE id = $1
LIMIT 1`
	resume, err := scanResume(r.DB.QueryRowContext(ctx, query, resumeID))
	if err != nil {
		return Resume{}, err
	}
	if resume.UserID != userID {
		return Resume{}, ErrForbidden
	}
	return resume, nil
}

// ListByUser returns resumes for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Resume, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, file_name, mime_type, size_bytes, storage_key, raw_text_key,
       parse_status, parse_error, parsed, parsed_at, created_at, updated_at
FROM resumes
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Resume, 0, limit)
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

// UpdateRawTextKey records the stored raw-text key.
func (r *PGRepo) UpdateRawTextKey(ctx context.Context, userID, resumeID, rawTextKey string, at time.Time) error {
	const query = `
UPDATE resumes SET raw_text_key = $1, updated_at = $2
WHERE id = $3 AND user_id = $4`
	return r.exec(ctx, query, rawTextKey, at, resumeID, userID)
}

// UpdateParseStatus sets the parse lifecycle status.
func (r *PGRepo) UpdateParseStatus(ctx context.Context, userID, resumeID, status string) error {
	const query = `
UPDATE resumes SET parse_status = $1, updated_at = now()
WHERE id = $2 AND user_id = $3`
	return r.exec(ctx, query, status, resumeID, userID)
}

// UpdateParsed stores a successful parse result, clearing any prior failure.
func (r *PGRepo) UpdateParsed(ctx context.Context, userID, resumeID string, parsed ParsedRecord, at time.Time) error {
	payload, err := json.Marshal(parsed)
	if err != nil {
		return err
	}
	const query = `
UPDATE resumes SET parsed = $1, parsed_at = $2, parse_status = $3, parse_error = NULL, updated_at = $2
WHERE id = $4 AND user_id = $5`
	return r.exec(ctx, query, payload, at, ParseStatusCompleted, resumeID, userID)
}

// UpdateParseFailure records a parse failure payload on the resume.
func (r *PGRepo) UpdateParseFailure(ctx context.Context, userID, resumeID string, failure ParseFailure) error {
	payload, err := json.Marshal(failure)
	if err != nil {
		return err
	}
	const query = `
UPDATE resumes SET parse_error = $1, parse_status = $2, updated_at = now()
WHERE id = $3 AND user_id = $4`
	return r.exec(ctx, query, payload, ParseStatusFailed, resumeID, userID)
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (Resume, error) {
	var resume Resume
	var rawTextKey sql.NullString
	var parseError sql.NullString
	var parsed sql.NullString
	var parsedAt sql.NullTime

	err := row.Scan(
		&resume.ID,
		&resume.UserID,
		&resume.FileName,
		&resume.MimeType,
		&resume.SizeBytes,
		&resume.StorageKey,
		&rawTextKey,
		&resume.ParseStatus,
		&parseError,
		&parsed,
		&parsedAt,
		&resume.CreatedAt,
		&resume.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Resume{}, ErrNotFound
	}
	if err != nil {
		return Resume{}, err
	}

	resume.RawTextKey = rawTextKey.String
	if parseError.Valid && parseError.String != "" {
		var failure ParseFailure
		if err := json.Unmarshal([]byte(parseError.String), &failure); err == nil {
			resume.ParseError = &failure
		}
	}
	if parsed.Valid && parsed.String != "" {
		var record ParsedRecord
		if err := json.Unmarshal([]byte(parsed.String), &record); err == nil {
			resume.Parsed = &record
		}
	}
	if parsedAt.Valid {
		at := parsedAt.Time
		resume.ParsedAt = &at
	}
	return resume, nil
}

func marshalNullable(v any) (any, error) {
	switch t := v.(type) {
	case *ParseFailure:
		if t == nil {
			return nil, nil
		}
	case *ParsedRecord:
		if t == nil {
			return nil, nil
		}
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

var _ Repo = (*PGRepo)(nil)
