package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"careerpilot-backend/internal/resumes"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Get returns the user's profile.
func (r *PGRepo) Get(ctx context.Context, userID string) (Profile, error) {
	const query = `
SELECT user_id, headline, summary, skills, experience, education, updated_at
FROM profiles
WHERE user_id = $1
LIMIT 1`
	var profile Profile
	var skills, experience, education []byte
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Headline,
		&profile.Summary,
		&skills,
		&experience,
		&education,
		&profile.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal(skills, &profile.Skills); err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal(experience, &profile.Experience); err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal(education, &profile.Education); err != nil {
		return Profile{}, err
	}
	if profile.Skills == nil {
		profile.Skills = []string{}
	}
	if profile.Experience == nil {
		profile.Experience = []resumes.Experience{}
	}
	if profile.Education == nil {
		profile.Education = []resumes.Education{}
	}
	return profile, nil
}

// Upsert writes the profile.
func (r *PGRepo) Upsert(ctx context.Context, profile Profile) error {
	skills, err := json.Marshal(profile.Skills)
	if err != nil {
		return err
	}
	experience, err := json.Marshal(profile.Experience)
	if err != nil {
		return err
	}
	education, err := json.Marshal(profile.Education)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO profiles (user_id, headline, summary, skills, experience, education, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO UPDATE
SET headline = EXCLUDED.headline,
    summary = EXCLUDED.summary,
    skills = EXCLUDED.skills,
    experience = EXCLUDED.experience,
    education = EXCLUDED.education,
    updated_at = EXCLUDED.updated_at`
	_, err = r.DB.ExecContext(ctx, query,
		profile.UserID,
		profile.Headline,
		profile.Summary,
		skills,
		experience,
		education,
		profile.UpdatedAt,
	)
	return err
}

var _ Repo = (*PGRepo)(nil)
