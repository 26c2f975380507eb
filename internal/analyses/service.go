package analyses

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"careerpilot-backend/internal/agent"
	"careerpilot-backend/internal/jobs"
	"careerpilot-backend/internal/resumes"
	"careerpilot-backend/internal/shared/metrics"
	"careerpilot-backend/internal/shared/telemetry"
)

// Fingerprint identifies the parsed content an analysis was computed from.
// A re-parse bumps ParsedAt, so stale analyses stop matching and recompute.
func Fingerprint(resume resumes.Resume) string {
	if resume.ParsedAt == nil {
		return ""
	}
	return resume.ParsedAt.UTC().Format(time.RFC3339Nano)
}

// Service serves analyses with a result cache keyed by (resumeID, jobID).
// A stored record is reused only when its fingerprint and targeting match
// the request; otherwise it is recomputed and replaced in place.
type Service struct {
	Analyzer *Analyzer
	Records  Repo
	Resumes  resumes.Repo
	Now      func() time.Time
}

func NewService(analyzer *Analyzer, records Repo, resumeRepo resumes.Repo) *Service {
	return &Service{
		Analyzer: analyzer,
		Records:  records,
		Resumes:  resumeRepo,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCompute returns the analysis for the request, serving from cache when
// the stored record matches. The bool reports a cache hit.
func (s *Service) GetOrCompute(ctx context.Context, userID, resumeID string, job jobs.Descriptor, targetRole, targetIndustry string) (Record, bool, *agent.Error) {
	resume, err := s.Resumes.GetByID(ctx, userID, resumeID)
	if err != nil {
		return Record{}, false, resumeLookupError(err)
	}
	if resume.ParseStatus != resumes.ParseStatusCompleted || resume.Parsed == nil {
		return Record{}, false, agent.ValidationError("resume_not_parsed", "resume has not been parsed yet")
	}

	fingerprint := Fingerprint(resume)
	stored, err := s.Records.GetByKey(ctx, userID, resumeID, job.ID)
	switch {
	case err == nil:
		if stored.Reusable(fingerprint, targetRole, targetIndustry) {
			metrics.IncCacheHit("analysis")
			return stored, true, nil
		}
	case !errors.Is(err, ErrNotFound):
		return Record{}, false, agent.InternalError("analysis_lookup_failed", err.Error())
	}
	metrics.IncCacheMiss("analysis")

	out := s.Analyzer.Analyze(ctx, Request{
		Record:         *resume.Parsed,
		Job:            job,
		TargetRole:     targetRole,
		TargetIndustry: targetIndustry,
	})
	if !out.OK {
		return Record{}, false, out.Err
	}

	now := s.Now()
	record := Record{
		ID:             uuid.NewString(),
		UserID:         userID,
		ResumeID:       resumeID,
		JobID:          job.ID,
		TargetRole:     targetRole,
		TargetIndustry: targetIndustry,
		Fingerprint:    fingerprint,
		Result:         out.Data,
		Model:          out.Model,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Records.Upsert(ctx, record); err != nil {
		telemetry.Error("analysis.cache_write_failed", map[string]any{
			"resume_id": resumeID,
			"job_id":    job.ID,
			"error":     err.Error(),
		})
	}
	return record, false, nil
}

func resumeLookupError(err error) *agent.Error {
	switch {
	case errors.Is(err, resumes.ErrNotFound):
		return agent.NotFoundError("resume_not_found", "resume not found")
	case errors.Is(err, resumes.ErrForbidden):
		return agent.ForbiddenError("resume_forbidden", "resume belongs to another user")
	default:
		return agent.InternalError("resume_lookup_failed", err.Error())
	}
}
