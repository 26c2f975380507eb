package tailoring

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

// Service serves tailoring previews with a result cache keyed by
// (resumeID, jobID). A cache hit is returned without a completion call.
type Service struct {
	Tailorer *Tailorer
	Previews PreviewRepo
	Resumes  resumes.Repo
	Now      func() time.Time
}

func NewService(tailorer *Tailorer, previews PreviewRepo, resumeRepo resumes.Repo) *Service {
	return &Service{
		Tailorer: tailorer,
		Previews: previews,
		Resumes:  resumeRepo,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Preview returns the cached tailoring result for (resumeID, jobID) or
// computes and stores a fresh one. The bool reports whether the result was
// served from cache. force skips the cache read but still writes through.
func (s *Service) Preview(ctx context.Context, userID, resumeID string, job jobs.Descriptor, force bool) (Preview, bool, *agent.Error) {
	resume, err := s.Resumes.GetByID(ctx, userID, resumeID)
	if err != nil {
		return Preview{}, false, resumeLookupError(err)
	}
	if resume.ParseStatus != resumes.ParseStatusCompleted || resume.Parsed == nil {
		return Preview{}, false, agent.ValidationError("resume_not_parsed", "resume has not been parsed yet")
	}
	if verr := job.Validate(); verr != nil {
		return Preview{}, false, verr
	}

	if !force {
		cached, err := s.Previews.GetByKey(ctx, userID, resumeID, job.ID)
		if err == nil {
			metrics.IncCacheHit("tailoring")
			return cached, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Preview{}, false, agent.InternalError("preview_lookup_failed", err.Error())
		}
	}
	metrics.IncCacheMiss("tailoring")

	out := s.Tailorer.Tailor(ctx, *resume.Parsed, job)
	if !out.OK {
		return Preview{}, false, out.Err
	}

	now := s.Now()
	preview := Preview{
		ID:        uuid.NewString(),
		UserID:    userID,
		ResumeID:  resumeID,
		JobID:     job.ID,
		Result:    out.Data,
		Model:     out.Model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Previews.Upsert(ctx, preview); err != nil {
		// The result is still valid; losing the cache write only costs a
		// recompute on the next request.
		telemetry.Error("tailoring.preview.cache_write_failed", map[string]any{
			"resume_id": resumeID,
			"job_id":    job.ID,
			"error":     err.Error(),
		})
	}
	return preview, false, nil
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
