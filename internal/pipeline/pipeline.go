package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"careerpilot-backend/internal/agent"
	"careerpilot-backend/internal/analyses"
	"careerpilot-backend/internal/extract"
	"careerpilot-backend/internal/jobs"
	"careerpilot-backend/internal/notify"
	"careerpilot-backend/internal/profile"
	"careerpilot-backend/internal/resumes"
	"careerpilot-backend/internal/shared/metrics"
	"careerpilot-backend/internal/shared/storage/object"
	"careerpilot-backend/internal/shared/telemetry"
	"careerpilot-backend/internal/tailoring"
)

// Stage names reported to the progress callback, in execution order. The
// first five are critical: a failure marks the resume failed and stops the
// run. The rest are advisory: a failure is logged and skipped.
const (
	StageLoad       = "load"
	StageMark       = "mark_processing"
	StageExtract    = "extract_text"
	StageValidate   = "validate_text"
	StageParse      = "parse"
	StageProfile    = "profile_merge"
	StageInvalidate = "invalidate_caches"
	StageAnalyze    = "auto_analysis"
	StageNotify     = "notify"
	totalStages     = 9
)

// ProgressFunc receives stage transitions for one parse job.
type ProgressFunc func(resumeID, stage string, step, total int)

// AnalysisRunner computes a resume analysis, reusing a cached record when it
// still matches. *analyses.Service satisfies it.
type AnalysisRunner interface {
	GetOrCompute(ctx context.Context, userID, resumeID string, job jobs.Descriptor, targetRole, targetIndustry string) (analyses.Record, bool, *agent.Error)
}

// Pipeline runs the background parse job for one uploaded resume.
type Pipeline struct {
	Resumes     resumes.Repo
	Store       object.ObjectStore
	Parser      *resumes.Parser
	Profiles    profile.Repo
	Analyses    analyses.Repo
	Previews    tailoring.PreviewRepo
	AutoAnalyze AnalysisRunner
	Notifier    notify.Notifier
	Progress    ProgressFunc
	Now         func() time.Time
}

func New(repo resumes.Repo, store object.ObjectStore, parser *resumes.Parser) *Pipeline {
	return &Pipeline{
		Resumes:  repo,
		Store:    store,
		Parser:   parser,
		Notifier: notify.LogNotifier{},
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Process runs the parse pipeline for one resume. A returned error means
// the job should be redelivered; a nil return means the message is done,
// including the case where the parse failed for a reason a retry cannot fix.
func (p *Pipeline) Process(ctx context.Context, userID, resumeID, requestID string) error {
	startedAt := p.Now()
	metrics.IncParseJobStarted()
	defer func() {
		metrics.ObserveParseJobDurationMs(float64(time.Since(startedAt).Milliseconds()))
	}()
	defer func() {
		if r := recover(); r != nil {
			p.markFailed(ctx, userID, resumeID, requestID, &agent.Error{
				Code:     "pipeline_panic",
				Message:  fmt.Sprintf("panic: %v", r),
				Category: agent.CategoryInternal,
			})
		}
	}()

	// Stage 1: load.
	p.report(resumeID, StageLoad, 1)
	resume, err := p.Resumes.GetByID(ctx, userID, resumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) || errors.Is(err, resumes.ErrForbidden) {
			// The row is gone or the message is mismatched; redelivery
			// cannot help.
			telemetry.Warn("pipeline.resume_unavailable", map[string]any{
				"request_id": requestID,
				"resume_id":  resumeID,
				"error":      err.Error(),
			})
			return nil
		}
		return fmt.Errorf("load resume %s: %w", resumeID, err)
	}
	if resume.ParseStatus == resumes.ParseStatusCompleted && resume.Parsed != nil {
		// Duplicate delivery after a successful parse. A failed parse does
		// not short-circuit; it runs again.
		telemetry.Info("pipeline.already_parsed", map[string]any{
			"request_id": requestID,
			"resume_id":  resumeID,
		})
		return nil
	}

	// Stage 2: mark processing.
	p.report(resumeID, StageMark, 2)
	if err := p.Resumes.UpdateParseStatus(ctx, userID, resumeID, resumes.ParseStatusProcessing); err != nil {
		return fmt.Errorf("mark processing %s: %w", resumeID, err)
	}
	telemetry.Info("pipeline.status", map[string]any{
		"request_id":        requestID,
		"resume_id":         resumeID,
		"status_transition": resume.ParseStatus + "->" + resumes.ParseStatusProcessing,
	})

	// Stage 3: extract text from the stored upload.
	p.report(resumeID, StageExtract, 3)
	text, err := extract.Text(ctx, p.Store, resume.StorageKey, resume.MimeType, resume.FileName)
	if err != nil {
		if errors.Is(err, extract.ErrStorage) {
			// The document was never read; let the queue redeliver.
			return fmt.Errorf("fetch resume %s: %w", resumeID, err)
		}
		p.markFailed(ctx, userID, resumeID, requestID, &agent.Error{
			Code:     "text_extraction_failed",
			Message:  err.Error(),
			Category: agent.CategoryInternal,
		})
		return nil
	}
	rawTextKey := resume.StorageKey + ".extracted.txt"
	if err := p.Resumes.UpdateRawTextKey(ctx, userID, resumeID, rawTextKey, p.Now()); err != nil {
		return fmt.Errorf("store raw text key %s: %w", resumeID, err)
	}

	// Stage 4: validate the extracted text.
	p.report(resumeID, StageValidate, 4)
	if len(text) == 0 {
		p.markFailed(ctx, userID, resumeID, requestID, agent.ValidationError(
			"no_text_extracted", "no text could be extracted from the file"))
		return nil
	}

	// Stage 5: parse via the completion service.
	p.report(resumeID, StageParse, 5)
	out := p.Parser.Parse(ctx, text)
	if !out.OK {
		p.markFailed(ctx, userID, resumeID, requestID, out.Err)
		if out.Err.Retryable {
			return fmt.Errorf("parse resume %s: %s", resumeID, out.Err.Message)
		}
		return nil
	}
	parsedAt := p.Now()
	if err := p.Resumes.UpdateParsed(ctx, userID, resumeID, out.Data, parsedAt); err != nil {
		return fmt.Errorf("store parsed resume %s: %w", resumeID, err)
	}
	metrics.IncParseJobCompleted()
	telemetry.Info("pipeline.status", map[string]any{
		"request_id":        requestID,
		"resume_id":         resumeID,
		"status_transition": resumes.ParseStatusProcessing + "->" + resumes.ParseStatusCompleted,
		"retries":           out.Retries,
	})

	// Stages 6 through 9 are advisory.
	p.report(resumeID, StageProfile, 6)
	p.mergeProfile(ctx, userID, resumeID, out.Data)

	p.report(resumeID, StageInvalidate, 7)
	p.invalidateCaches(ctx, userID, resumeID)

	p.report(resumeID, StageAnalyze, 8)
	p.autoAnalyze(ctx, userID, resumeID)

	p.report(resumeID, StageNotify, 9)
	p.notifyUser(ctx, notify.Event{
		UserID:   userID,
		ResumeID: resumeID,
		Kind:     notify.KindParseCompleted,
		Message:  "Your resume has been parsed.",
	})
	return nil
}

// markFailed records the failure on the resume row and tells the user.
func (p *Pipeline) markFailed(ctx context.Context, userID, resumeID, requestID string, aerr *agent.Error) {
	metrics.IncParseJobFailed()
	failure := resumes.ParseFailure{
		Code:      aerr.Code,
		Message:   aerr.Message,
		Category:  string(aerr.Category),
		Retryable: aerr.Retryable,
	}
	if err := p.Resumes.UpdateParseFailure(ctx, userID, resumeID, failure); err != nil {
		telemetry.Error("pipeline.mark_failed_error", map[string]any{
			"request_id": requestID,
			"resume_id":  resumeID,
			"error":      err.Error(),
		})
	}
	telemetry.Error("pipeline.failed", map[string]any{
		"request_id": requestID,
		"resume_id":  resumeID,
		"code":       aerr.Code,
		"category":   string(aerr.Category),
		"retryable":  aerr.Retryable,
	})
	p.notifyUser(ctx, notify.Event{
		UserID:   userID,
		ResumeID: resumeID,
		Kind:     notify.KindParseFailed,
		Message:  "We could not process your resume.",
	})
}

func (p *Pipeline) mergeProfile(ctx context.Context, userID, resumeID string, record resumes.ParsedRecord) {
	if p.Profiles == nil {
		return
	}
	prof, err := p.Profiles.Get(ctx, userID)
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		telemetry.Warn("pipeline.profile_merge_skipped", map[string]any{
			"resume_id": resumeID,
			"error":     err.Error(),
		})
		return
	}
	prof.UserID = userID
	profile.Merge(&prof, record)
	prof.UpdatedAt = p.Now()
	if err := p.Profiles.Upsert(ctx, prof); err != nil {
		telemetry.Warn("pipeline.profile_merge_skipped", map[string]any{
			"resume_id": resumeID,
			"error":     err.Error(),
		})
	}
}

// invalidateCaches drops analyses and previews computed from the previous
// parse. Lookups also compare fingerprints, so a miss here only delays the
// refresh.
func (p *Pipeline) invalidateCaches(ctx context.Context, userID, resumeID string) {
	if p.Analyses != nil {
		if err := p.Analyses.DeleteByResume(ctx, userID, resumeID); err != nil {
			telemetry.Warn("pipeline.cache_invalidation_failed", map[string]any{
				"resume_id": resumeID,
				"kind":      "analysis",
				"error":     err.Error(),
			})
		}
	}
	if p.Previews != nil {
		if err := p.Previews.DeleteByResume(ctx, userID, resumeID); err != nil {
			telemetry.Warn("pipeline.cache_invalidation_failed", map[string]any{
				"resume_id": resumeID,
				"kind":      "tailoring",
				"error":     err.Error(),
			})
		}
	}
}

// autoAnalyze warms the analysis cache for the fresh parse. The resume is the
// whole input; no job context is attached.
func (p *Pipeline) autoAnalyze(ctx context.Context, userID, resumeID string) {
	if p.AutoAnalyze == nil {
		return
	}
	if _, _, aerr := p.AutoAnalyze.GetOrCompute(ctx, userID, resumeID, jobs.Descriptor{}, "", ""); aerr != nil {
		telemetry.Warn("pipeline.auto_analysis_skipped", map[string]any{
			"resume_id": resumeID,
			"code":      aerr.Code,
			"error":     aerr.Message,
		})
	}
}

func (p *Pipeline) notifyUser(ctx context.Context, event notify.Event) {
	if p.Notifier == nil {
		return
	}
	if err := p.Notifier.Notify(ctx, event); err != nil {
		telemetry.Warn("pipeline.notify_failed", map[string]any{
			"resume_id": event.ResumeID,
			"kind":      event.Kind,
			"error":     err.Error(),
		})
	}
}

func (p *Pipeline) report(resumeID, stage string, step int) {
	if p.Progress == nil {
		return
	}
	p.Progress(resumeID, stage, step, totalStages)
}
