package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"careerpilot-backend/internal/queue"
	"careerpilot-backend/internal/shared/storage/object"
	"careerpilot-backend/internal/shared/telemetry"
)

// ErrInvalidInput marks rejected uploads.
var ErrInvalidInput = errors.New("invalid input")

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// JobRunner executes a parse job inline. It stands in for the queue in
// development and tests.
type JobRunner interface {
	Process(ctx context.Context, userID, resumeID, requestID string) error
}

// Service owns resume uploads and parse submission. When a queue client is
// configured, parse jobs go through it; otherwise they run on a background
// goroutine via Runner.
type Service struct {
	Store  object.ObjectStore
	Repo   Repo
	Queue  queue.Client
	Runner JobRunner
	Now    func() time.Time
}

func NewService(store object.ObjectStore, repo Repo) *Service {
	return &Service{Store: store, Repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

// Upload stores the file, records the resume, and submits the parse job.
func (s *Service) Upload(ctx context.Context, userID, fileName, requestID string, r io.Reader) (Resume, error) {
	fileName = strings.TrimSpace(fileName)
	if userID == "" {
		return Resume{}, fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}
	if fileName == "" {
		return Resume{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(fileName))] {
		return Resume{}, fmt.Errorf("%w: only pdf, docx, and txt files are supported", ErrInvalidInput)
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return Resume{}, fmt.Errorf("store upload: %w", err)
	}

	now := s.Now()
	resume := Resume{
		ID:          uuid.NewString(),
		UserID:      userID,
		FileName:    fileName,
		MimeType:    mimeType,
		SizeBytes:   size,
		StorageKey:  storageKey,
		ParseStatus: ParseStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, resume); err != nil {
		return Resume{}, fmt.Errorf("create resume: %w", err)
	}

	s.submitParseJob(ctx, resume, requestID)
	return resume, nil
}

// Reparse resubmits a resume whose previous parse failed or never ran. A
// resume with a successful parse already stored is returned as-is, without
// a new job: re-parsing it would only repeat a completion call for a result
// we already hold.
func (s *Service) Reparse(ctx context.Context, userID, resumeID, requestID string) (Resume, error) {
	resume, err := s.Repo.GetByID(ctx, userID, resumeID)
	if err != nil {
		return Resume{}, err
	}
	if resume.ParseStatus == ParseStatusProcessing {
		return resume, nil
	}
	if resume.ParseStatus == ParseStatusCompleted && resume.Parsed != nil {
		telemetry.Info("resume.reparse_skipped", map[string]any{
			"request_id": requestID,
			"resume_id":  resumeID,
		})
		return resume, nil
	}
	if err := s.Repo.UpdateParseStatus(ctx, userID, resumeID, ParseStatusPending); err != nil {
		return Resume{}, err
	}
	resume.ParseStatus = ParseStatusPending
	s.submitParseJob(ctx, resume, requestID)
	return resume, nil
}

// Get returns one resume, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID, resumeID string) (Resume, error) {
	return s.Repo.GetByID(ctx, userID, resumeID)
}

// List returns the user's resumes, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Resume, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) submitParseJob(ctx context.Context, resume Resume, requestID string) {
	if s.Queue != nil {
		msg := queue.Message{
			ResumeID:   resume.ID,
			UserID:     resume.UserID,
			RequestID:  requestID,
			EnqueuedAt: s.Now().Format(time.RFC3339),
			Version:    queue.MessageVersion,
		}
		err := s.Queue.Send(ctx, msg)
		if err == nil {
			return
		}
		telemetry.Error("resume.enqueue_failed", map[string]any{
			"request_id": requestID,
			"resume_id":  resume.ID,
			"error":      err.Error(),
		})
	}
	if s.Runner == nil {
		telemetry.Error("resume.parse_not_submitted", map[string]any{
			"request_id": requestID,
			"resume_id":  resume.ID,
		})
		return
	}
	go func() {
		// Detach from the request context so an early client disconnect
		// does not kill the job.
		bg := context.Background()
		if err := s.Runner.Process(bg, resume.UserID, resume.ID, requestID); err != nil {
			telemetry.Error("resume.inline_parse_failed", map[string]any{
				"request_id": requestID,
				"resume_id":  resume.ID,
				"error":      err.Error(),
			})
		}
	}()
}
