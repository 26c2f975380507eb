package tailoring

import (
	"context"
	"testing"
	"time"

	"careerpilot-backend/internal/resumes"
)

func seedParsedResume(t *testing.T, repo resumes.Repo) resumes.Resume {
	t.Helper()
	now := time.Now().UTC()
	parsed := originalRecord()
	resume := resumes.Resume{
		ID:          "resume-1",
		UserID:      "user-1",
		FileName:    "jane.pdf",
		MimeType:    "application/pdf",
		SizeBytes:   1024,
		StorageKey:  "store/jane.pdf",
		ParseStatus: resumes.ParseStatusCompleted,
		Parsed:      &parsed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(context.Background(), resume); err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return resume
}

func TestPreviewComputesThenServesCache(t *testing.T) {
	client := &countingClient{resp: tailoredJSON}
	resumeRepo := resumes.NewMemoryRepo()
	seedParsedResume(t, resumeRepo)
	svc := NewService(NewTailorer(client, time.Minute), NewMemoryPreviewRepo(), resumeRepo)

	first, cached, aerr := svc.Preview(context.Background(), "user-1", "resume-1", backendJob(), false)
	if aerr != nil {
		t.Fatalf("first preview failed: %+v", aerr)
	}
	if cached {
		t.Fatal("first preview must be a cache miss")
	}
	if client.calls != 1 {
		t.Fatalf("expected one completion call, got %d", client.calls)
	}

	second, cached, aerr := svc.Preview(context.Background(), "user-1", "resume-1", backendJob(), false)
	if aerr != nil {
		t.Fatalf("second preview failed: %+v", aerr)
	}
	if !cached {
		t.Fatal("second preview must be served from cache")
	}
	if client.calls != 1 {
		t.Fatalf("cache hit must not call the completion client, got %d calls", client.calls)
	}
	if second.ID != first.ID {
		t.Fatalf("cached preview must be the stored row: %q vs %q", second.ID, first.ID)
	}
}

func TestPreviewForceRecomputesAndReplaces(t *testing.T) {
	client := &countingClient{resp: tailoredJSON}
	resumeRepo := resumes.NewMemoryRepo()
	seedParsedResume(t, resumeRepo)
	previews := NewMemoryPreviewRepo()
	svc := NewService(NewTailorer(client, time.Minute), previews, resumeRepo)

	if _, _, aerr := svc.Preview(context.Background(), "user-1", "resume-1", backendJob(), false); aerr != nil {
		t.Fatalf("seed preview failed: %+v", aerr)
	}
	if _, cached, aerr := svc.Preview(context.Background(), "user-1", "resume-1", backendJob(), true); aerr != nil || cached {
		t.Fatalf("force must recompute: cached=%v err=%+v", cached, aerr)
	}
	if client.calls != 2 {
		t.Fatalf("expected two completion calls, got %d", client.calls)
	}

	// Still exactly one live row for the key.
	stored, err := previews.GetByKey(context.Background(), "user-1", "resume-1", "job-1")
	if err != nil {
		t.Fatalf("stored preview missing: %v", err)
	}
	if stored.ResumeID != "resume-1" || stored.JobID != "job-1" {
		t.Fatalf("unexpected stored key: %+v", stored)
	}
}

func TestPreviewRejectsUnparsedResume(t *testing.T) {
	client := &countingClient{resp: tailoredJSON}
	resumeRepo := resumes.NewMemoryRepo()
	now := time.Now().UTC()
	if err := resumeRepo.Create(context.Background(), resumes.Resume{
		ID: "resume-2", UserID: "user-1", FileName: "raw.pdf",
		ParseStatus: resumes.ParseStatusPending, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	svc := NewService(NewTailorer(client, time.Minute), NewMemoryPreviewRepo(), resumeRepo)

	_, _, aerr := svc.Preview(context.Background(), "user-1", "resume-2", backendJob(), false)
	if aerr == nil || aerr.Code != "resume_not_parsed" {
		t.Fatalf("expected resume_not_parsed, got %+v", aerr)
	}
	if client.calls != 0 {
		t.Fatalf("unparsed resume must not trigger a completion call, got %d", client.calls)
	}
}

func TestPreviewOwnershipEnforced(t *testing.T) {
	client := &countingClient{resp: tailoredJSON}
	resumeRepo := resumes.NewMemoryRepo()
	seedParsedResume(t, resumeRepo)
	svc := NewService(NewTailorer(client, time.Minute), NewMemoryPreviewRepo(), resumeRepo)

	_, _, aerr := svc.Preview(context.Background(), "user-2", "resume-1", backendJob(), false)
	if aerr == nil || aerr.Code != "resume_forbidden" {
		t.Fatalf("expected resume_forbidden, got %+v", aerr)
	}
}
