package analyses

import (
	"context"
	"testing"
	"time"

	"careerpilot-backend/internal/agent"
	"careerpilot-backend/internal/jobs"
	"careerpilot-backend/internal/llm"
	"careerpilot-backend/internal/resumes"
)

type countingClient struct {
	calls int
	resp  string
	err   error
}

func (c *countingClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	_ = ctx
	c.calls++
	if c.err != nil {
		return llm.CompletionResult{}, c.err
	}
	return llm.CompletionResult{Text: c.resp, Model: "test-model"}, nil
}

const analysisJSON = `{
  "overallScore": 72,
  "atsScore": 68,
  "readabilityScore": 80,
  "sectionScores": {"summary": 60, "experience": 75, "education": 70, "skills": 80},
  "strengths": ["Clear experience section"],
  "weaknesses": ["Thin summary"],
  "keywords": {"present": ["go"], "missing": ["kubernetes"]},
  "suggestions": [{"priority": "high", "section": "summary", "message": "Expand the summary"}]
}`

func seedParsedResume(t *testing.T, repo resumes.Repo, parsedAt time.Time) {
	t.Helper()
	parsed := resumes.ParsedRecord{
		Contact:        resumes.Contact{Name: "Jane Doe"},
		Experiences:    []resumes.Experience{{Company: "Acme Corp", Title: "Engineer", StartDate: "2020", Current: true}},
		Educations:     []resumes.Education{},
		Skills:         []resumes.Skill{{Name: "Go"}},
		Certifications: []resumes.Certification{},
	}
	resume := resumes.Resume{
		ID:          "resume-1",
		UserID:      "user-1",
		FileName:    "jane.pdf",
		ParseStatus: resumes.ParseStatusCompleted,
		Parsed:      &parsed,
		ParsedAt:    &parsedAt,
		CreatedAt:   parsedAt,
		UpdatedAt:   parsedAt,
	}
	if err := repo.Create(context.Background(), resume); err != nil {
		t.Fatalf("seed resume: %v", err)
	}
}

func newTestService(client *countingClient) (*Service, *resumes.MemoryRepo) {
	resumeRepo := resumes.NewMemoryRepo()
	svc := NewService(NewAnalyzer(client, time.Minute), NewMemoryRepo(), resumeRepo)
	return svc, resumeRepo
}

func TestGetOrComputeCachesResult(t *testing.T) {
	client := &countingClient{resp: analysisJSON}
	svc, resumeRepo := newTestService(client)
	seedParsedResume(t, resumeRepo, time.Now().UTC())

	first, cached, aerr := svc.GetOrCompute(context.Background(), "user-1", "resume-1", jobs.Descriptor{}, "", "")
	if aerr != nil {
		t.Fatalf("first call failed: %+v", aerr)
	}
	if cached || client.calls != 1 {
		t.Fatalf("first call must compute: cached=%v calls=%d", cached, client.calls)
	}

	second, cached, aerr := svc.GetOrCompute(context.Background(), "user-1", "resume-1", jobs.Descriptor{}, "", "")
	if aerr != nil {
		t.Fatalf("second call failed: %+v", aerr)
	}
	if !cached {
		t.Fatal("second call must be served from cache")
	}
	if client.calls != 1 {
		t.Fatalf("cache hit must not call the completion client, got %d calls", client.calls)
	}
	if second.ID != first.ID {
		t.Fatalf("cache hit must return the stored record: %q vs %q", second.ID, first.ID)
	}
}

func TestGetOrComputeRecomputesOnNewTargetRole(t *testing.T) {
	client := &countingClient{resp: analysisJSON}
	svc, resumeRepo := newTestService(client)
	seedParsedResume(t, resumeRepo, time.Now().UTC())

	if _, _, aerr := svc.GetOrCompute(context.Background(), "user-1", "resume-1", jobs.Descriptor{}, "", ""); aerr != nil {
		t.Fatalf("seed analysis failed: %+v", aerr)
	}

	record, cached, aerr := svc.GetOrCompute(context.Background(), "user-1", "resume-1", jobs.Descriptor{}, "Staff Engineer", "")
	if aerr != nil {
		t.Fatalf("targeted analysis failed: %+v", aerr)
	}
	if cached {
		t.Fatal("new target role must force a recompute")
	}
	if client.calls != 2 {
		t.Fatalf("expected two completion calls, got %d", client.calls)
	}
	if record.TargetRole != "Staff Engineer" {
		t.Fatalf("stored record missing target role: %+v", record)
	}

	// The replacement is in place: the original targeting no longer matches
	// the single stored row, so it recomputes rather than finding a second row.
	_, cached, aerr = svc.GetOrCompute(context.Background(), "user-1", "resume-1", jobs.Descriptor{}, "", "")
	if aerr != nil {
		t.Fatalf("untargeted analysis failed: %+v", aerr)
	}
	if cached {
		t.Fatal("replaced record must not serve the old targeting")
	}
	if client.calls != 3 {
		t.Fatalf("expected three completion calls, got %d", client.calls)
	}
}

func TestGetOrComputeRecomputesAfterReparse(t *testing.T) {
	client := &countingClient{resp: analysisJSON}
	svc, resumeRepo := newTestService(client)
	parsedAt := time.Now().UTC().Add(-time.Hour)
	seedParsedResume(t, resumeRepo, parsedAt)

	if _, _, aerr := svc.GetOrCompute(context.Background(), "user-1", "resume-1", jobs.Descriptor{}, "", ""); aerr != nil {
		t.Fatalf("seed analysis failed: %+v", aerr)
	}

	// A re-parse bumps ParsedAt, invalidating the fingerprint.
	parsed := resumes.ParsedRecord{
		Contact:     resumes.Contact{Name: "Jane Doe"},
		Experiences: []resumes.Experience{{Company: "Acme Corp", Title: "Senior Engineer", StartDate: "2020", Current: true}},
		Skills:      []resumes.Skill{{Name: "Go"}},
	}
	if err := resumeRepo.UpdateParsed(context.Background(), "user-1", "resume-1", parsed, time.Now().UTC()); err != nil {
		t.Fatalf("reparse update: %v", err)
	}

	_, cached, aerr := svc.GetOrCompute(context.Background(), "user-1", "resume-1", jobs.Descriptor{}, "", "")
	if aerr != nil {
		t.Fatalf("post-reparse analysis failed: %+v", aerr)
	}
	if cached {
		t.Fatal("stale fingerprint must force a recompute")
	}
	if client.calls != 2 {
		t.Fatalf("expected two completion calls, got %d", client.calls)
	}
}

func TestGetOrComputeRejectsShortJobDescription(t *testing.T) {
	client := &countingClient{resp: analysisJSON}
	svc, resumeRepo := newTestService(client)
	seedParsedResume(t, resumeRepo, time.Now().UTC())

	job := jobs.Descriptor{ID: "job-1", Title: "Backend Engineer", Description: "too short"}
	_, _, aerr := svc.GetOrCompute(context.Background(), "user-1", "resume-1", job, "", "")
	if aerr == nil || aerr.Category != agent.CategoryValidation {
		t.Fatalf("expected validation error, got %+v", aerr)
	}
	if client.calls != 0 {
		t.Fatalf("validation must short-circuit before any completion call, got %d", client.calls)
	}
}

func TestGetOrComputeRejectsUnparsedResume(t *testing.T) {
	client := &countingClient{resp: analysisJSON}
	svc, resumeRepo := newTestService(client)
	now := time.Now().UTC()
	if err := resumeRepo.Create(context.Background(), resumes.Resume{
		ID: "resume-1", UserID: "user-1", FileName: "raw.pdf",
		ParseStatus: resumes.ParseStatusPending, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed resume: %v", err)
	}

	_, _, aerr := svc.GetOrCompute(context.Background(), "user-1", "resume-1", jobs.Descriptor{}, "", "")
	if aerr == nil || aerr.Code != "resume_not_parsed" {
		t.Fatalf("expected resume_not_parsed, got %+v", aerr)
	}
}

func TestAnalyzeClampsAndFillsContainers(t *testing.T) {
	resp := `{
  "overallScore": 140,
  "atsScore": -10,
  "readabilityScore": 80,
  "sectionScores": {"summary": 60, "experience": 75, "education": 70, "skills": 80},
  "keywords": {},
  "suggestions": [{"priority": "urgent", "section": "summary", "message": "Fix it"}]
}`
	client := &countingClient{resp: resp}
	analyzer := NewAnalyzer(client, time.Minute)

	out := analyzer.Analyze(context.Background(), Request{Record: resumes.ParsedRecord{
		Contact: resumes.Contact{Name: "Jane"},
	}})
	if !out.OK {
		t.Fatalf("expected success, got %+v", out.Err)
	}
	if out.Data.OverallScore != 100 || out.Data.ATSScore != 0 {
		t.Fatalf("scores not clamped: %+v", out.Data)
	}
	if out.Data.Strengths == nil || out.Data.Weaknesses == nil || out.Data.Keywords.Present == nil {
		t.Fatal("containers must never be absent on success")
	}
	if out.Data.Suggestions[0].Priority != "medium" {
		t.Fatalf("unknown priority must default to medium, got %q", out.Data.Suggestions[0].Priority)
	}
}
