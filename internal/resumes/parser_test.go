package resumes

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"careerpilot-backend/internal/agent"
	"careerpilot-backend/internal/llm"
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

const parsedJaneJSON = `{
  "contact": {"name": "Jane Doe", "email": "jane@x.com", "phone": "", "location": "", "linkedin": "", "website": ""},
  "summary": "Engineer.",
  "experiences": [{"company": "Acme Corp", "title": "Engineer", "location": "", "startDate": "2020", "endDate": "Present", "current": false, "highlights": []}],
  "educations": [],
  "skills": [{"name": "Go", "category": "", "level": ""}],
  "certifications": []
}`

func TestParseProducesNormalizedRecord(t *testing.T) {
	client := &countingClient{resp: parsedJaneJSON}
	parser := NewParser(client, time.Minute)

	out := parser.Parse(context.Background(), "Jane Doe, jane@x.com, Experience: Acme Corp, Engineer, 2020-Present")

	if !out.OK {
		t.Fatalf("expected success, got %+v", out.Err)
	}
	record := out.Data
	if record.Contact.Name != "Jane Doe" || record.Contact.Email != "jane@x.com" {
		t.Fatalf("contact not extracted: %+v", record.Contact)
	}
	if len(record.Experiences) != 1 {
		t.Fatalf("expected one experience, got %d", len(record.Experiences))
	}
	exp := record.Experiences[0]
	if !exp.Current || exp.EndDate != "" {
		t.Fatalf("Present end date must normalize to current with empty end: %+v", exp)
	}
	if record.Educations == nil || record.Certifications == nil {
		t.Fatal("containers must never be absent on success")
	}
}

func TestParseDeterministicAcrossRuns(t *testing.T) {
	client := &countingClient{resp: parsedJaneJSON}
	parser := NewParser(client, time.Minute)

	first := parser.Parse(context.Background(), "Jane Doe, jane@x.com, Experience: Acme Corp, Engineer, 2020-Present")
	second := parser.Parse(context.Background(), "Jane Doe, jane@x.com, Experience: Acme Corp, Engineer, 2020-Present")

	if !first.OK || !second.OK {
		t.Fatalf("expected both runs to succeed: %+v / %+v", first.Err, second.Err)
	}
	if first.Data.Contact.Name != second.Data.Contact.Name || first.Data.Contact.Email != second.Data.Contact.Email {
		t.Fatal("identical input must yield identical contact fields")
	}
	if len(first.Data.Experiences) != len(second.Data.Experiences) {
		t.Fatal("identical input must yield identical experience count")
	}
}

func TestParseEmptyTextFailsWithoutCall(t *testing.T) {
	client := &countingClient{resp: parsedJaneJSON}
	parser := NewParser(client, time.Minute)

	out := parser.Parse(context.Background(), "   ")

	if out.OK {
		t.Fatal("expected validation failure")
	}
	if out.Err.Category != agent.CategoryValidation {
		t.Fatalf("expected validation category, got %s", out.Err.Category)
	}
	if client.calls != 0 {
		t.Fatalf("no completion call may be made, got %d", client.calls)
	}
}

func TestParseTruncatesOversizedInput(t *testing.T) {
	client := &countingClient{resp: parsedJaneJSON}
	parser := NewParser(client, time.Minute)
	parser.Client = llm.ClientFunc(func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
		if len(req.User) > MaxResumeTextLength+len("Resume Text:\n") {
			t.Fatalf("prompt exceeds truncation bound: %d", len(req.User))
		}
		return client.Complete(ctx, req)
	})

	out := parser.Parse(context.Background(), strings.Repeat("x", MaxResumeTextLength*2))
	if !out.OK {
		t.Fatalf("expected success, got %+v", out.Err)
	}
}

func TestParseSparseResumeSucceedsWithWarning(t *testing.T) {
	sparse := `{
  "contact": {"name": "", "email": "", "phone": "", "location": "", "linkedin": "", "website": ""},
  "summary": "",
  "experiences": [],
  "educations": [],
  "skills": [],
  "certifications": []
}`
	client := &countingClient{resp: sparse}
	parser := NewParser(client, time.Minute)

	out := parser.Parse(context.Background(), "just a few words")

	if !out.OK {
		t.Fatalf("sparse resume must parse successfully, got %+v", out.Err)
	}
	if out.Data.Experiences == nil || out.Data.Skills == nil {
		t.Fatal("containers must be present even when empty")
	}
}

func TestParseTruncatesOnRuneBoundary(t *testing.T) {
	var sent string
	client := llm.ClientFunc(func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
		sent = req.User
		return llm.CompletionResult{Text: parsedJaneJSON, Model: "test-model"}, nil
	})
	parser := NewParser(client, time.Minute)

	// The last rune straddles the byte limit.
	text := strings.Repeat("a", MaxResumeTextLength-1) + "é"
	out := parser.Parse(context.Background(), text)
	if !out.OK {
		t.Fatalf("expected success, got %+v", out.Err)
	}

	body := strings.TrimPrefix(sent, "Resume Text:\n")
	if len(body) > MaxResumeTextLength {
		t.Fatalf("prompt exceeds the byte limit: %d", len(body))
	}
	if !utf8.ValidString(body) {
		t.Fatal("truncation split a multi-byte rune")
	}
	if !strings.HasSuffix(body, "a") {
		t.Fatalf("partial final rune must be dropped, got suffix %q", body[len(body)-4:])
	}
}
