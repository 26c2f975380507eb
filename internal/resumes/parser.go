package resumes

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"careerpilot-backend/internal/agent"
	"careerpilot-backend/internal/llm"
	"careerpilot-backend/internal/shared/telemetry"
)

// MaxResumeTextLength bounds the text sent to the completion service so a
// pathological upload cannot blow the model's context window.
const MaxResumeTextLength = 20000

const parseSystemPrompt = `You are a resume parsing engine. Respond with JSON only. No markdown.
Output a single JSON object with this exact shape:
{
  "contact": {"name": "", "email": "", "phone": "", "location": "", "linkedin": "", "website": ""},
  "summary": "",
  "experiences": [{"company": "", "title": "", "location": "", "startDate": "", "endDate": "", "current": false, "highlights": []}],
  "educations": [{"institution": "", "degree": "", "field": "", "startDate": "", "endDate": "", "gpa": null}],
  "skills": [{"name": "", "category": "", "level": ""}],
  "certifications": [{"name": "", "issuer": "", "date": ""}]
}
Dates use YYYY or YYYY-MM. Use "" for unknown values, never invent data.
Never omit keys. Empty sections are empty arrays.`

// Parser turns free resume text into a ParsedRecord via the completion
// service. Dependencies are injected; there is no package-level client.
type Parser struct {
	Client  llm.Client
	Policy  agent.Policy
	Timeout time.Duration
}

// DefaultParsePolicy uses a small budget: parsing prompts are cheap and
// well-constrained, so repeated failure usually means bad input.
var DefaultParsePolicy = agent.Policy{MaxAttempts: 2, InitialDelay: 500 * time.Millisecond, Multiplier: 2}

// NewParser constructs a Parser with default policy and timeout.
func NewParser(client llm.Client, timeout time.Duration) *Parser {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Parser{Client: client, Policy: DefaultParsePolicy, Timeout: timeout}
}

// Parse runs the parsing operation. Missing name/contact/experience only
// warns: a resume can legitimately be sparse.
func (p *Parser) Parse(ctx context.Context, text string) agent.Outcome[ParsedRecord] {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return agent.Fail[ParsedRecord](agent.ValidationError("resume_text_empty", "resume text is empty"))
	}
	trimmed = truncateRuneSafe(trimmed, MaxResumeTextLength)

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	op := agent.Operation[ParsedRecord]{
		Name: "resume_parse",
		BuildPrompt: func(attempt int) (llm.CompletionRequest, error) {
			return llm.CompletionRequest{
				Operation:   "resume_parse",
				System:      parseSystemPrompt,
				User:        "Resume Text:\n" + trimmed,
				Temperature: 0,
				ForceJSON:   true,
			}, nil
		},
		Extract: func(text string) (ParsedRecord, error) {
			record, err := agent.Decode[ParsedRecord](text)
			if err != nil {
				return ParsedRecord{}, err
			}
			Normalize(&record)
			return record, nil
		},
	}

	out := agent.Run(ctx, p.Client, op, p.Policy)
	if out.OK {
		warnSparse(out.Data)
	}
	return out
}

// truncateRuneSafe caps s at max bytes without splitting a multi-byte rune
// at the cut.
func truncateRuneSafe(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func warnSparse(record ParsedRecord) {
	var missing []string
	if strings.TrimSpace(record.Contact.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(record.Contact.Email) == "" && strings.TrimSpace(record.Contact.Phone) == "" {
		missing = append(missing, "contact")
	}
	if len(record.Experiences) == 0 {
		missing = append(missing, "experience")
	}
	if len(missing) > 0 {
		telemetry.Warn("resume.parse.sparse", map[string]any{"missing": strings.Join(missing, ",")})
	}
}
