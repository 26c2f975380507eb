package tailoring

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"careerpilot-backend/internal/agent"
	"careerpilot-backend/internal/jobs"
	"careerpilot-backend/internal/llm"
	"careerpilot-backend/internal/resumes"
	"careerpilot-backend/internal/shared/telemetry"
)

const tailorSystemPrompt = `You are a resume tailoring engine. Respond with JSON only. No markdown.
Rewrite the candidate's resume so it targets the given job while staying truthful.
You may rephrase, reorder, and emphasize, but never invent employers, job titles,
institutions, degrees, dates, or certifications that are not in the original resume.
Output a single JSON object with this exact shape:
{
  "resume": {"contact": {}, "summary": "", "experiences": [], "educations": [], "skills": [], "certifications": []},
  "matchScore": 0,
  "atsScore": 0,
  "changes": [{"section": "", "field": "", "before": "", "after": "", "reason": ""}],
  "keywords": {"matched": [], "missing": [], "suggested": []},
  "recommendations": []
}
matchScore and atsScore are numbers from 0 to 100. Never omit keys.`

// Tailorer rewrites a parsed resume toward one job posting.
type Tailorer struct {
	Client  llm.Client
	Policy  agent.Policy
	Timeout time.Duration
}

// DefaultTailorPolicy allows one extra attempt over parsing: tailoring
// output is larger and truncates more often.
var DefaultTailorPolicy = agent.Policy{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond, Multiplier: 2}

func NewTailorer(client llm.Client, timeout time.Duration) *Tailorer {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Tailorer{Client: client, Policy: DefaultTailorPolicy, Timeout: timeout}
}

// Tailor produces a job-targeted variant of record. The returned resume's
// employers and institutions are always a subset of the original's, and the
// impact level is recomputed locally rather than trusted from the model.
func (t *Tailorer) Tailor(ctx context.Context, record resumes.ParsedRecord, job jobs.Descriptor) agent.Outcome[Result] {
	if len(record.Experiences) == 0 {
		return agent.Fail[Result](agent.ValidationError("resume_no_experience", "resume has no work experience to tailor"))
	}
	if len(record.Skills) == 0 {
		return agent.Fail[Result](agent.ValidationError("resume_no_skills", "resume has no skills to tailor"))
	}
	if err := job.Validate(); err != nil {
		return agent.Fail[Result](err)
	}

	original, err := json.Marshal(record)
	if err != nil {
		return agent.Fail[Result](agent.InternalError("resume_marshal_failed", err.Error()))
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	op := agent.Operation[Result]{
		Name: "resume_tailor",
		BuildPrompt: func(attempt int) (llm.CompletionRequest, error) {
			return llm.CompletionRequest{
				Operation:   "resume_tailor",
				System:      tailorSystemPrompt,
				User:        "Job Posting:\n" + job.PromptContext() + "\n\nOriginal Resume (JSON):\n" + string(original),
				Temperature: 0.3,
				ForceJSON:   true,
			}, nil
		},
		Extract: func(text string) (Result, error) {
			result, err := agent.Decode[Result](text)
			if err != nil {
				return Result{}, err
			}
			finalize(&result, record)
			return result, nil
		},
	}

	return agent.Run(ctx, t.Client, op, t.Policy)
}

// finalize normalizes scores and containers, back-fills omitted resume
// sections from the original, drops fabricated entries, and recomputes the
// impact level deterministically.
func finalize(result *Result, original resumes.ParsedRecord) {
	result.MatchScore = agent.ClampScore(result.MatchScore, 0, 100, "matchScore")
	result.ATSScore = agent.ClampScore(result.ATSScore, 0, 100, "atsScore")
	result.Changes = agent.EnsureSlice(result.Changes)
	result.Recommendations = agent.EnsureSlice(result.Recommendations)
	result.Keywords.Matched = agent.EnsureSlice(result.Keywords.Matched)
	result.Keywords.Missing = agent.EnsureSlice(result.Keywords.Missing)
	result.Keywords.Suggested = agent.EnsureSlice(result.Keywords.Suggested)

	resumes.Normalize(&result.Resume)

	// A model that drops a whole section must not erase the candidate's
	// history. Copy the original section back in.
	if len(result.Resume.Experiences) == 0 {
		result.Resume.Experiences = append([]resumes.Experience{}, original.Experiences...)
	}
	if len(result.Resume.Educations) == 0 {
		result.Resume.Educations = append([]resumes.Education{}, original.Educations...)
	}
	if len(result.Resume.Skills) == 0 {
		result.Resume.Skills = append([]resumes.Skill{}, original.Skills...)
	}
	if len(result.Resume.Certifications) == 0 {
		result.Resume.Certifications = append([]resumes.Certification{}, original.Certifications...)
	}
	if strings.TrimSpace(result.Resume.Contact.Name) == "" {
		result.Resume.Contact = original.Contact
	}

	dropFabricated(&result.Resume, original)

	result.EstimatedImpact = EstimateImpact(
		result.MatchScore,
		len(result.Changes),
		len(result.Keywords.Matched),
		result.ATSScore,
	)
}

// dropFabricated removes experiences and educations whose employer or
// institution does not appear in the original resume.
func dropFabricated(derived *resumes.ParsedRecord, original resumes.ParsedRecord) {
	companies := make(map[string]bool, len(original.Experiences))
	for _, exp := range original.Experiences {
		companies[normalizeName(exp.Company)] = true
	}
	kept := derived.Experiences[:0]
	for _, exp := range derived.Experiences {
		if companies[normalizeName(exp.Company)] {
			kept = append(kept, exp)
			continue
		}
		telemetry.Warn("tailor.fabricated_dropped", map[string]any{"section": "experience", "value": exp.Company})
	}
	derived.Experiences = kept

	institutions := make(map[string]bool, len(original.Educations))
	for _, edu := range original.Educations {
		institutions[normalizeName(edu.Institution)] = true
	}
	keptEdu := derived.Educations[:0]
	for _, edu := range derived.Educations {
		if institutions[normalizeName(edu.Institution)] {
			keptEdu = append(keptEdu, edu)
			continue
		}
		telemetry.Warn("tailor.fabricated_dropped", map[string]any{"section": "education", "value": edu.Institution})
	}
	derived.Educations = keptEdu

	// Dropping everything would be worse than keeping the original content.
	if len(derived.Experiences) == 0 {
		derived.Experiences = append([]resumes.Experience{}, original.Experiences...)
	}
	if len(derived.Educations) == 0 && len(original.Educations) > 0 {
		derived.Educations = append([]resumes.Education{}, original.Educations...)
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
