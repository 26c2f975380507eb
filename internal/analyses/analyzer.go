package analyses

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"careerpilot-backend/internal/agent"
	"careerpilot-backend/internal/jobs"
	"careerpilot-backend/internal/llm"
	"careerpilot-backend/internal/resumes"
)

const analyzeSystemPrompt = `You are a resume review engine. Respond with JSON only. No markdown.
Score the resume and explain the scores. Be specific and actionable.
Output a single JSON object with this exact shape:
{
  "overallScore": 0,
  "atsScore": 0,
  "readabilityScore": 0,
  "sectionScores": {"summary": 0, "experience": 0, "education": 0, "skills": 0},
  "strengths": [],
  "weaknesses": [],
  "keywords": {"present": [], "missing": []},
  "suggestions": [{"priority": "high", "section": "", "message": ""}]
}
All scores are numbers from 0 to 100. Suggestion priority is high, medium, or low.
Never omit keys. Empty sections are empty arrays.`

// Request carries the inputs of one analysis. Job targeting is optional:
// a zero-value Job means a general review.
type Request struct {
	Record         resumes.ParsedRecord
	Job            jobs.Descriptor
	TargetRole     string
	TargetIndustry string
}

func (r Request) hasJob() bool {
	return strings.TrimSpace(r.Job.Title) != "" || strings.TrimSpace(r.Job.Description) != ""
}

// Analyzer scores a parsed resume via the completion service.
type Analyzer struct {
	Client  llm.Client
	Policy  agent.Policy
	Timeout time.Duration
}

var DefaultAnalyzePolicy = agent.Policy{MaxAttempts: 2, InitialDelay: 500 * time.Millisecond, Multiplier: 2}

func NewAnalyzer(client llm.Client, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Analyzer{Client: client, Policy: DefaultAnalyzePolicy, Timeout: timeout}
}

// Analyze runs the analysis operation. When the request names a job, the
// job's description must pass validation first.
func (a *Analyzer) Analyze(ctx context.Context, req Request) agent.Outcome[Analysis] {
	if req.hasJob() {
		if err := req.Job.Validate(); err != nil {
			return agent.Fail[Analysis](err)
		}
	}

	resume, err := json.Marshal(req.Record)
	if err != nil {
		return agent.Fail[Analysis](agent.InternalError("resume_marshal_failed", err.Error()))
	}

	var prompt strings.Builder
	prompt.WriteString("Resume (JSON):\n")
	prompt.Write(resume)
	if req.hasJob() {
		prompt.WriteString("\n\nTarget Job:\n")
		prompt.WriteString(req.Job.PromptContext())
	}
	if req.TargetRole != "" {
		prompt.WriteString("\n\nTarget Role: " + req.TargetRole)
	}
	if req.TargetIndustry != "" {
		prompt.WriteString("\nTarget Industry: " + req.TargetIndustry)
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	op := agent.Operation[Analysis]{
		Name: "resume_analyze",
		BuildPrompt: func(attempt int) (llm.CompletionRequest, error) {
			return llm.CompletionRequest{
				Operation:   "resume_analyze",
				System:      analyzeSystemPrompt,
				User:        prompt.String(),
				Temperature: 0,
				ForceJSON:   true,
			}, nil
		},
		Extract: func(text string) (Analysis, error) {
			analysis, err := agent.Decode[Analysis](text)
			if err != nil {
				return Analysis{}, err
			}
			normalize(&analysis)
			return analysis, nil
		},
	}

	return agent.Run(ctx, a.Client, op, a.Policy)
}

func normalize(a *Analysis) {
	a.OverallScore = agent.ClampScore(a.OverallScore, 0, 100, "overallScore")
	a.ATSScore = agent.ClampScore(a.ATSScore, 0, 100, "atsScore")
	a.ReadabilityScore = agent.ClampScore(a.ReadabilityScore, 0, 100, "readabilityScore")
	a.SectionScores.Summary = agent.ClampScore(a.SectionScores.Summary, 0, 100, "sectionScores.summary")
	a.SectionScores.Experience = agent.ClampScore(a.SectionScores.Experience, 0, 100, "sectionScores.experience")
	a.SectionScores.Education = agent.ClampScore(a.SectionScores.Education, 0, 100, "sectionScores.education")
	a.SectionScores.Skills = agent.ClampScore(a.SectionScores.Skills, 0, 100, "sectionScores.skills")
	a.Strengths = agent.EnsureSlice(a.Strengths)
	a.Weaknesses = agent.EnsureSlice(a.Weaknesses)
	a.Keywords.Present = agent.EnsureSlice(a.Keywords.Present)
	a.Keywords.Missing = agent.EnsureSlice(a.Keywords.Missing)
	a.Suggestions = agent.EnsureSlice(a.Suggestions)
	for i := range a.Suggestions {
		switch a.Suggestions[i].Priority {
		case "high", "medium", "low":
		default:
			a.Suggestions[i].Priority = "medium"
		}
	}
}
