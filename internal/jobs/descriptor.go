package jobs

import (
	"strings"

	"careerpilot-backend/internal/agent"
)

// MinDescriptionLength is the precondition for any AI operation that consumes
// a job description.
const MinDescriptionLength = 50

// Descriptor is the job context passed into tailoring and analysis.
type Descriptor struct {
	ID                      string   `json:"id"`
	Title                   string   `json:"title"`
	Company                 string   `json:"company"`
	Description             string   `json:"description"`
	Requirements            []string `json:"requirements,omitempty"`
	PreferredQualifications []string `json:"preferredQualifications,omitempty"`
}

// Validate checks the descriptor preconditions for AI consumption.
func (d Descriptor) Validate() *agent.Error {
	if strings.TrimSpace(d.Title) == "" {
		return agent.ValidationError("job_title_required", "job title is required")
	}
	if len(strings.TrimSpace(d.Description)) < MinDescriptionLength {
		return agent.ValidationError("job_description_too_short", "job description must be at least 50 characters")
	}
	return nil
}

// PromptContext renders the descriptor for inclusion in a prompt.
func (d Descriptor) PromptContext() string {
	var b strings.Builder
	b.WriteString("Job Title: ")
	b.WriteString(d.Title)
	if strings.TrimSpace(d.Company) != "" {
		b.WriteString("\nCompany: ")
		b.WriteString(d.Company)
	}
	b.WriteString("\nDescription:\n")
	b.WriteString(d.Description)
	if len(d.Requirements) > 0 {
		b.WriteString("\nRequirements:\n- ")
		b.WriteString(strings.Join(d.Requirements, "\n- "))
	}
	if len(d.PreferredQualifications) > 0 {
		b.WriteString("\nPreferred Qualifications:\n- ")
		b.WriteString(strings.Join(d.PreferredQualifications, "\n- "))
	}
	return b.String()
}
