package tailoring

import (
	"time"

	"careerpilot-backend/internal/resumes"
)

// Impact levels derived from the scoring function in impact.go.
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// ChangeRecord documents one edit the tailoring pass made.
type ChangeRecord struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Before  string `json:"before"`
	After   string `json:"after"`
	Reason  string `json:"reason"`
}

// KeywordAlignment summarizes how the resume lines up with the job's keywords.
type KeywordAlignment struct {
	Matched   []string `json:"matched"`
	Missing   []string `json:"missing"`
	Suggested []string `json:"suggested"`
}

// Result is the outcome of tailoring a resume against a job. The derived
// resume never names an employer or institution absent from the original.
type Result struct {
	Resume          resumes.ParsedRecord `json:"resume"`
	MatchScore      float64              `json:"matchScore"`
	ATSScore        float64              `json:"atsScore"`
	Changes         []ChangeRecord       `json:"changes"`
	Keywords        KeywordAlignment     `json:"keywords"`
	Recommendations []string             `json:"recommendations"`
	EstimatedImpact string               `json:"estimatedImpact"`
}

// Preview is a cached tailoring result keyed by (resumeID, jobID). At most
// one live preview exists per key.
type Preview struct {
	ID        string
	UserID    string
	ResumeID  string
	JobID     string
	Result    Result
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
