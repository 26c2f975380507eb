package analyses

import "time"

// SectionScores rates the major resume sections on a 0 to 100 scale.
type SectionScores struct {
	Summary    float64 `json:"summary"`
	Experience float64 `json:"experience"`
	Education  float64 `json:"education"`
	Skills     float64 `json:"skills"`
}

// KeywordFindings reports keyword coverage relative to the job description.
// Without a job these reflect general industry expectations for the role.
type KeywordFindings struct {
	Present []string `json:"present"`
	Missing []string `json:"missing"`
}

// Suggestion is one prioritized improvement.
type Suggestion struct {
	Priority string `json:"priority"`
	Section  string `json:"section"`
	Message  string `json:"message"`
}

// Analysis is the scored assessment of one resume, optionally against a job.
type Analysis struct {
	OverallScore     float64         `json:"overallScore"`
	ATSScore         float64         `json:"atsScore"`
	ReadabilityScore float64         `json:"readabilityScore"`
	SectionScores    SectionScores   `json:"sectionScores"`
	Strengths        []string        `json:"strengths"`
	Weaknesses       []string        `json:"weaknesses"`
	Keywords         KeywordFindings `json:"keywords"`
	Suggestions      []Suggestion    `json:"suggestions"`
}

// Record is a stored analysis. The (ResumeID, JobID) pair is the cache key;
// Fingerprint, TargetRole, and TargetIndustry decide whether a stored row can
// be served or must be recomputed.
type Record struct {
	ID             string
	UserID         string
	ResumeID       string
	JobID          string
	TargetRole     string
	TargetIndustry string
	Fingerprint    string
	Result         Analysis
	Model          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reusable reports whether a stored record can serve a request with the given
// fingerprint and targeting. Any difference forces a recompute.
func (r Record) Reusable(fingerprint, targetRole, targetIndustry string) bool {
	return r.Fingerprint == fingerprint &&
		r.TargetRole == targetRole &&
		r.TargetIndustry == targetIndustry
}
