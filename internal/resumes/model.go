package resumes

import "time"

const (
	ParseStatusPending    = "pending"
	ParseStatusProcessing = "processing"
	ParseStatusCompleted  = "completed"
	ParseStatusFailed     = "failed"
)

// Resume represents an uploaded resume owned by a user, together with its
// parse lifecycle. ParseError distinguishes "never parsed" from "parsing
// failed" without consulting logs.
type Resume struct {
	ID          string
	UserID      string
	FileName    string
	MimeType    string
	SizeBytes   int64
	StorageKey  string
	RawTextKey  string
	ParseStatus string
	ParseError  *ParseFailure
	Parsed      *ParsedRecord
	ParsedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ParseFailure is the error payload recorded on a resume when parsing fails.
type ParseFailure struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	Retryable bool   `json:"retryable"`
}

// Contact holds the contact block extracted from a resume.
type Contact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
}

// Experience is one work-history entry. Dates are normalized to YYYY or
// YYYY-MM; a current entry has an empty EndDate.
type Experience struct {
	Company    string   `json:"company"`
	Title      string   `json:"title"`
	Location   string   `json:"location"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Current    bool     `json:"current"`
	Highlights []string `json:"highlights"`
}

// Education is one education entry.
type Education struct {
	Institution string   `json:"institution"`
	Degree      string   `json:"degree"`
	Field       string   `json:"field"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	GPA         *float64 `json:"gpa,omitempty"`
}

// Skill is a single skill with optional category and level.
type Skill struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    string `json:"level"`
}

// Certification is one certification entry.
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// ParsedRecord is the structured result of resume parsing. Once parsing
// succeeds the slice fields are always present, possibly empty, never nil.
// The record is overwritten whole on re-parse, never partially updated.
type ParsedRecord struct {
	Contact        Contact         `json:"contact"`
	Summary        string          `json:"summary"`
	Experiences    []Experience    `json:"experiences"`
	Educations     []Education     `json:"educations"`
	Skills         []Skill         `json:"skills"`
	Certifications []Certification `json:"certifications"`
}
