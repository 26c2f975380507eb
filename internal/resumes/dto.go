package resumes

import "time"

// Response is the wire shape of a resume.
type Response struct {
	ID          string        `json:"id"`
	FileName    string        `json:"fileName"`
	MimeType    string        `json:"mimeType"`
	SizeBytes   int64         `json:"sizeBytes"`
	ParseStatus string        `json:"parseStatus"`
	ParseError  *ParseFailure `json:"parseError,omitempty"`
	Parsed      *ParsedRecord `json:"parsed,omitempty"`
	ParsedAt    *time.Time    `json:"parsedAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func toResponse(resume Resume) Response {
	return Response{
		ID:          resume.ID,
		FileName:    resume.FileName,
		MimeType:    resume.MimeType,
		SizeBytes:   resume.SizeBytes,
		ParseStatus: resume.ParseStatus,
		ParseError:  resume.ParseError,
		Parsed:      resume.Parsed,
		ParsedAt:    resume.ParsedAt,
		CreatedAt:   resume.CreatedAt,
		UpdatedAt:   resume.UpdatedAt,
	}
}
