package resumes

import (
	"fmt"
	"regexp"
	"strings"

	"careerpilot-backend/internal/agent"
)

var (
	yearOnlyRe  = regexp.MustCompile(`^(\d{4})$`)
	yearMonthRe = regexp.MustCompile(`^(\d{4})[-/\.](\d{1,2})(?:[-/\.]\d{1,2})?$`)
	monthYearRe = regexp.MustCompile(`^(\d{1,2})[-/\.](\d{4})$`)
	textMonthRe = regexp.MustCompile(`^([A-Za-z]+)\.?,?\s+(\d{4})$`)
)

var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// NormalizeDate coerces assorted model output ("Jan 2020", "2020-01-15",
// "01/2020") into YYYY or YYYY-MM. Unrecognized or present-style values
// normalize to the empty string.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if lower == "present" || lower == "current" || lower == "now" || lower == "ongoing" {
		return ""
	}
	if m := yearOnlyRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := yearMonthRe.FindStringSubmatch(s); m != nil {
		return joinYearMonth(m[1], m[2])
	}
	if m := monthYearRe.FindStringSubmatch(s); m != nil {
		return joinYearMonth(m[2], m[1])
	}
	if m := textMonthRe.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			return fmt.Sprintf("%s-%02d", m[2], month)
		}
	}
	return ""
}

func joinYearMonth(year, month string) string {
	var m int
	if _, err := fmt.Sscanf(month, "%d", &m); err != nil || m < 1 || m > 12 {
		return year
	}
	return fmt.Sprintf("%s-%02d", year, m)
}

// Normalize repairs a parsed record in place: containers are always present,
// dates are normalized, at most one experience stays current, and
// out-of-range values are clamped rather than failing the result.
func Normalize(record *ParsedRecord) {
	record.Experiences = agent.EnsureSlice(record.Experiences)
	record.Educations = agent.EnsureSlice(record.Educations)
	record.Skills = agent.EnsureSlice(record.Skills)
	record.Certifications = agent.EnsureSlice(record.Certifications)

	for i := range record.Experiences {
		exp := &record.Experiences[i]
		exp.StartDate = NormalizeDate(exp.StartDate)
		end := NormalizeDate(exp.EndDate)
		if strings.TrimSpace(exp.EndDate) != "" && end == "" {
			// "Present"-style end date means the role is ongoing.
			exp.Current = true
		}
		exp.EndDate = end
		exp.Highlights = agent.EnsureSlice(exp.Highlights)
	}
	enforceSingleCurrent(record.Experiences)

	for i := range record.Educations {
		edu := &record.Educations[i]
		edu.StartDate = NormalizeDate(edu.StartDate)
		edu.EndDate = NormalizeDate(edu.EndDate)
		if edu.GPA != nil {
			clamped := agent.ClampScore(*edu.GPA, 0, 5, "education.gpa")
			edu.GPA = &clamped
		}
	}

	for i := range record.Certifications {
		record.Certifications[i].Date = NormalizeDate(record.Certifications[i].Date)
	}
}

// enforceSingleCurrent keeps the most recent current entry marked and clears
// the flag on the rest. A current entry never carries an end date.
func enforceSingleCurrent(exps []Experience) {
	keep := -1
	for i := range exps {
		if !exps[i].Current {
			continue
		}
		if keep < 0 || exps[i].StartDate > exps[keep].StartDate {
			keep = i
		}
	}
	for i := range exps {
		if exps[i].Current && i != keep {
			exps[i].Current = false
		}
		if exps[i].Current {
			exps[i].EndDate = ""
		}
	}
}
