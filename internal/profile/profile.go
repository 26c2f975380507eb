package profile

import (
	"strings"
	"time"

	"careerpilot-backend/internal/resumes"
)

// Profile is the user's aggregate career record, built up from parsed
// resumes. Merges are additive: parsing a narrower resume never erases
// history captured from an earlier one.
type Profile struct {
	UserID     string               `json:"userId"`
	Headline   string               `json:"headline"`
	Summary    string               `json:"summary"`
	Skills     []string             `json:"skills"`
	Experience []resumes.Experience `json:"experience"`
	Education  []resumes.Education  `json:"education"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// Merge folds a parsed resume into the profile. Non-empty incoming scalars
// replace existing values; empty ones never do. List entries are added when
// not already present, and entries without a start date are skipped since
// they cannot be keyed or ordered.
func Merge(p *Profile, record resumes.ParsedRecord) {
	if s := strings.TrimSpace(record.Summary); s != "" {
		p.Summary = s
	}
	if h := headlineFrom(record); h != "" {
		p.Headline = h
	}

	seen := make(map[string]bool, len(p.Skills))
	for _, s := range p.Skills {
		seen[strings.ToLower(s)] = true
	}
	for _, skill := range record.Skills {
		name := strings.TrimSpace(skill.Name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		p.Skills = append(p.Skills, name)
	}

	haveExp := make(map[string]bool, len(p.Experience))
	for _, exp := range p.Experience {
		haveExp[experienceKey(exp)] = true
	}
	for _, exp := range record.Experiences {
		if strings.TrimSpace(exp.StartDate) == "" {
			continue
		}
		key := experienceKey(exp)
		if haveExp[key] {
			continue
		}
		haveExp[key] = true
		p.Experience = append(p.Experience, exp)
	}

	haveEdu := make(map[string]bool, len(p.Education))
	for _, edu := range p.Education {
		haveEdu[educationKey(edu)] = true
	}
	for _, edu := range record.Educations {
		if strings.TrimSpace(edu.StartDate) == "" && strings.TrimSpace(edu.EndDate) == "" {
			continue
		}
		key := educationKey(edu)
		if haveEdu[key] {
			continue
		}
		haveEdu[key] = true
		p.Education = append(p.Education, edu)
	}

	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []resumes.Experience{}
	}
	if p.Education == nil {
		p.Education = []resumes.Education{}
	}
}

// headlineFrom derives a headline from the current or most recent role.
func headlineFrom(record resumes.ParsedRecord) string {
	var best *resumes.Experience
	for i := range record.Experiences {
		exp := &record.Experiences[i]
		if strings.TrimSpace(exp.Title) == "" {
			continue
		}
		if best == nil || exp.Current && !best.Current ||
			exp.Current == best.Current && exp.StartDate > best.StartDate {
			best = exp
		}
	}
	if best == nil {
		return ""
	}
	if strings.TrimSpace(best.Company) == "" {
		return best.Title
	}
	return best.Title + " at " + best.Company
}

func experienceKey(exp resumes.Experience) string {
	return strings.ToLower(strings.TrimSpace(exp.Company)) + "|" +
		strings.ToLower(strings.TrimSpace(exp.Title)) + "|" + exp.StartDate
}

func educationKey(edu resumes.Education) string {
	return strings.ToLower(strings.TrimSpace(edu.Institution)) + "|" +
		strings.ToLower(strings.TrimSpace(edu.Degree))
}
