package resumes

import "testing"

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "2020", want: "2020"},
		{in: "2020-01", want: "2020-01"},
		{in: "2020-1", want: "2020-01"},
		{in: "2020-01-15", want: "2020-01"},
		{in: "2020/06", want: "2020-06"},
		{in: "01/2020", want: "2020-01"},
		{in: "Jan 2020", want: "2020-01"},
		{in: "January 2020", want: "2020-01"},
		{in: "Sept 2021", want: "2021-09"},
		{in: "Dec. 2019", want: "2019-12"},
		{in: "Present", want: ""},
		{in: "current", want: ""},
		{in: "", want: ""},
		{in: "sometime in spring", want: ""},
		{in: "2020-13", want: "2020"},
	}
	for _, tc := range cases {
		if got := NormalizeDate(tc.in); got != tc.want {
			t.Errorf("NormalizeDate(%q): got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeArraysAlwaysPresent(t *testing.T) {
	record := ParsedRecord{}
	Normalize(&record)

	if record.Experiences == nil || record.Educations == nil || record.Skills == nil || record.Certifications == nil {
		t.Fatalf("all containers must be present after Normalize: %+v", record)
	}
	if len(record.Experiences) != 0 {
		t.Fatalf("expected empty experiences, got %d", len(record.Experiences))
	}
}

func TestNormalizeSingleCurrentExperience(t *testing.T) {
	record := ParsedRecord{
		Experiences: []Experience{
			{Company: "Old Corp", StartDate: "2015-03", EndDate: "2018", Current: true},
			{Company: "Acme Corp", StartDate: "2020-01", Current: true},
		},
	}
	Normalize(&record)

	currents := 0
	for _, exp := range record.Experiences {
		if exp.Current {
			currents++
			if exp.Company != "Acme Corp" {
				t.Fatalf("expected the most recent role to stay current, got %s", exp.Company)
			}
			if exp.EndDate != "" {
				t.Fatalf("current entry must have no end date, got %q", exp.EndDate)
			}
		}
	}
	if currents != 1 {
		t.Fatalf("expected exactly one current experience, got %d", currents)
	}
}

func TestNormalizePresentEndDateImpliesCurrent(t *testing.T) {
	record := ParsedRecord{
		Experiences: []Experience{
			{Company: "Acme Corp", StartDate: "2020-01", EndDate: "Present"},
		},
	}
	Normalize(&record)

	exp := record.Experiences[0]
	if !exp.Current {
		t.Fatal("Present end date should mark the entry current")
	}
	if exp.EndDate != "" {
		t.Fatalf("end date should be cleared, got %q", exp.EndDate)
	}
	if exp.Highlights == nil {
		t.Fatal("highlights must be a container, not nil")
	}
}

func TestNormalizeClampsGPA(t *testing.T) {
	high := 8.9
	low := -1.0
	record := ParsedRecord{
		Educations: []Education{
			{Institution: "State U", GPA: &high},
			{Institution: "Tech U", GPA: &low},
		},
	}
	Normalize(&record)

	if *record.Educations[0].GPA != 5 {
		t.Fatalf("expected GPA clamped to 5, got %v", *record.Educations[0].GPA)
	}
	if *record.Educations[1].GPA != 0 {
		t.Fatalf("expected GPA clamped to 0, got %v", *record.Educations[1].GPA)
	}
}
