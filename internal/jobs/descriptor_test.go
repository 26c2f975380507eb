package jobs

import (
	"strings"
	"testing"
)

func TestDescriptorValidate(t *testing.T) {
	longDesc := strings.Repeat("responsibilities and requirements ", 5)

	cases := []struct {
		name     string
		desc     Descriptor
		wantCode string
	}{
		{name: "valid", desc: Descriptor{Title: "Engineer", Description: longDesc}},
		{name: "missing title", desc: Descriptor{Description: longDesc}, wantCode: "job_title_required"},
		{name: "short description", desc: Descriptor{Title: "Engineer", Description: "too short"}, wantCode: "job_description_too_short"},
		{name: "exactly 49 chars", desc: Descriptor{Title: "Engineer", Description: strings.Repeat("x", 49)}, wantCode: "job_description_too_short"},
		{name: "exactly 50 chars", desc: Descriptor{Title: "Engineer", Description: strings.Repeat("x", 50)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.desc.Validate()
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Code != tc.wantCode {
				t.Fatalf("code: got %s want %s", err.Code, tc.wantCode)
			}
		})
	}
}

func TestPromptContextIncludesSections(t *testing.T) {
	desc := Descriptor{
		Title:                   "Backend Engineer",
		Company:                 "Acme Corp",
		Description:             strings.Repeat("Build and run services. ", 4),
		Requirements:            []string{"Go", "Postgres"},
		PreferredQualifications: []string{"AWS"},
	}
	out := desc.PromptContext()
	for _, want := range []string{"Backend Engineer", "Acme Corp", "Requirements", "- Go", "Preferred Qualifications", "- AWS"} {
		if !strings.Contains(out, want) {
			t.Fatalf("prompt context missing %q:\n%s", want, out)
		}
	}
}
