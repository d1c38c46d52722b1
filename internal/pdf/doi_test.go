package pdf

import "testing"

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bare DOI in text",
			text: "Published in Nature. doi 10.1038/s41467-021-23778-6 available online",
			want: "10.1038/s41467-021-23778-6",
		},
		{
			name: "trailing punctuation trimmed",
			text: "see https://doi.org/10.1234/abc.def.",
			want: "10.1234/abc.def",
		},
		{
			name: "first plausible match wins",
			text: "10.1/x is too short but 10.1234/real-one is fine",
			want: "10.1234/real-one",
		},
		{
			name: "no DOI",
			text: "this page mentions no identifier at all",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindDOI(tt.text); got != tt.want {
				t.Errorf("FindDOI() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlausibleDOI(t *testing.T) {
	tests := []struct {
		doi  string
		want bool
	}{
		{"10.1038/s41467-021-23778-6", true},
		{"10.1234/ab", true},
		{"10.1/x", false},   // too short
		{"11.1234/abc", false},
		{"10.1234/", false}, // nothing after the slash
	}

	for _, tt := range tests {
		if got := plausibleDOI(tt.doi); got != tt.want {
			t.Errorf("plausibleDOI(%q) = %v, want %v", tt.doi, got, tt.want)
		}
	}
}
