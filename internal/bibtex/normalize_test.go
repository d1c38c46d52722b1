package bibtex

import "testing"

func TestCleanProtectedCase(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "double-braced initial merged",
			in:   "title = {{A}new result}",
			want: "title = {Anew result}",
		},
		{
			name: "spurious single-letter protection stripped",
			in:   "title = {The {X} Factor} and {Y} elsewhere",
			want: "title = {The X Factor} and Y elsewhere",
		},
		{
			name: "multi-letter protection kept",
			in:   "title = {The {HIV} Epidemic}",
			want: "title = {The {HIV} Epidemic}",
		},
		{
			name: "full record",
			in:   "@article{k1,\n  title = {{B}ayesian inference},\n  year = {2020},\n}",
			want: "@article{k1,\n  title = {Bayesian inference},\n  year = {2020},\n}",
		},
		{
			name: "clean text untouched",
			in:   "@article{k1,\n  title = {Nothing to fix},\n}",
			want: "@article{k1,\n  title = {Nothing to fix},\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanProtectedCase(tt.in)
			if got != tt.want {
				t.Errorf("CleanProtectedCase(%q) = %q, want %q", tt.in, got, tt.want)
			}

			// Idempotence: cleaning twice equals cleaning once.
			if again := CleanProtectedCase(got); again != got {
				t.Errorf("not idempotent: second pass %q != first pass %q", again, got)
			}
		})
	}
}

func TestExtractDOIField(t *testing.T) {
	block := "@article{k1,\n  DOI = {10.1234/abc},\n  url = {https://doi.org/10.1234/abc},\n"

	if got := ExtractDOIField(block); got != "10.1234/abc" {
		t.Errorf("ExtractDOIField() = %q, want %q", got, "10.1234/abc")
	}
	if got := ExtractURLField(block); got != "https://doi.org/10.1234/abc" {
		t.Errorf("ExtractURLField() = %q, want %q", got, "https://doi.org/10.1234/abc")
	}
	if got := ExtractDOIField("@misc{x, note = {nothing}}"); got != "" {
		t.Errorf("ExtractDOIField(no doi) = %q, want empty", got)
	}
}
