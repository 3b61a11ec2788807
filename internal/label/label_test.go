package label

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Dale Play Records", "dale play records"},
		{"  DALE  PLAY   RECORDS  ", "dale play records"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		label  string
		term   string
		want   bool
	}{
		{"exact", "Dale Play Records", "dale play records", true},
		{"uppercase", "DALE PLAY RECORDS", "dale play records", true},
		{"extended label", "Dale Play Records / Sony Music", "dale play records", true},
		{"license note", "Dale Play Records (Under exclusive license)", "dale play records", true},
		{"different label", "Rimas Entertainment", "dale play records", false},
		{"missing space variant", "DalePlay Records", "dale play records", false},
		{"empty label", "", "dale play records", false},
		{"empty term", "Dale Play Records", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.label, tt.term); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.label, tt.term, got, tt.want)
			}
		})
	}
}

func TestExtractMain(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Dale Play Records / Sony Music", "Dale Play Records"},
		{"Dale Play Records (Under exclusive license to Sony)", "Dale Play Records"},
		{"Dale Play Records", "Dale Play Records"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractMain(tt.input); got != tt.want {
			t.Errorf("ExtractMain(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	// The spelling variant the substring check cannot catch should still
	// score higher than an unrelated label.
	variant := Similarity("DalePlay Records", "dale play records")
	unrelated := Similarity("Rimas Entertainment", "dale play records")

	if variant <= unrelated {
		t.Errorf("Similarity: variant %.3f should outrank unrelated %.3f", variant, unrelated)
	}
	if variant < 0.8 {
		t.Errorf("Similarity for a close spelling variant = %.3f, expected >= 0.8", variant)
	}

	if got := Similarity("Dale Play Records", "Dale Play Records"); got != 1 {
		t.Errorf("Similarity of identical labels = %.3f, want 1", got)
	}
}
