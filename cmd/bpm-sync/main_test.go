package main

import "testing"

func TestKeepArtist(t *testing.T) {
	roster := []string{"Duki", "Bizarrap"}

	tests := []struct {
		name      string
		artist    string
		labelTerm string
		want      bool
	}{
		{"exact match", "Duki", "", true},
		{"case folded", "DUKI", "", true},
		{"annotated name", "Duki (Official)", "", true},
		{"slash-joined credit", "Duki / Sony Music", "", true},
		{"roster name embedded", "Duki & Friends", "", true},
		{"spelling variant", "Bizzarap", "", true},
		{"off roster", "Emilia", "", false},
		{"unrelated", "Tini", "", false},
		{"label term keeps", "Dale Play Records Sessions", "dale play records", true},
		{"label term ignores others", "Tini", "dale play records", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keepArtist(tt.artist, roster, tt.labelTerm); got != tt.want {
				t.Errorf("keepArtist(%q, roster, %q) = %v, want %v", tt.artist, tt.labelTerm, got, tt.want)
			}
		})
	}
}
