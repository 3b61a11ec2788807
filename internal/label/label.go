// Package label is a best-effort classifier for record-label strings.
// Label fields are free text ("Dale Play Records / Sony Music", "DALE PLAY
// RECORDS (Under exclusive license)"), so matching is inherently heuristic.
// It backs only the manual purge maintenance path, never a correctness-
// critical one.
package label

import (
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

var (
	whitespace     = regexp.MustCompile(`\s+`)
	parentheticals = regexp.MustCompile(`\([^)]*\)`)
)

// Normalize lowercases a label and collapses runs of whitespace, so
// casing and spacing variants compare equal.
func Normalize(label string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), " ")
}

// Matches reports whether the normalized label contains the normalized
// search term. This catches extended labels like
// "dale play records / sony music".
func Matches(label, searchTerm string) bool {
	normalizedLabel := Normalize(label)
	normalizedSearch := Normalize(searchTerm)
	if normalizedLabel == "" || normalizedSearch == "" {
		return false
	}
	return strings.Contains(normalizedLabel, normalizedSearch)
}

// ExtractMain strips parenthetical license notes and takes the first
// segment of a "/"-joined label list.
func ExtractMain(label string) string {
	cleaned := strings.TrimSpace(parentheticals.ReplaceAllString(label, ""))
	if idx := strings.Index(cleaned, "/"); idx != -1 {
		cleaned = strings.TrimSpace(cleaned[:idx])
	}
	return cleaned
}

// Similarity scores how close a label is to the search term using
// Jaro-Winkler over the normalized strings, for ranking near-misses the
// substring check cannot catch ("daleplay records").
func Similarity(label, searchTerm string) float64 {
	return strutil.Similarity(Normalize(label), Normalize(searchTerm), metrics.NewJaroWinkler())
}
