package location

import "strings"

var dcSynonyms = []string{
	"dc", "d.c.", "district of columbia", "washington dc", "washington, dc", "washington d.c.",
}

// mentionsDC reports whether the raw input contains a DC synonym.
func mentionsDC(raw string) bool {
	l := strings.ToLower(raw)
	for _, s := range dcSynonyms {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

// answerIsDC reports whether a classifier answer points at DC.
func answerIsDC(answer string) bool {
	l := strings.ToLower(answer)
	return strings.Contains(l, "dc") || strings.Contains(l, "district")
}

// fallback resolves a value when the classifier failed.
func fallback(raw string) string {
	l := strings.ToLower(raw)
	if strings.Contains(l, "dc") || strings.Contains(l, "district of columbia") || strings.Contains(l, "washington, dc") {
		return DistrictOfColumbia
	}
	return Unknown
}

// Canonicalize forces DC spellings onto DistrictOfColumbia and returns
// everything else trimmed but otherwise unchanged.
func Canonicalize(v string) string {
	s := strings.TrimSpace(v)
	if mentionsDC(s) {
		return DistrictOfColumbia
	}
	return s
}

// LooksLikeDC is the loose check used when scoring: any "dc" or "district".
func LooksLikeDC(v string) bool { return answerIsDC(v) }
