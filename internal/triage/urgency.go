package triage

import "strings"

// ExtractUrgencyIndicators returns the built-in urgency phrases found in
// text, in vocabulary order. Overlapping phrases are reported independently.
func ExtractUrgencyIndicators(text string) []string {
	return extractUrgency(text, defaultUrgencyPhrases)
}

// ExtractUrgency is ExtractUrgencyIndicators over k's vocabulary.
func (k Keywords) ExtractUrgency(text string) []string {
	return extractUrgency(text, k.UrgencyPhrases)
}

func extractUrgency(text string, phrases []string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(lower, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}
