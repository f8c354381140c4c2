package triage

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

var defaultUrgencyPhrases = []string{
	"urgent",
	"asap",
	"immediately",
	"payment failed",
	"payment failed multiple times",
	"account locked",
	"crash",
	"error",
	"system down",
	"unable to login",
	"security breach",
	"data loss",
}

var defaultCriticalKeywords = []string{
	"system down",
	"service unavailable",
	"payment failed multiple times",
	"charged twice",
	"security breach",
	"data loss",
}

var defaultHighKeywords = []string{
	"unable to login",
	"account locked",
	"error",
	"crash",
	"checkout failed",
}

// Keywords holds the ordered phrase lists used for urgency extraction and
// priority overrides. Order matters: the first matching entry wins.
type Keywords struct {
	UrgencyPhrases   []string `yaml:"urgency_phrases"`
	CriticalKeywords []string `yaml:"critical_keywords"`
	HighKeywords     []string `yaml:"high_keywords"`
}

// DefaultKeywords returns a fresh copy of the built-in lists.
func DefaultKeywords() Keywords {
	return Keywords{
		UrgencyPhrases:   append([]string(nil), defaultUrgencyPhrases...),
		CriticalKeywords: append([]string(nil), defaultCriticalKeywords...),
		HighKeywords:     append([]string(nil), defaultHighKeywords...),
	}
}

// LoadKeywords reads extra phrases from a YAML file and appends them after
// the built-in lists. An empty path yields the defaults.
func LoadKeywords(path string) (Keywords, error) {
	kw := DefaultKeywords()
	if strings.TrimSpace(path) == "" {
		return kw, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, errors.Wrap(err, "read keywords")
	}
	var extra Keywords
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return Keywords{}, errors.Wrap(err, "parse keywords yaml")
	}
	return kw.Merge(extra), nil
}

// Merge appends the phrases of extra that are not already present.
// Phrases are lower-cased and trimmed; blanks are dropped.
func (k Keywords) Merge(extra Keywords) Keywords {
	return Keywords{
		UrgencyPhrases:   mergePhrases(k.UrgencyPhrases, extra.UrgencyPhrases),
		CriticalKeywords: mergePhrases(k.CriticalKeywords, extra.CriticalKeywords),
		HighKeywords:     mergePhrases(k.HighKeywords, extra.HighKeywords),
	}
}

func mergePhrases(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, phrase := range list {
			phrase = normalizeTextToken(phrase)
			if phrase == "" || seen[phrase] {
				continue
			}
			seen[phrase] = true
			out = append(out, phrase)
		}
	}
	return out
}

func normalizeTextToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// firstMatch returns the first phrase contained in text, which must
// already be lower-cased.
func firstMatch(text string, phrases []string) (string, bool) {
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(text, phrase) {
			return phrase, true
		}
	}
	return "", false
}
