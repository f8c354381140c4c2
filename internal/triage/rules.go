package triage

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"tickettriage/internal/domain"
)

// OverrideLevel says which rule list, if any, fired.
type OverrideLevel string

const (
	OverrideNone     OverrideLevel = "none"
	OverrideHigh     OverrideLevel = "high"
	OverrideCritical OverrideLevel = "critical"
)

const noOverrideReason = "No rule-based priority override was required."

// Override describes the outcome of a RuleEngine pass.
type Override struct {
	Level    OverrideLevel
	Keyword  string
	Previous string
}

// RuleEngine escalates priority when the ticket, its summary or its urgency
// indicators contain a critical or high-priority keyword. At most one rule
// fires per record and critical keywords are checked first.
type RuleEngine struct {
	keywords Keywords
}

func NewRuleEngine(kw Keywords) *RuleEngine {
	return &RuleEngine{keywords: kw}
}

// Apply returns a copy of rec with the override applied. rec is not
// modified.
func (e *RuleEngine) Apply(rec domain.ClassificationRecord, ticket string) domain.ClassificationRecord {
	out, _ := e.ApplyWithOutcome(rec, ticket)
	return out
}

func (e *RuleEngine) ApplyWithOutcome(rec domain.ClassificationRecord, ticket string) (domain.ClassificationRecord, Override) {
	out := rec.Clone()
	if out.Priority == "" {
		out.Priority = domain.PriorityMedium
	}
	original := out.Priority

	corpus := strings.ToLower(strings.Join([]string{
		ticket,
		out.IssueSummary,
		strings.Join(out.UrgencyIndicators, " "),
	}, " "))

	if kw, ok := firstMatch(corpus, e.keywords.CriticalKeywords); ok {
		out.Priority = domain.PriorityCritical
		out.Reasoning = appendReasoning(out.Reasoning, fmt.Sprintf("Rule-based override applied due to critical keyword: '%s'.", kw))
		return out, Override{Level: OverrideCritical, Keyword: kw, Previous: original}
	}

	if kw, ok := firstMatch(corpus, e.keywords.HighKeywords); ok {
		out.Priority = domain.PriorityHigh
		out.Reasoning = appendReasoning(out.Reasoning, fmt.Sprintf("Rule-based override applied due to high-priority keyword: '%s'.", kw))
		return out, Override{Level: OverrideHigh, Keyword: kw, Previous: original}
	}

	out.Priority = original
	out.Reasoning = appendReasoning(out.Reasoning, noOverrideReason)
	return out, Override{Level: OverrideNone, Previous: original}
}

// appendReasoning adds sentence to the end of reasoning, separated by one
// space. Existing text is kept byte for byte.
func appendReasoning(reasoning, sentence string) string {
	if reasoning == "" {
		return sentence
	}
	if last, _ := utf8.DecodeLastRuneInString(reasoning); unicode.IsSpace(last) {
		return reasoning + sentence
	}
	return reasoning + " " + sentence
}
