package triage

import (
	"strings"

	"tickettriage/internal/domain"
)

type heuristicRule struct {
	anyOf     []string
	category  string
	priority  string
	summary   string
	module    string
	action    string
	reasoning string
}

// Evaluated in order; the first rule with a matching phrase wins. The last
// rule has no phrases and always matches.
var heuristicRules = []heuristicRule{
	{
		anyOf:     []string{"payment"},
		category:  domain.CategoryBilling,
		priority:  domain.PriorityHigh,
		summary:   "Payment related issue",
		module:    "Payments",
		action:    "Check payment logs",
		reasoning: "Heuristic classification based on payment-related keywords.",
	},
	{
		anyOf:     []string{"crash", "error"},
		category:  domain.CategoryTechnical,
		priority:  domain.PriorityHigh,
		summary:   "Application crash issue",
		module:    "Mobile App",
		action:    "Investigate app crash logs",
		reasoning: "Heuristic classification based on crash/error keywords.",
	},
	{
		anyOf:     []string{"thank", "great job"},
		category:  domain.CategoryGeneral,
		priority:  domain.PriorityLow,
		summary:   "User feedback",
		module:    "General",
		action:    "Send appreciation response",
		reasoning: "Heuristic classification for non-issue feedback.",
	},
	{
		category:  domain.CategoryGeneral,
		priority:  domain.PriorityMedium,
		summary:   "General inquiry",
		module:    "Support",
		action:    "Respond with help article",
		reasoning: "Heuristic classification for general inquiry.",
	},
}

// ClassifyHeuristic is the keyword fallback used when no generative
// backend answers. It uses the built-in urgency vocabulary.
func ClassifyHeuristic(text string) domain.RawRecord {
	return classifyHeuristic(text, DefaultKeywords())
}

func classifyHeuristic(text string, kw Keywords) domain.RawRecord {
	lower := strings.ToLower(text)
	rule := heuristicRules[len(heuristicRules)-1]
	for _, r := range heuristicRules {
		if _, ok := firstMatch(lower, r.anyOf); ok {
			rule = r
			break
		}
	}

	return domain.RawRecord{
		domain.FieldCategory:            rule.category,
		domain.FieldPriority:            rule.priority,
		domain.FieldIssueSummary:        rule.summary,
		domain.FieldImpactedModule:      rule.module,
		domain.FieldUrgencyIndicators:   kw.ExtractUrgency(text),
		domain.FieldSuggestedNextAction: rule.action,
		domain.FieldReasoning:           rule.reasoning,
	}
}
