package domain

// RawRecord is an untrusted classification as produced by a generative
// backend or the heuristic classifier. Keys and value types are not checked.
type RawRecord = map[string]any

const (
	CategoryBilling   = "Billing"
	CategoryTechnical = "Technical"
	CategoryAccount   = "Account"
	CategoryGeneral   = "General"
	CategoryOther     = "Other"
)

const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// Record field keys, in schema order.
const (
	FieldCategory            = "category"
	FieldPriority            = "priority"
	FieldIssueSummary        = "issue_summary"
	FieldImpactedModule      = "impacted_module"
	FieldUrgencyIndicators   = "urgency_indicators"
	FieldSuggestedNextAction = "suggested_next_action"
	FieldReasoning           = "reasoning"
)

// Fields lists the record keys in schema order.
var Fields = []string{
	FieldCategory,
	FieldPriority,
	FieldIssueSummary,
	FieldImpactedModule,
	FieldUrgencyIndicators,
	FieldSuggestedNextAction,
	FieldReasoning,
}

var validCategories = map[string]bool{
	CategoryBilling:   true,
	CategoryTechnical: true,
	CategoryAccount:   true,
	CategoryGeneral:   true,
	CategoryOther:     true,
}

var validPriorities = map[string]bool{
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
	PriorityCritical: true,
}

func IsValidCategory(s string) bool { return validCategories[s] }

func IsValidPriority(s string) bool { return validPriorities[s] }

// ClassificationRecord is the schema-conformant triage result. Field order
// matches the JSON output.
type ClassificationRecord struct {
	Category            string   `json:"category"`
	Priority            string   `json:"priority"`
	IssueSummary        string   `json:"issue_summary"`
	ImpactedModule      string   `json:"impacted_module"`
	UrgencyIndicators   []string `json:"urgency_indicators"`
	SuggestedNextAction string   `json:"suggested_next_action"`
	Reasoning           string   `json:"reasoning"`
}

// Clone returns a copy that shares no memory with r.
func (r ClassificationRecord) Clone() ClassificationRecord {
	out := r
	out.UrgencyIndicators = make([]string, len(r.UrgencyIndicators))
	copy(out.UrgencyIndicators, r.UrgencyIndicators)
	return out
}

// Raw converts the record back into its untrusted map form.
func (r ClassificationRecord) Raw() RawRecord {
	indicators := make([]string, len(r.UrgencyIndicators))
	copy(indicators, r.UrgencyIndicators)
	return RawRecord{
		FieldCategory:            r.Category,
		FieldPriority:            r.Priority,
		FieldIssueSummary:        r.IssueSummary,
		FieldImpactedModule:      r.ImpactedModule,
		FieldUrgencyIndicators:   indicators,
		FieldSuggestedNextAction: r.SuggestedNextAction,
		FieldReasoning:           r.Reasoning,
	}
}
