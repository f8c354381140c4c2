package triage

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"

	"tickettriage/internal/domain"
)

// Normalize turns an untrusted record into a schema-conformant one.
// Missing fields get empty defaults, wrongly typed list values are
// discarded, other values are stringified, and out-of-domain category and
// priority values fall back to Other and Medium.
func Normalize(raw any) (domain.ClassificationRecord, error) {
	var fields map[string]any
	switch m := raw.(type) {
	case map[string]any:
		fields = m
	case map[string]string:
		fields = make(map[string]any, len(m))
		for k, v := range m {
			fields[k] = v
		}
	default:
		return domain.ClassificationRecord{}, errors.Wrapf(ErrInvalidInputType, "classification output must be a mapping, got %T", raw)
	}

	rec := domain.ClassificationRecord{
		Category:            stringField(fields[domain.FieldCategory]),
		Priority:            stringField(fields[domain.FieldPriority]),
		IssueSummary:        stringField(fields[domain.FieldIssueSummary]),
		ImpactedModule:      stringField(fields[domain.FieldImpactedModule]),
		UrgencyIndicators:   listField(fields[domain.FieldUrgencyIndicators]),
		SuggestedNextAction: stringField(fields[domain.FieldSuggestedNextAction]),
		Reasoning:           stringField(fields[domain.FieldReasoning]),
	}

	if !domain.IsValidCategory(rec.Category) {
		rec.Category = domain.CategoryOther
	}
	if !domain.IsValidPriority(rec.Priority) {
		rec.Priority = domain.PriorityMedium
	}
	return rec, nil
}

func stringField(v any) string {
	if v == nil {
		return ""
	}
	return stringify(v)
}

func listField(v any) []string {
	out := []string{}
	switch items := v.(type) {
	case []string:
		out = append(out, items...)
	case []any:
		for _, item := range items {
			if item == nil {
				continue
			}
			out = append(out, stringify(item))
		}
	}
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprint(v)
}
