package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"tickettriage/internal/domain"
)

const maxLoggedResponseChars = 512

// parseTriageResponse decodes the model's JSON object. Markdown fences are
// tolerated; any other shape is an error.
func parseTriageResponse(responseText string) (domain.RawRecord, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var raw map[string]any
	if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing triage response (truncated response: %s)", truncate(responseText))
	}
	if raw == nil {
		return nil, errors.New("triage response was null")
	}
	return raw, nil
}

func truncate(s string) string {
	if len(s) <= maxLoggedResponseChars {
		return s
	}
	return s[:maxLoggedResponseChars] + fmt.Sprintf("... [truncated, total_length=%d]", len(s))
}
