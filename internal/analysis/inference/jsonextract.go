package inference

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON parses a model response into v after stripping the wrapping
// markers models tend to emit: a markdown code fence around the payload
// and escaped newline/quote sequences inside it.
func extractJSON(text string, v interface{}) error {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json\n")
	cleaned = strings.TrimPrefix(cleaned, "```\n")
	cleaned = strings.TrimSuffix(cleaned, "\n```")
	cleaned = strings.ReplaceAll(cleaned, `\n`, "\n")
	cleaned = strings.ReplaceAll(cleaned, `\'`, "'")

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("failed to parse analysis result: %w", err)
	}
	return nil
}
