package pipeline

import (
	"encoding/json"
	"strings"
)

// Format error messages surfaced in the report.
const (
	MsgUnparsableJSON = "AI response format error: Could not parse JSON content."
	MsgNoJSONObject   = "AI response format error: No JSON object found."
	MsgInvalidJSON    = "AI response JSON structure is invalid after parsing."
)

// FormatError reports a research reply that did not yield a JSON object.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string { return e.Message }

// ExtractJSON parses a research reply into a JSON object. The whole text is
// tried first; failing that, the span from the first '{' to the last '}'.
// Nothing more lenient is attempted.
func ExtractJSON(text string) (map[string]any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, &FormatError{Message: MsgNoJSONObject}
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
			return nil, &FormatError{Message: MsgUnparsableJSON}
		}
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, &FormatError{Message: MsgInvalidJSON}
	}
	return obj, nil
}
