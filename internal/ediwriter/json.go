package ediwriter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/annis-souames/edifact-generator/internal/edifact"
)

// WriteJSON writes messages as a JSON array with one array of segment tuples
// per message.
func WriteJSON(w io.Writer, messages [][]edifact.Segment, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if messages == nil {
		messages = [][]edifact.Segment{}
	}
	if err := enc.Encode(messages); err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}
	return nil
}
