package translation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoTranslation is returned when a generator response carries no usable translation.
var ErrNoTranslation = errors.New("no translation in response")

// ParseTranslation extracts a translated Text from an AI task response. The
// response may be the JSON object itself, a JSON string holding it, or an
// envelope whose "data" field holds either form. Markdown code fences around
// JSON text are ignored.
func ParseTranslation(raw []byte) (Text, error) {
	payload := trimFences(string(raw))

	var s string
	if err := json.Unmarshal([]byte(payload), &s); err == nil {
		payload = trimFences(s)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return Text{}, fmt.Errorf("%w: %w", ErrNoTranslation, err)
	}

	body := []byte(payload)
	if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		body = envelope.Data
		if err := json.Unmarshal(envelope.Data, &s); err == nil {
			body = []byte(trimFences(s))
		}
	}

	var text Text
	if err := json.Unmarshal(body, &text); err != nil {
		return Text{}, fmt.Errorf("%w: %w", ErrNoTranslation, err)
	}
	if text.Headline == "" && text.Description == "" && text.Instruction == "" {
		return Text{}, ErrNoTranslation
	}
	return text, nil
}

// trimFences strips surrounding whitespace and a ```json … ``` fence.
func trimFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
