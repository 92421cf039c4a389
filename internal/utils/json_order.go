package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Member is a single key/value pair of a JSON object.
type Member struct {
	Key   string
	Value json.RawMessage
}

// ObjectMembers decodes a JSON object into its members, preserving the
// order in which they appear in the document. encoding/json maps lose
// that order, and the fare API contract depends on it: the calendar
// endpoint's first entry and the city-directions listing order are
// both taken as returned.
func ObjectMembers(data []byte) ([]Member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read object start: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var members []Member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode value for %q: %w", key, err)
		}
		members = append(members, Member{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read object end: %w", err)
	}

	return members, nil
}
