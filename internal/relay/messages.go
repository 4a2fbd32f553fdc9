package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// failureMessage turns a backend error body into one line for the browser.
// Validation errors are flattened in the order the backend sent them and
// joined with ". ". Otherwise message, then title, then fallback is used.
// A body that is not a JSON object is an error.
func failureMessage(body []byte, fallback string) (string, error) {
	var envelope struct {
		Message string          `json:"message"`
		Title   string          `json:"title"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode backend error: %w", err)
	}

	if len(envelope.Errors) > 0 && !bytes.Equal(envelope.Errors, []byte("null")) {
		msgs, err := flattenErrors(envelope.Errors)
		if err != nil {
			return "", err
		}
		return strings.Join(msgs, ". "), nil
	}

	switch {
	case envelope.Message != "":
		return envelope.Message, nil
	case envelope.Title != "":
		return envelope.Title, nil
	}
	return fallback, nil
}

// flattenErrors walks {"field": ["a","b"], ...} with a streaming decoder so
// key order is kept. Scalar values count as one message.
func flattenErrors(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("errors must be an object")
	}

	var msgs []string
	for dec.More() {
		if _, err := dec.Token(); err != nil { // key
			return nil, err
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		switch v := value.(type) {
		case []interface{}:
			for _, item := range v {
				msgs = append(msgs, fmt.Sprint(item))
			}
		default:
			msgs = append(msgs, fmt.Sprint(v))
		}
	}
	return msgs, nil
}
