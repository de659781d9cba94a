// Package errfmt turns failures from the organization backend into the single
// line shown next to a form or list.
package errfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
)

const NetworkErrorMessage = "Network error. Please check your connection."

const generalLabel = "General"

// Format is pure: the same error always renders the same string.
func Format(err error) string {
	if err == nil {
		return ""
	}

	var transportErr *backend.TransportError
	if errors.As(err, &transportErr) {
		return NetworkErrorMessage
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return FormatBody(apiErr.StatusCode, apiErr.Body)
	}

	if appErr, ok := internal.IsAppError(err); ok {
		return appErr.GetDetailedMessage()
	}

	return err.Error()
}

// FormatBody renders a raw error payload returned with the given status.
func FormatBody(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return genericMessage(status)
	}

	if !json.Valid(trimmed) {
		return string(body)
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
	case '{':
		if msg, ok := formatObject(trimmed); ok {
			return msg
		}
	}

	return genericMessage(status)
}

func genericMessage(status int) string {
	return fmt.Sprintf("Server error (status %d)", status)
}

// formatObject walks the object token by token so field entries keep the
// order the backend sent them in.
func formatObject(raw []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return "", false
	}

	var (
		entries  []string
		fallback = map[string]string{}
	)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return "", false
		}

		messages, ok := messagesOf(value)
		if !ok {
			continue
		}

		if key == "detail" || key == "message" {
			text := strings.Join(messages, ", ")
			if _, seen := fallback[key]; !seen && strings.TrimSpace(text) != "" {
				fallback[key] = text
			}
			continue
		}

		label := key
		if key == "non_field_errors" {
			label = generalLabel
		}
		entries = append(entries, label+": "+strings.Join(messages, ", "))
	}

	if len(entries) > 0 {
		return strings.Join(entries, "; "), true
	}
	if detail, ok := fallback["detail"]; ok {
		return detail, true
	}
	if message, ok := fallback["message"]; ok {
		return message, true
	}
	return "", false
}

// messagesOf accepts a string or an array; array elements that are not
// strings are rendered as their JSON text. null values and null elements
// carry no message.
func messagesOf(value json.RawMessage) ([]string, bool) {
	if isNull(value) {
		return nil, false
	}

	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return []string{s}, true
	}

	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, false
	}
	messages := make([]string, 0, len(items))
	for _, item := range items {
		if isNull(item) {
			continue
		}
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			messages = append(messages, text)
			continue
		}
		messages = append(messages, string(bytes.TrimSpace(item)))
	}
	if len(messages) == 0 {
		return nil, false
	}
	return messages, true
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
