package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// FormatForCLI formats an error for terminal output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	be, ok := err.(*BookError)
	if !ok {
		be = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", be.Message))
	if be.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", be.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", be.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error, used as the data
// payload of daemon error responses.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	be, ok := err.(*BookError)
	if !ok {
		be = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       be.Code,
		Message:    be.Message,
		Category:   string(be.Category),
		Severity:   string(be.Severity),
		Details:    be.Details,
		Suggestion: be.Suggestion,
		Retryable:  be.Retryable,
	}
	if be.Cause != nil {
		je.Cause = be.Cause.Error()
	}

	return json.Marshal(je)
}

// FormatForLog returns slog-ready key-value pairs for err.
func FormatForLog(err error) []any {
	if err == nil {
		return nil
	}

	be, ok := err.(*BookError)
	if !ok {
		return []any{"error", err.Error()}
	}

	attrs := []any{
		"error_code", be.Code,
		"message", be.Message,
		"category", string(be.Category),
	}
	if be.Cause != nil {
		attrs = append(attrs, "cause", be.Cause.Error())
	}
	for k, v := range be.Details {
		attrs = append(attrs, "detail_"+k, v)
	}
	return attrs
}

// ParseJSON rebuilds a BookError from FormatJSON output. The cause, if any,
// comes back as a plain error carrying the original message.
func ParseJSON(data []byte) (*BookError, error) {
	var je jsonError
	if err := json.Unmarshal(data, &je); err != nil {
		return nil, fmt.Errorf("failed to decode error: %w", err)
	}
	if je.Code == "" {
		return nil, fmt.Errorf("failed to decode error: missing code")
	}

	be := New(je.Code, je.Message, nil)
	be.Details = je.Details
	be.Suggestion = je.Suggestion
	be.Retryable = je.Retryable
	if je.Cause != "" {
		be.Cause = stderrors.New(je.Cause)
	}
	return be, nil
}
