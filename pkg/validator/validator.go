package validator

import (
	"encoding/json"
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// ValidateBroadcast checks a management broadcast request.
func ValidateBroadcast(channel string, message json.RawMessage) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(channel) == "" {
		errs.Add("channel", "Channel is required")
	}

	if len(message) == 0 || !json.Valid(message) {
		errs.Add("message", "Message must be a JSON value")
	}

	return errs
}

// ValidateNotification checks a management notify request.
func ValidateNotification(notification json.RawMessage) ValidationErrors {
	errs := make(ValidationErrors)

	if len(notification) == 0 || !json.Valid(notification) {
		errs.Add("notification", "Notification must be a JSON value")
	}

	return errs
}
