package catalog

import (
	"strings"
)

// Validator checks the payload of a new record before it is added.
// A returned error that is no *Error is reported as RetCInvalidInput.
type Validator func(payload Payload) error

// RequireTitleAndAuthor rejects payloads with a blank title or author
func RequireTitleAndAuthor(payload Payload) error {
	if strings.TrimSpace(payload.Title) == "" || strings.TrimSpace(payload.Author) == "" {
		return NewError(RetCInvalidInput, "title and author cannot be empty")
	}
	return nil
}

// NoValidation accepts every payload
func NoValidation(Payload) error {
	return nil
}
