package botapi

import (
	"errors"
	"fmt"
)

const (
	ErrorRemoteAPI             = "remote_api_error"
	ErrorInvalidRemoteResource = "invalid_remote_resource"
	ErrorAttachmentNotFound    = "attachment_not_found"
	ErrorMalformedUpdate       = "malformed_update"
	ErrorTransport             = "transport_error"
)

// Error represents a stable, categorized Bot API failure.
type Error struct {
	Category string
	Detail   string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return e.Category
	}

	return fmt.Sprintf("%s: %s", e.Category, e.Detail)
}

// NewError creates a categorized Bot API error.
func NewError(category string, detail string) error {
	return &Error{Category: category, Detail: detail}
}

// CategoryFromError returns the stable category for an error when available.
func CategoryFromError(err error) string {
	if err == nil {
		return ""
	}

	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized.Category
	}

	return ErrorTransport
}
