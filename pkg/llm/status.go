package llm

import (
	"fmt"
	"net/http"
)

// StatusError is a non-2xx reply from a provider's HTTP API.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// ClassifyStatus wraps err with ErrRateLimited or ErrInvalidAPIKey when the
// HTTP status calls for it. Other statuses return err unchanged.
func ClassifyStatus(status int, err error) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrInvalidAPIKey, err)
	}
	return err
}
