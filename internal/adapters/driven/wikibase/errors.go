package wikibase

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated indicates a write was attempted without a logged-in
// session, i.e. the API handed out the anonymous edit token.
var ErrNotAuthenticated = errors.New("wikibase: not authenticated")

// APIError is an error envelope returned by the action API, or an HTTP
// failure status.
type APIError struct {
	StatusCode int
	Code       string
	Info       string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("wikibase: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("wikibase: %s: %s", e.Code, e.Info)
}

// IsLagged checks if the error asks the client to back off and retry.
func IsLagged(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == "maxlag" || apiErr.StatusCode == 429
	}
	return false
}

// IsBadToken checks if the error indicates an expired edit token.
func IsBadToken(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == "badtoken"
	}
	return false
}

// IsNoSuchEntity checks if the error indicates an unknown entity id.
func IsNoSuchEntity(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == "no-such-entity"
	}
	return false
}
