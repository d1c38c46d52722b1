package doi

import (
	"errors"
	"fmt"
)

// Common errors returned by the lookup client.
var (
	// ErrRateLimited indicates retries were exhausted against HTTP 429.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNotFound indicates the primary citation service has no record
	// for the DOI.
	ErrNotFound = errors.New("DOI not found")

	// ErrNoCandidates indicates a metadata search returned no items.
	ErrNoCandidates = errors.New("no DOI candidates")

	// ErrNoExactMatch indicates a metadata search returned candidates but
	// none matched the query title exactly after normalization.
	ErrNoExactMatch = errors.New("no exact-match DOI")

	// ErrNoDOIOnPage indicates an arXiv abstract page carries no
	// doi.org link.
	ErrNoDOIOnPage = errors.New("no journal DOI on arXiv page")

	// ErrNetworkError indicates a transport-level failure. Never retried.
	ErrNetworkError = errors.New("network error")
)

// APIError represents a non-success HTTP status from a lookup service.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error indicates a 404 from a lookup service.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates exhausted 429 retries.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
