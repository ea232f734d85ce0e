package enricher

import (
	"errors"
	"fmt"
)

// ErrRiderNotFound is returned when neither the profile URL nor the search
// fallback locates a rider.
var ErrRiderNotFound = errors.New("rider not found")

// StatusError reports a response whose status code was not 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}
