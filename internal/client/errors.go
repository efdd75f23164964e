package client

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is a non-success response from a backend.
type APIError struct {
	Vendor     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Vendor, e.StatusCode, e.Body)
}

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// overloadMarkers are the substrings that mark a transient backend failure.
var overloadMarkers = []string{"503", "UNAVAILABLE", "overloaded"}

// IsOverloaded reports whether err is a transient overload worth retrying.
// The check is on the error text so it covers every vendor's wording.
func IsOverloaded(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range overloadMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// StatusCode returns the HTTP status of an APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
