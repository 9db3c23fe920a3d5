package igpsport

import (
	"errors"
	"fmt"
)

// APIError represents an iGPSport API error response. The platform
// wraps results in an envelope whose code is 0 on success; HTTP-level
// failures carry only the status code.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("igpsport: API error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("igpsport: API error %d (code %d)", e.StatusCode, e.Code)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}
