package garmin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/velosync/velosync-cli/internal/core/domain"
)

// ErrNoTicket indicates the SSO response carried no service ticket,
// usually meaning the credentials were rejected.
var ErrNoTicket = errors.New("garmin: no service ticket in SSO response")

// APIError represents a Garmin Connect API error response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("garmin: API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("garmin: API error %d", e.StatusCode)
}

// classifyStatus maps an HTTP failure onto the domain error the
// orchestrator's retry state machine keys on.
func classifyStatus(status int, message string) error {
	apiErr := &APIError{StatusCode: status, Message: message}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrAuthExpired, apiErr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, apiErr)
	default:
		return apiErr
	}
}
