package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrMalformedResponse is returned when a 2xx response carries no usable text.
var ErrMalformedResponse = errors.New("malformed response from model")

// ErrorClass groups failures by how the caller should react.
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	// ClassQuota means the key is rate limited or out of quota; try another key.
	ClassQuota
	// ClassInvalidKey means the key was rejected.
	ClassInvalidKey
	// ClassTransient covers server side failures.
	ClassTransient
	// ClassMalformed covers bad requests and unusable responses.
	ClassMalformed
	// ClassNetwork covers timeouts and connection failures.
	ClassNetwork
)

func (c ErrorClass) String() string {
	switch c {
	case ClassQuota:
		return "quota"
	case ClassInvalidKey:
		return "invalid_key"
	case ClassTransient:
		return "transient"
	case ClassMalformed:
		return "malformed"
	case ClassNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// APIError is a non-2xx response from the model endpoint.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini API error: status %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini API error: status %d: %s", e.StatusCode, e.Message)
}

// Class maps the response to an ErrorClass. Quota wins over everything
// else because a 403 can also mean an exhausted project.
func (e *APIError) Class() ErrorClass {
	text := strings.ToLower(e.Message + " " + e.Status)
	quotaWords := strings.Contains(text, "quota") || strings.Contains(text, "exceeded") || strings.Contains(text, "resource_exhausted")

	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return ClassQuota
	case quotaWords:
		return ClassQuota
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ClassInvalidKey
	case e.StatusCode == http.StatusBadRequest &&
		(strings.Contains(text, "api key") || strings.Contains(text, "api_key")):
		return ClassInvalidKey
	case e.StatusCode >= 500:
		return ClassTransient
	default:
		return ClassMalformed
	}
}

// Classify returns the class of any error produced by GeminiClient.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class()
	}
	if errors.Is(err, ErrMalformedResponse) {
		return ClassMalformed
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return ClassNetwork
	}
	return ClassUnknown
}

// IsQuota reports whether err means the active key should be rotated out.
func IsQuota(err error) bool { return Classify(err) == ClassQuota }
