package azuredevops

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyOrganization is returned when a client is created without an organization
	ErrEmptyOrganization = errors.New("the Azure Devops organization is required")

	// ErrProjectCreationFailed is returned when Azure Devops rejects a project creation request
	ErrProjectCreationFailed = errors.New("project creation failed")

	// ErrGroupTriggerFailed is returned when the disposable resource that provisions an administrators group could not be created
	ErrGroupTriggerFailed = errors.New("could not trigger administrators group creation")

	// ErrMissingField is returned when a response does not contain an expected field
	ErrMissingField = errors.New("missing field in response")

	// ErrOperationFailed is returned when a long running operation finishes without succeeding
	ErrOperationFailed = errors.New("operation did not succeed")
)

// HTTPError is returned when an HTTP response does not return a 2xx status code
type HTTPError struct {
	StatusCode int

	Method string

	Endpoint string

	// Body is the raw response body, usually an Error document
	Body []byte

	RetryAfter *time.Duration
}

// NewHTTPError returns an HTTPError
func NewHTTPError(response *http.Response, body []byte) *HTTPError {
	var retryAfter *time.Duration
	if response.StatusCode == http.StatusTooManyRequests || response.StatusCode == http.StatusServiceUnavailable {
		if seconds, err := strconv.Atoi(response.Header.Get("Retry-After")); err == nil {
			retryAfterVal := time.Duration(seconds) * time.Second
			retryAfter = &retryAfterVal
		}
	}

	httpErr := &HTTPError{
		StatusCode: response.StatusCode,
		Body:       body,
		RetryAfter: retryAfter,
	}
	if response.Request != nil {
		httpErr.Method = response.Request.Method
		httpErr.Endpoint = response.Request.URL.Path
	}
	return httpErr
}

func (err HTTPError) Error() string {
	if apiErr := err.APIError(); apiErr != nil && apiErr.Message != "" {
		return fmt.Sprintf("Error - received HTTP status code %d when calling %s %s: %s", err.StatusCode, err.Method, err.Endpoint, apiErr.Message)
	}
	return fmt.Sprintf("Error - received HTTP status code %d when calling %s %s", err.StatusCode, err.Method, err.Endpoint)
}

// APIError parses the response body as an Azure Devops error document.
// Returns nil if the body is not one.
func (err HTTPError) APIError() *Error {
	if len(err.Body) == 0 {
		return nil
	}
	apiErr := new(Error)
	if jsonErr := unmarshal(err.Body, apiErr); jsonErr != nil {
		return nil
	}
	return apiErr
}

// IsNotFound checks if the error is an HTTPError with a 404 status code
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusNotFound
	}
	return false
}
