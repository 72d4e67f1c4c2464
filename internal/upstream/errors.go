package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// API identifies one of the two upstream services.
type API string

const (
	APITrading API = "sor"
	APIData    API = "data"
)

func (a API) label() string {
	if a == APIData {
		return "Ranger Data API"
	}
	return "Ranger API"
}

// ErrUnsupportedMethod is returned when the trading API is called with any
// method other than POST. No request is sent.
var ErrUnsupportedMethod = errors.New("unsupported HTTP method")

// HTTPError is a non-2xx upstream response.
type HTTPError struct {
	API    API
	Status int
	// Detail is the message field of a JSON error body, or the raw body text.
	Detail string
}

// Message is the human readable form shown to tool callers.
func (e *HTTPError) Message() string {
	if e.API == APIData {
		return fmt.Sprintf("Ranger Data API Error (%d): %s", e.Status, e.Detail)
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return "Ranger API Error (401): Missing or invalid API key. Check your configuration."
	case http.StatusForbidden:
		return "Ranger API Error (403): Invalid API Key provided."
	case http.StatusTooManyRequests:
		return "Ranger API Error (429): Rate limit exceeded."
	case http.StatusBadRequest:
		return fmt.Sprintf("Ranger API Error (400 Bad Request): %s", e.Detail)
	default:
		return fmt.Sprintf("Ranger API Error (%d): %s", e.Status, e.Detail)
	}
}

func (e *HTTPError) Error() string {
	return e.Message()
}

// NetworkError covers connection failures, timeouts and cancelled contexts.
type NetworkError struct {
	API   API
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Network error calling %s: %v", e.API.label(), e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// ProtocolError is any other failure during the call lifecycle, such as a
// request that cannot be built or a body that is not JSON.
type ProtocolError struct {
	API   API
	Cause error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("Unexpected error interacting with %s: %v", e.API.label(), e.Cause)
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// ShapeError is a 2xx response whose payload does not match the declared
// output contract.
type ShapeError struct {
	Endpoint string
	Reason   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("Unexpected response format from %s: %s", e.Endpoint, e.Reason)
}

// StatusClass buckets an error for metrics labels.
func StatusClass(err error) string {
	var httpErr *HTTPError
	var netErr *NetworkError
	var shapeErr *ShapeError
	switch {
	case err == nil:
		return "2xx"
	case errors.As(err, &httpErr):
		return fmt.Sprintf("%dxx", httpErr.Status/100)
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &shapeErr):
		return "shape"
	default:
		return "protocol"
	}
}
