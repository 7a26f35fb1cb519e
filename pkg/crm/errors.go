package crm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrImmutable           = errors.New("entity collection is immutable")
	ErrRangeMismatch       = errors.New("range does not match the number of entities")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrContentRangeMissing = errors.New("content-range header missing or malformed")
	ErrEntityWithoutID     = errors.New("entity has no ID")
	ErrUnsupportedVersion  = errors.New("unsupported pipeline version")
	ErrUnknownEntityType   = errors.New("unknown entity type")
	ErrConfigRequired      = errors.New("config is required")
	ErrURLRequired         = errors.New("service URL is required")
	ErrPipelineIDRequired  = errors.New("pipeline ID is required")
)

// HTTPError is returned for every response the server answers with a status
// outside 200-399, and for successful responses that lack data the client
// depends on (Err is then set, e.g. to ErrContentRangeMissing).
type HTTPError struct {
	StatusCode int    `json:"status_code" yaml:"status_code"`
	Method     string `json:"method"      yaml:"method"`
	URL        string `json:"url"         yaml:"url"`
	Body       []byte `json:"-"           yaml:"-"`
	ErrorCode  int    `json:"errorcode"   yaml:"errorcode"`
	Message    string `json:"message"     yaml:"message"`
	Err        error  `json:"-"           yaml:"-"`
}

// apiErrorBody is the JSON error document the server sends on failure.
type apiErrorBody struct {
	ErrorCode int    `json:"errorcode"`
	Message   string `json:"message"`
}

// NewHTTPError builds an HTTPError, decoding the API error code and message
// from body when it holds a JSON error document.
func NewHTTPError(method, url string, statusCode int, body []byte) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: statusCode,
		Method:     method,
		URL:        url,
		Body:       body,
	}

	var apiErr apiErrorBody
	if len(body) > 0 && json.Unmarshal(body, &apiErr) == nil {
		httpErr.ErrorCode = apiErr.ErrorCode
		httpErr.Message = apiErr.Message
	}

	return httpErr
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d %s: %s (errorcode: %d)",
			e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Message, e.ErrorCode)
	default:
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// Unwrap returns the underlying cause, if any.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if the error is a 404 from the server.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is a 401 from the server.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// ErrorCode returns the API error code carried by err, if any.
func ErrorCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.ErrorCode, true
	}

	return 0, false
}

func hasStatus(err error, status int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == status
	}

	return false
}
