package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client is the HTTP transport for the REST API. Every request is sent with
// basic auth and retried on connection errors, 429 and 5xx responses.
// Responses outside 200-399 are returned together with a *crm.HTTPError.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	username     string
	password     string
	userAgent    string
	logger       crm.Logger
	debug        bool
	interceptors *crm.InterceptorChain
	limiter      *rate.Limiter
}

// Request represents an HTTP request.
type Request struct {
	Method string
	// Path is appended to the base URL; "" requests the base URL itself.
	Path string
	// Query is encoded with sorted keys. RawQuery, if set, is used verbatim
	// instead.
	Query    url.Values
	RawQuery string
	// Body is JSON-encoded unless it is already a []byte.
	Body    interface{}
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Option configures the client.
type Option func(*Client)

// WithBasicAuth sets the credentials sent with every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithLogger sets the logger.
func WithLogger(logger crm.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig sets the retry policy.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithTimeout sets the timeout of a single attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithInterceptors runs the chain around every request.
func WithInterceptors(chain *crm.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithRateLimit limits outgoing requests to requestsPerSecond, allowing bursts
// of up to burst requests. Retries are not counted separately.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: retryClient,
		userAgent:  constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil && client.debug {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	return client
}

// BaseURL returns the URL every request path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs an HTTP request. For error statuses the response is returned
// along with the error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.baseURL + req.Path

	rawQuery := req.RawQuery
	if rawQuery == "" && len(req.Query) > 0 {
		rawQuery = req.Query.Encode()
	}

	if rawQuery != "" {
		fullURL += "?" + rawQuery
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.username != "" || c.password != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	intercepted := &crm.Request{
		Method:  req.Method,
		Path:    req.Path,
		Query:   rawQuery,
		Headers: httpReq.Header,
		Body:    body,
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	if c.logger != nil && c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	if c.limiter != nil {
		err = c.limiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	// After the last retry the final response, if any, is returned together
	// with the retry error; its status is reported instead.
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil && httpResp == nil {
		_ = c.runResponseInterceptors(ctx, intercepted, &crm.InterceptedResponse{Error: err})

		return nil, fmt.Errorf("executing %s %s: %w", req.Method, fullURL, err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.logger != nil && c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    fullURL,
		})
	}

	var httpErr *crm.HTTPError
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		httpErr = crm.NewHTTPError(req.Method, fullURL, resp.StatusCode, respBody)
	}

	interceptedResp := &crm.InterceptedResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       respBody,
	}
	if httpErr != nil {
		interceptedResp.Error = httpErr
	}

	err = c.runResponseInterceptors(ctx, intercepted, interceptedResp)
	if err != nil {
		return resp, err
	}

	if httpErr != nil {
		return resp, httpErr
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

// GetJSON performs a GET request and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, path string, v interface{}) error {
	resp, err := c.Get(ctx, path, nil)
	if err != nil {
		return err
	}

	err = DecodeJSON(resp.Body, v)
	if err != nil {
		return fmt.Errorf("decoding response of GET %s: %w", path, err)
	}

	return nil
}

// DecodeJSON decodes data into v, keeping numbers as json.Number when v is
// an interface or map so that large IDs keep their precision.
func DecodeJSON(data []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	err := decoder.Decode(v)
	if err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}

	return nil
}

func (c *Client) runResponseInterceptors(
	ctx context.Context,
	req *crm.Request,
	resp *crm.InterceptedResponse,
) error {
	if c.interceptors == nil {
		return nil
	}

	err := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return fmt.Errorf("intercepting response: %w", err)
	}

	return nil
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		return data, nil
	}
}

// leveledLogger reports retry attempts through a crm.Logger.
type leveledLogger struct {
	logger crm.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsOf(keysAndValues))
}

func fieldsOf(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
