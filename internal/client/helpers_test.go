package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	internalhttp "github.com/fivetwenty-io/pipeliner-client/internal/http"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
)

// recordedRequest is what the fake server saw.
type recordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Body     string
}

// fakeServer records requests and answers them with a handler.
type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeServer(t *testing.T, handler http.HandlerFunc) *fakeServer {
	t.Helper()

	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		fs.mu.Lock()
		fs.requests = append(fs.requests, recordedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Body:     string(body),
		})
		fs.mu.Unlock()

		handler(w, r)
	}))
	t.Cleanup(fs.Close)

	return fs
}

func (fs *fakeServer) last() recordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if len(fs.requests) == 0 {
		return recordedRequest{}
	}

	return fs.requests[len(fs.requests)-1]
}

func (fs *fakeServer) count() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return len(fs.requests)
}

func (fs *fakeServer) repository(entityType, collection string, opts ...RepositoryOption) *RestRepository {
	httpClient := internalhttp.NewClient(fs.URL, internalhttp.WithRetryConfig(0, 0, 0))

	return NewRestRepository(httpClient, entityType, collection, opts...)
}

// statusHandler answers every request with status and body.
func statusHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// recordingPublisher keeps published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*crm.EntityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *crm.EntityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return p.err
}
