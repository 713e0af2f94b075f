package fetcher

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
)

// ErrNetworkDown is the error the mock returns while offline.
var ErrNetworkDown = errors.New("network unreachable")

// Mock is a scriptable Fetcher for tests.
// Responses are registered per path; unregistered paths 404.
// Setting Offline makes every fetch fail, as if connectivity was lost.
type Mock struct {
	mu        sync.Mutex
	responses map[string]mockResponse
	requests  []*http.Request
	offline   bool
}

type mockResponse struct {
	status int
	header http.Header
	body   []byte
}

func NewMock() *Mock {
	return &Mock{responses: make(map[string]mockResponse)}
}

// Respond registers a canned response for the given request path.
func (m *Mock) Respond(path string, status int, header http.Header, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if header == nil {
		header = http.Header{}
	}
	m.responses[path] = mockResponse{status: status, header: header, body: body}
}

// SetOffline toggles simulated connectivity loss.
func (m *Mock) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

// Requests returns every request seen so far, including failed ones.
func (m *Mock) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests...)
}

func (m *Mock) Fetch(r *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, r)
	if m.offline {
		return nil, ErrNetworkDown
	}
	res, ok := m.responses[r.URL.Path]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Header:     http.Header{},
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Request:    r,
		}, nil
	}
	return &http.Response{
		StatusCode:    res.status,
		Header:        res.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(res.body)),
		ContentLength: int64(len(res.body)),
		Request:       r,
	}, nil
}
