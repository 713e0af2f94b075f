// Package fetcher provides the network-fetch capability used by the engine.
// The host supplies a Fetcher; the engine never talks to the network through
// anything else, which keeps every strategy testable with the mock.
package fetcher

import "net/http"

// Fetcher performs a network request and returns the response, or fails.
// The returned response body is a one-shot stream; callers that need the
// bytes more than once must buffer them.
type Fetcher interface {
	Fetch(r *http.Request) (*http.Response, error)
}
