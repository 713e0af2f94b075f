// Package requestkey derives normalized cache keys from requests.
package requestkey

import (
	"net/http"
	"strings"
)

// ForRequest returns the cache key for a request.
// Only GET responses are ever cached, so the key is method-insensitive and
// depends only on the request URI.
func ForRequest(r *http.Request) string {
	return ForPath(r.URL.RequestURI())
}

// ForPath normalizes a request URI into a cache key.
// The fragment is dropped, the query string is kept, and an empty path
// resolves to the root document.
func ForPath(uri string) string {
	if i := strings.IndexByte(uri, '#'); i >= 0 {
		uri = uri[:i]
	}
	if uri == "" {
		return "/"
	}
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	return uri
}
