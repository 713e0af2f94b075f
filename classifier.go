package offlinecache

import (
	"net/http"
	"strings"
)

// RequestClass is the caching policy tag assigned to an intercepted request.
// It is derived deterministically from method, URL, and the navigation flag,
// and is never stored.
type RequestClass int

const (
	// ClassBypass requests are forwarded untouched; nothing non-GET is
	// ever intercepted.
	ClassBypass RequestClass = iota
	// ClassAPI requests are served network-first against the API namespace.
	ClassAPI
	// ClassNavigation requests are top-level page loads, served
	// network-first with document fallbacks.
	ClassNavigation
	// ClassStatic requests are served cache-first with background
	// revalidation.
	ClassStatic
)

func (c RequestClass) String() string {
	switch c {
	case ClassBypass:
		return "bypass"
	case ClassAPI:
		return "api"
	case ClassNavigation:
		return "navigation"
	case ClassStatic:
		return "static"
	}
	return "unknown"
}

// Classify maps a request to its policy class. Pure function, no side
// effects. The priority order is load-bearing: an API-prefixed navigation
// must be API, and a non-GET request to an API prefix must still bypass.
func Classify(method, path string, navigation bool, apiPrefixes []string) RequestClass {
	if method != http.MethodGet {
		return ClassBypass
	}
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(path, prefix) {
			return ClassAPI
		}
	}
	if navigation {
		return ClassNavigation
	}
	return ClassStatic
}

// IsNavigation reports whether the request is a top-level navigation.
// Fetch metadata is authoritative when present; otherwise a GET accepting
// HTML is assumed to be a page load.
func IsNavigation(r *http.Request) bool {
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func (e *Engine) classify(r *http.Request) RequestClass {
	return Classify(r.Method, r.URL.Path, IsNavigation(r), e.apiPrefixes)
}
