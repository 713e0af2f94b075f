package offlinecache

import (
	"net/http"
	"testing"
)

var apiPrefixes = []string{"/api/"}

func TestClassifyPriorityOrder(t *testing.T) {
	cases := []struct {
		method     string
		path       string
		navigation bool
		want       RequestClass
	}{
		{"POST", "/api/v1/notes", false, ClassBypass},
		{"PUT", "/styles/main.css", false, ClassBypass},
		// a non-GET to an API prefix still bypasses entirely
		{"POST", "/api/v1/notes", true, ClassBypass},
		{"GET", "/api/v1/notes", false, ClassAPI},
		// an API-prefixed navigation must be API, not navigation
		{"GET", "/api/v1/notes", true, ClassAPI},
		{"GET", "/notes", true, ClassNavigation},
		{"GET", "/styles/main.css", false, ClassStatic},
		{"GET", "/", false, ClassStatic},
	}
	for _, c := range cases {
		if got := Classify(c.method, c.path, c.navigation, apiPrefixes); got != c.want {
			t.Errorf("Classify(%s %s nav=%v) = %s, want %s", c.method, c.path, c.navigation, got, c.want)
		}
	}
}

func TestIsNavigation(t *testing.T) {
	nav, _ := http.NewRequest("GET", "/notes", nil)
	nav.Header.Set("Sec-Fetch-Mode", "navigate")
	if !IsNavigation(nav) {
		t.Error("Sec-Fetch-Mode navigate should be a navigation")
	}

	sub, _ := http.NewRequest("GET", "/app.js", nil)
	sub.Header.Set("Sec-Fetch-Mode", "no-cors")
	if IsNavigation(sub) {
		t.Error("Sec-Fetch-Mode no-cors should not be a navigation")
	}

	// fetch metadata wins over Accept
	sub.Header.Set("Accept", "text/html")
	if IsNavigation(sub) {
		t.Error("fetch metadata should be authoritative")
	}

	legacy, _ := http.NewRequest("GET", "/notes", nil)
	legacy.Header.Set("Accept", "text/html,application/xhtml+xml")
	if !IsNavigation(legacy) {
		t.Error("Accept text/html should fall back to navigation")
	}
}
