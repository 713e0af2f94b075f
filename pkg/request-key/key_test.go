package requestkey

import (
	"net/http"
	"testing"
)

func TestForPath(t *testing.T) {
	cases := map[string]string{
		"":                       "/",
		"/":                      "/",
		"/api/v1/notes":          "/api/v1/notes",
		"/api/v1/notes?page=2":   "/api/v1/notes?page=2",
		"/index.html#section":    "/index.html",
		"styles/main.css":        "/styles/main.css",
		"/api/v1/notes?q=a#frag": "/api/v1/notes?q=a",
	}
	for in, want := range cases {
		if got := ForPath(in); got != want {
			t.Errorf("ForPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestForRequestIsMethodInsensitive(t *testing.T) {
	get, _ := http.NewRequest("GET", "/api/v1/notes?page=2", nil)
	head, _ := http.NewRequest("HEAD", "/api/v1/notes?page=2", nil)
	if ForRequest(get) != ForRequest(head) {
		t.Fatal("keys differ by method")
	}
	if ForRequest(get) != "/api/v1/notes?page=2" {
		t.Fatalf("key is %q", ForRequest(get))
	}
}
