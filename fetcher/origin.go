package fetcher

import (
	"net/http"
	"net/url"
)

// Origin fetches resources from a single configured origin server.
type Origin struct {
	client *http.Client
	origin *url.URL
}

// NewOrigin creates a fetcher that resolves every request against the given
// origin URL. Origins with paths are not supported.
func NewOrigin(origin *url.URL) *Origin {
	return &Origin{
		origin: origin,
		client: &http.Client{
			// do not follow redirects; redirects are part of the
			// response the engine decides over
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Fetch issues the request against the origin.
func (o *Origin) Fetch(r *http.Request) (*http.Response, error) {
	req, err := http.NewRequest(r.Method, o.origin.String()+r.URL.RequestURI(), r.Body)
	if err != nil {
		return nil, err
	}
	copyHeader(req.Header, r.Header)
	req.Host = o.origin.Host
	req = req.WithContext(r.Context())
	return o.client.Do(req)
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		// strip forwarding headers added by an upstream proxy
		if k != "X-Forwarded-For" && k != "X-Forwarded-Proto" && k != "X-Forwarded-Host" {
			for _, v := range vv {
				dst.Add(k, v)
			}
		}
	}
}
