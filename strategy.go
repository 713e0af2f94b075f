package offlinecache

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	record "github.com/offline-cache/offline-cache/pkg/response-record"
)

// OfflineFallbackHeader marks a synthesized offline response, distinguishing
// it from a genuine upstream payload.
const OfflineFallbackHeader = "X-Offline-Fallback"

// offlineBody is the structured body synthesized for API requests that can
// be answered neither from the network nor from the cache.
type offlineBody struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// serveAPI is the network-first protocol for API requests: fetch, cache the
// result on success, and fall back to the cached record or a synthesized
// offline body when the network fails.
func (e *Engine) serveAPI(w http.ResponseWriter, r *http.Request) {
	key := keyFor(r)
	if rec, ok := e.fetchAndStore(r, e.generation.API, key); ok {
		e.send(w, rec, "fwd=miss; stored")
		return
	}
	if rec, ok := e.getRecord(e.generation.API, key); ok {
		e.log.Debug().Str("key", key).Msg("Network failed, serving cached API response")
		e.send(w, rec, "hit")
		return
	}
	e.sendOfflineJSON(w)
}

// serveNavigation is the network-first protocol for page loads. On network
// failure the cached offline document is served, then the cached root
// document, before giving up with a synthesized unavailable response.
func (e *Engine) serveNavigation(w http.ResponseWriter, r *http.Request) {
	key := keyFor(r)
	if rec, ok := e.fetchAndStore(r, e.generation.Main, key); ok {
		e.send(w, rec, "fwd=miss; stored")
		return
	}
	for _, fallback := range []string{e.offlinePath, e.rootPath} {
		if rec, ok := e.getRecord(e.generation.Main, fallback); ok {
			e.log.Debug().Str("url", r.URL.String()).Str("fallback", fallback).Msg("Network failed, serving fallback document")
			e.send(w, rec, "hit")
			return
		}
	}
	e.sendUnavailable(w)
}

// serveStatic is the cache-first protocol with background revalidation.
// A cached record is returned immediately and refreshed on a detached
// goroutine; a miss fetches synchronously and falls back to a synthesized
// placeholder on network failure.
func (e *Engine) serveStatic(w http.ResponseWriter, r *http.Request) {
	key := keyFor(r)
	if rec, ok := e.getRecord(e.generation.Main, key); ok {
		e.send(w, rec, "hit")
		e.revalidateDetached(r, key)
		return
	}
	if rec, ok := e.fetchAndStore(r, e.generation.Main, key); ok {
		e.send(w, rec, "fwd=miss; stored")
		return
	}
	if acceptsImage(r) {
		e.sendPlaceholderImage(w)
		return
	}
	e.sendUnavailable(w)
}

// fetchAndStore performs the network fetch for a request and, if the
// response carries an explicit success status, writes it into the given
// namespace under the key. The response is returned whenever the network
// delivered one, cacheable or not; ok is false only on network failure.
func (e *Engine) fetchAndStore(r *http.Request, namespace, key string) (record.Record, bool) {
	res, err := e.fetch.Fetch(r)
	if err != nil {
		e.log.Debug().Err(err).Str("url", r.URL.String()).Msg("Network fetch failed")
		return record.Record{}, false
	}
	rec, err := record.FromResponse(res)
	if err != nil {
		e.log.Debug().Err(err).Str("url", r.URL.String()).Msg("Could not read network response")
		return record.Record{}, false
	}
	if isSuccess(rec.StatusCode) {
		e.putRecord(namespace, key, rec)
	}
	return rec, true
}

// revalidateDetached refreshes a cached static entry without blocking the
// response already sent to the client. Concurrent refreshes of the same key
// are collapsed; failures are swallowed after logging.
func (e *Engine) revalidateDetached(r *http.Request, key string) {
	req := r.Clone(context.Background())
	req.Body = nil
	e.background.Add(1)
	go func() {
		defer e.background.Done()
		_, err, _ := e.revalidate.Do(key, func() (interface{}, error) {
			res, err := e.fetch.Fetch(req)
			if err != nil {
				return nil, err
			}
			rec, err := record.FromResponse(res)
			if err != nil {
				return nil, err
			}
			if isSuccess(rec.StatusCode) {
				e.putRecord(e.generation.Main, key, rec)
			}
			return nil, nil
		})
		if err != nil {
			e.log.Debug().Err(err).Str("key", key).Msg("Background revalidation failed")
		}
	}()
}

func (e *Engine) sendOfflineJSON(w http.ResponseWriter) {
	body, err := json.Marshal(offlineBody{
		Status:    "offline",
		Message:   "You are offline and no cached data is available",
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		// a fixed struct cannot fail to marshal
		panic(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(OfflineFallbackHeader, "true")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write(body)
}

// placeholderSVG is the inline scalable vector icon served in place of
// unavailable images.
const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" width="96" height="96"><rect width="24" height="24" fill="#e2e8f0"/><circle cx="9" cy="8" r="1.5" fill="#94a3b8"/><path d="M6 16l3.5-4.5 2.5 3 2-2.5L18 16z" fill="#94a3b8"/></svg>`

func (e *Engine) sendPlaceholderImage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set(OfflineFallbackHeader, "true")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(placeholderSVG))
}

func (e *Engine) sendUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(OfflineFallbackHeader, "true")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("Resource unavailable offline"))
}

// acceptsImage reports whether the request's declared accepted content type
// indicates an image.
func acceptsImage(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "image/")
}
