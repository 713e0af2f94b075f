// Package offlinecache implements an offline-first request interception and
// multi-policy cache engine. Every intercepted GET request is classified into
// a caching policy class; each class has its own read/write protocol against
// versioned named cache namespaces, with deterministic fallbacks when the
// network is unavailable.
package offlinecache

import (
	"net/http"
	"sync"

	"github.com/offline-cache/offline-cache/fetcher"
	requestkey "github.com/offline-cache/offline-cache/pkg/request-key"
	record "github.com/offline-cache/offline-cache/pkg/response-record"
	"github.com/offline-cache/offline-cache/store"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Generation is the set of namespace names considered current.
// Bumping a version string abandons the old namespace for deletion on the
// next activation; that is the only eviction mechanism in the engine.
type Generation struct {
	// Main holds precached assets, navigations, and static resources.
	Main string `yaml:"main"`
	// API holds cached API responses.
	API string `yaml:"api"`
	// Sync stages outgoing payloads for the one-shot sync task.
	// Not part of the activation allow-list: staged payloads do not
	// survive a generation rollover.
	Sync string `yaml:"sync"`
}

// current returns the activation allow-list.
func (g Generation) current() []string {
	return []string{g.Main, g.API}
}

type Config struct {
	// Storage for cache namespaces.
	Store store.Provider
	// Network-fetch capability supplied by the host.
	Fetcher fetcher.Fetcher
	// The namespace names current at this build.
	Generation Generation
	// URL path prefixes classified as API requests.
	APIPrefixes []string
	// Ordered asset paths fetched into the main namespace at install time.
	Precache []string
	// Path of the offline fallback document served to navigations.
	// Defaults to "/offline.html".
	OfflinePath string
	// Path of the root document, the last-resort navigation fallback.
	// Defaults to "/".
	RootPath string
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
}

// Engine is the strategy dispatch and cache lifecycle engine.
// It implements http.Handler: every request served through it is
// intercepted, classified, and answered by the matching strategy.
type Engine struct {
	store       store.Provider
	fetch       fetcher.Fetcher
	generation  Generation
	apiPrefixes []string
	precache    []string
	offlinePath string
	rootPath    string
	log         zerolog.Logger
	revalidate  singleflight.Group
	background  sync.WaitGroup
}

// New initializes the engine instance.
func New(config Config) *Engine {
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}
	logger = logger.With().
		Str("generation", config.Generation.Main).
		Logger()

	e := &Engine{
		store:       config.Store,
		fetch:       config.Fetcher,
		generation:  config.Generation,
		apiPrefixes: config.APIPrefixes,
		precache:    config.Precache,
		offlinePath: config.OfflinePath,
		rootPath:    config.RootPath,
		log:         logger,
	}
	if e.offlinePath == "" {
		e.offlinePath = "/offline.html"
	}
	if e.rootPath == "" {
		e.rootPath = "/"
	}
	return e
}

// ServeHTTP implements the http.Handler interface.
// It is the main entry point for request interception.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch e.classify(r) {
	case ClassBypass:
		e.bypass(w, r)
	case ClassAPI:
		e.serveAPI(w, r)
	case ClassNavigation:
		e.serveNavigation(w, r)
	case ClassStatic:
		e.serveStatic(w, r)
	}
}

// Wait blocks until all detached background work (revalidation fetches)
// has finished. Hosts should call it before shutting down; tests use it to
// observe refresh completion.
func (e *Engine) Wait() {
	e.background.Wait()
}

// bypass forwards the request to the network untouched.
func (e *Engine) bypass(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Status", "Offline-Cache; fwd=bypass")
	res, err := e.fetch.Fetch(r)
	if err != nil {
		e.log.Debug().Err(err).Str("url", r.URL.String()).Msg("Bypass fetch failed")
		http.Error(w, "Could not get response", http.StatusBadGateway)
		return
	}
	rec, err := record.FromResponse(res)
	if err != nil {
		http.Error(w, "Could not read response", http.StatusBadGateway)
		return
	}
	e.send(w, rec, "")
}

// getRecord reads a record from the store. A storage failure or a corrupted
// entry is treated as a cache miss; propagating it up would turn a miss into
// a fetch failure for the end user.
func (e *Engine) getRecord(namespace, key string) (record.Record, bool) {
	b, ok, err := e.store.Get(namespace, key)
	if err != nil {
		e.log.Error().Err(err).Str("namespace", namespace).Str("key", key).Msg("Could not read from cache")
		return record.Record{}, false
	}
	if !ok {
		return record.Record{}, false
	}
	rec, err := record.FromBytes(b)
	if err != nil {
		// corrupted entry, delete it and report a miss
		e.log.Error().Err(err).Str("namespace", namespace).Str("key", key).Msg("Could not decode cached record")
		e.store.Delete(namespace, key)
		return record.Record{}, false
	}
	return rec, true
}

// putRecord writes a record to the store. Storage failures are caught here
// and logged; the caller proceeds as if the write had succeeded.
func (e *Engine) putRecord(namespace, key string, rec record.Record) {
	b, err := record.ToBytes(rec)
	if err == nil {
		err = e.store.Put(namespace, key, b)
	}
	if err != nil {
		e.log.Error().Err(err).Str("namespace", namespace).Str("key", key).Msg("Could not write to cache")
		return
	}
	e.log.Trace().Str("namespace", namespace).Str("key", key).Msg("Cache write")
}

// send writes a record to the client.
func (e *Engine) send(w http.ResponseWriter, rec record.Record, cacheStatus string) {
	copyHeader(w.Header(), rec.Header)
	if cacheStatus != "" {
		w.Header().Add("Cache-Status", "Offline-Cache; "+cacheStatus)
	}
	w.WriteHeader(rec.StatusCode)
	if _, err := w.Write(rec.Body); err != nil {
		e.log.Error().Err(err).Msg("Could not write response body to client")
	}
}

// keyFor returns the normalized cache key for a request.
func keyFor(r *http.Request) string {
	return requestkey.ForRequest(r)
}

// isSuccess reports whether a status code allows the response to be cached.
// Redirects, client errors, and server errors are never written to cache so
// a transient failure cannot poison it for subsequent requests.
func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
