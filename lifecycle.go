package offlinecache

import (
	"context"
	"fmt"
	"net/http"

	requestkey "github.com/offline-cache/offline-cache/pkg/request-key"
	record "github.com/offline-cache/offline-cache/pkg/response-record"
)

// Install fetches every precache asset into the main namespace.
// The step is all-or-nothing: the first failing fetch or write aborts the
// installation and is reported to the caller.
func (e *Engine) Install(ctx context.Context) error {
	for _, path := range e.precache {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		res, err := e.fetch.Fetch(req)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		rec, err := record.FromResponse(res)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		if !isSuccess(rec.StatusCode) {
			return fmt.Errorf("precache %s: status %d", path, rec.StatusCode)
		}
		b, err := record.ToBytes(rec)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		if err := e.store.Put(e.generation.Main, requestkey.ForPath(path), b); err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
	}
	e.log.Info().Int("assets", len(e.precache)).Str("namespace", e.generation.Main).Msg("Installed precache assets")
	return nil
}

// Activate reconciles the namespace store with the current generation:
// every namespace not in the allow-list is deleted. This is the sole
// eviction mechanism; staleness is controlled entirely by namespace
// versioning. Hosts must schedule Activate before starting to serve, though
// serving need not wait for its completion.
func (e *Engine) Activate() error {
	namespaces, err := e.store.Namespaces()
	if err != nil {
		e.log.Error().Err(err).Msg("Could not enumerate namespaces")
		return err
	}
	keep := make(map[string]struct{})
	for _, name := range e.generation.current() {
		keep[name] = struct{}{}
	}
	for _, name := range namespaces {
		if _, ok := keep[name]; ok {
			continue
		}
		if err := e.store.DeleteNamespace(name); err != nil {
			e.log.Error().Err(err).Str("namespace", name).Msg("Could not delete stale namespace")
			continue
		}
		e.log.Debug().Str("namespace", name).Msg("Deleted stale namespace")
	}
	return nil
}
