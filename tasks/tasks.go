// Package tasks coordinates deferred background work: one-shot sync tasks
// triggered when connectivity is restored, and periodic refresh tasks fired
// on a schedule. Each task's failure is isolated; a failing task never
// prevents other tasks from running or propagates to the triggering event.
package tasks

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/offline-cache/offline-cache/fetcher"
	"github.com/offline-cache/offline-cache/notify"
	requestkey "github.com/offline-cache/offline-cache/pkg/request-key"
	record "github.com/offline-cache/offline-cache/pkg/response-record"
	"github.com/offline-cache/offline-cache/store"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Engine-recognized task tags.
const (
	// TagSyncNotes is the one-shot task submitting a staged payload when
	// connectivity is restored.
	TagSyncNotes = "sync-notes"
	// TagUpdateWeather is the periodic task refreshing the cached
	// locations payload.
	TagUpdateWeather = "update-weather"
)

// OutboxKey is the well-known key the sync payload is staged under in the
// sync namespace.
const OutboxKey = "outbox"

// Config wires the coordinator to its collaborators. The coordinator owns
// no persistent state of its own; it borrows the namespace store to stage
// outgoing payloads.
type Config struct {
	Store   store.Provider
	Fetcher fetcher.Fetcher
	// Sink for user-visible confirmation notifications. Optional.
	Sink notify.Sink
	// Namespace holding staged sync payloads.
	SyncNamespace string
	// Namespace holding cached API responses.
	APINamespace string
	// Path the staged sync payload is submitted to.
	SyncEndpoint string
	// Path of the canonical locations endpoint for the weather refresh.
	WeatherPath string
	// Cron spec for periodic tasks. Defaults to hourly.
	Schedule string
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
}

// Coordinator executes named one-shot and periodic tasks.
type Coordinator struct {
	cfg  Config
	log  zerolog.Logger
	cron *cron.Cron
}

func NewCoordinator(cfg Config) *Coordinator {
	var log zerolog.Logger
	if cfg.Logger == nil {
		log = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		log = *cfg.Logger
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@hourly"
	}
	return &Coordinator{
		cfg: cfg,
		log: log.With().Str("component", "tasks").Logger(),
	}
}

// RunOneShot executes the one-shot task registered for the tag.
// Failures are logged and the staged state is left intact for the next
// trigger; unknown tags are ignored.
func (c *Coordinator) RunOneShot(ctx context.Context, tag string) {
	switch tag {
	case TagSyncNotes:
		if err := c.syncNotes(ctx); err != nil {
			c.log.Error().Err(err).Str("tag", tag).Msg("Sync task failed, staged payload kept for retry")
		}
	default:
		c.log.Debug().Str("tag", tag).Msg("Ignoring unknown sync tag")
	}
}

// RunPeriodic executes the periodic task registered for the tag.
// On failure the existing cached value is left untouched.
func (c *Coordinator) RunPeriodic(ctx context.Context, tag string) {
	switch tag {
	case TagUpdateWeather:
		if err := c.updateWeather(ctx); err != nil {
			c.log.Error().Err(err).Str("tag", tag).Msg("Periodic task failed, cached value left untouched")
		}
	default:
		c.log.Debug().Str("tag", tag).Msg("Ignoring unknown periodic tag")
	}
}

// Start schedules the periodic tasks on the configured cron spec.
func (c *Coordinator) Start() error {
	c.cron = cron.New()
	_, err := c.cron.AddFunc(c.cfg.Schedule, func() {
		c.RunPeriodic(context.Background(), TagUpdateWeather)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", c.cfg.Schedule, err)
	}
	c.cron.Start()
	c.log.Info().Str("schedule", c.cfg.Schedule).Msg("Periodic tasks scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running task to finish.
func (c *Coordinator) Stop() {
	if c.cron == nil {
		return
	}
	<-c.cron.Stop().Done()
}

// syncNotes reads the staged payload and submits it to the network.
// Re-running with nothing staged is a no-op, which makes retries idempotent
// by construction.
func (c *Coordinator) syncNotes(ctx context.Context) error {
	payload, ok, err := c.cfg.Store.Get(c.cfg.SyncNamespace, OutboxKey)
	if err != nil {
		return err
	}
	if !ok {
		c.log.Debug().Msg("No staged payload, nothing to sync")
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SyncEndpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.cfg.Fetcher.Fetch(req)
	if err != nil {
		return err
	}
	rec, err := record.FromResponse(res)
	if err != nil {
		return err
	}
	if !isSuccess(rec.StatusCode) {
		return fmt.Errorf("sync endpoint returned status %d", rec.StatusCode)
	}
	if err := c.cfg.Store.Delete(c.cfg.SyncNamespace, OutboxKey); err != nil {
		// the submit went through; a retry would resubmit, so surface this
		c.log.Error().Err(err).Msg("Could not delete staged payload after sync")
	}
	c.log.Info().Str("endpoint", c.cfg.SyncEndpoint).Msg("Staged payload synced")
	c.confirmSync(ctx)
	return nil
}

// confirmSync surfaces a user-visible confirmation notification.
func (c *Coordinator) confirmSync(ctx context.Context) {
	if c.cfg.Sink == nil {
		return
	}
	n := notify.Notification{
		ID:    uuid.New(),
		Title: "Notes synced",
		Body:  "Your offline changes have been saved",
		Tag:   "sync-confirmation",
		Data:  notify.Data{URL: "/"},
	}
	if err := c.cfg.Sink.Show(ctx, n); err != nil {
		c.log.Debug().Err(err).Msg("Could not display sync confirmation")
	}
}

// updateWeather fetches the canonical locations endpoint and overwrites the
// well-known cache key in the API namespace with the fresh payload.
func (c *Coordinator) updateWeather(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.WeatherPath, nil)
	if err != nil {
		return err
	}
	res, err := c.cfg.Fetcher.Fetch(req)
	if err != nil {
		return err
	}
	rec, err := record.FromResponse(res)
	if err != nil {
		return err
	}
	if !isSuccess(rec.StatusCode) {
		return fmt.Errorf("locations endpoint returned status %d", rec.StatusCode)
	}
	b, err := record.ToBytes(rec)
	if err != nil {
		return err
	}
	key := requestkey.ForPath(c.cfg.WeatherPath)
	if err := c.cfg.Store.Put(c.cfg.APINamespace, key, b); err != nil {
		return err
	}
	c.log.Debug().Str("key", key).Msg("Refreshed cached locations payload")
	return nil
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
