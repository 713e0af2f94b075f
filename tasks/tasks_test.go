package tasks

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/offline-cache/offline-cache/fetcher"
	"github.com/offline-cache/offline-cache/notify"
	record "github.com/offline-cache/offline-cache/pkg/response-record"
	"github.com/offline-cache/offline-cache/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	shown []notify.Notification
}

func (s *recordingSink) Show(ctx context.Context, n notify.Notification) error {
	s.shown = append(s.shown, n)
	return nil
}

func (s *recordingSink) Close(ctx context.Context, id uuid.UUID) error {
	return nil
}

func newCoordinator(t *testing.T) (*Coordinator, *store.Memory, *fetcher.Mock, *recordingSink) {
	t.Helper()
	st := store.NewMemory()
	f := fetcher.NewMock()
	sink := &recordingSink{}
	c := NewCoordinator(Config{
		Store:         st,
		Fetcher:       f,
		Sink:          sink,
		SyncNamespace: "sync-v1",
		APINamespace:  "api-v1",
		SyncEndpoint:  "/api/v1/notes",
		WeatherPath:   "/api/v1/locations",
	})
	return c, st, f, sink
}

func TestSyncSubmitsStagedPayload(t *testing.T) {
	c, st, f, sink := newCoordinator(t)
	require.NoError(t, st.Put("sync-v1", OutboxKey, []byte(`{"note":"offline edit"}`)))
	f.Respond("/api/v1/notes", 201, nil, []byte(`{"id":1}`))

	c.RunOneShot(context.Background(), TagSyncNotes)

	// staged entry deleted on success
	_, ok, err := st.Get("sync-v1", OutboxKey)
	require.NoError(t, err)
	require.False(t, ok)

	// payload was submitted as-is
	reqs := f.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodPost, reqs[0].Method)
	body, _ := io.ReadAll(reqs[0].Body)
	require.JSONEq(t, `{"note":"offline edit"}`, string(body))

	// user-visible confirmation
	require.Len(t, sink.shown, 1)
	require.Equal(t, "sync-confirmation", sink.shown[0].Tag)
}

func TestSyncKeepsStagedPayloadOnFailure(t *testing.T) {
	c, st, f, sink := newCoordinator(t)
	require.NoError(t, st.Put("sync-v1", OutboxKey, []byte(`{"note":"x"}`)))
	f.SetOffline(true)

	c.RunOneShot(context.Background(), TagSyncNotes)

	_, ok, err := st.Get("sync-v1", OutboxKey)
	require.NoError(t, err)
	require.True(t, ok, "staged payload must survive a failed sync")
	require.Empty(t, sink.shown)

	// connectivity restored, next trigger succeeds
	f.SetOffline(false)
	f.Respond("/api/v1/notes", 200, nil, nil)
	c.RunOneShot(context.Background(), TagSyncNotes)

	_, ok, _ = st.Get("sync-v1", OutboxKey)
	require.False(t, ok)
	require.Len(t, sink.shown, 1)
}

func TestSyncWithNothingStagedIsNoop(t *testing.T) {
	c, _, f, sink := newCoordinator(t)

	c.RunOneShot(context.Background(), TagSyncNotes)
	c.RunOneShot(context.Background(), TagSyncNotes)

	require.Empty(t, f.Requests(), "no network traffic without a staged payload")
	require.Empty(t, sink.shown)
}

func TestSyncErrorStatusKeepsPayload(t *testing.T) {
	c, st, f, _ := newCoordinator(t)
	require.NoError(t, st.Put("sync-v1", OutboxKey, []byte(`{}`)))
	f.Respond("/api/v1/notes", 500, nil, nil)

	c.RunOneShot(context.Background(), TagSyncNotes)

	_, ok, _ := st.Get("sync-v1", OutboxKey)
	require.True(t, ok)
}

func TestUnknownTagsAreIgnored(t *testing.T) {
	c, _, f, _ := newCoordinator(t)
	c.RunOneShot(context.Background(), "sync-photos")
	c.RunPeriodic(context.Background(), "update-news")
	require.Empty(t, f.Requests())
}

func TestWeatherRefreshOverwritesCacheKey(t *testing.T) {
	c, st, f, _ := newCoordinator(t)
	f.Respond("/api/v1/locations", 200, nil, []byte(`[{"city":"Helsinki"}]`))

	c.RunPeriodic(context.Background(), TagUpdateWeather)

	b, ok, err := st.Get("api-v1", "/api/v1/locations")
	require.NoError(t, err)
	require.True(t, ok)
	rec, err := record.FromBytes(b)
	require.NoError(t, err)
	require.Equal(t, `[{"city":"Helsinki"}]`, string(rec.Body))
}

func TestWeatherRefreshFailureLeavesCacheUntouched(t *testing.T) {
	c, st, f, _ := newCoordinator(t)
	stale, err := record.ToBytes(record.Record{StatusCode: 200, Body: []byte("stale")})
	require.NoError(t, err)
	require.NoError(t, st.Put("api-v1", "/api/v1/locations", stale))

	f.SetOffline(true)
	c.RunPeriodic(context.Background(), TagUpdateWeather)

	b, ok, _ := st.Get("api-v1", "/api/v1/locations")
	require.True(t, ok)
	rec, err := record.FromBytes(b)
	require.NoError(t, err)
	require.Equal(t, "stale", string(rec.Body))

	// a non-success refresh is equally ignored
	f.SetOffline(false)
	f.Respond("/api/v1/locations", 502, nil, []byte("bad gateway"))
	c.RunPeriodic(context.Background(), TagUpdateWeather)

	b, _, _ = st.Get("api-v1", "/api/v1/locations")
	rec, _ = record.FromBytes(b)
	require.Equal(t, "stale", string(rec.Body))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	c := NewCoordinator(Config{Schedule: "not a cron spec"})
	require.Error(t, c.Start())
}

func TestStartAndStop(t *testing.T) {
	c, _, _, _ := newCoordinator(t)
	require.NoError(t, c.Start())
	c.Stop()
}
