package offlinecache

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/offline-cache/offline-cache/notify"
	"github.com/offline-cache/offline-cache/tasks"

	"github.com/go-chi/chi/v5"
)

// Router maps the host-delivered event kinds onto HTTP routes: the message
// channel, push arrival, notification clicks, and the sync triggers. Every
// other request falls through to interception. Capabilities come in as
// parameters rather than ambient globals so tests can substitute them;
// a nil dispatcher or coordinator simply leaves its routes unmounted.
func (e *Engine) Router(dispatcher *notify.Dispatcher, coordinator *tasks.Coordinator) http.Handler {
	r := chi.NewRouter()

	r.Post("/events/message", e.handleMessageRequest)
	if dispatcher != nil {
		r.Post("/events/push", func(w http.ResponseWriter, req *http.Request) {
			payload, err := io.ReadAll(req.Body)
			if err != nil {
				payload = nil
			}
			dispatcher.HandlePush(req.Context(), payload)
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/events/notification-click", func(w http.ResponseWriter, req *http.Request) {
			var ev notify.ClickEvent
			if err := json.NewDecoder(req.Body).Decode(&ev); err != nil {
				e.log.Debug().Err(err).Msg("Malformed click event")
			}
			dispatcher.HandleClick(req.Context(), ev)
			w.WriteHeader(http.StatusNoContent)
		})
	}
	if coordinator != nil {
		r.Post("/events/sync/{tag}", func(w http.ResponseWriter, req *http.Request) {
			coordinator.RunOneShot(req.Context(), chi.URLParam(req, "tag"))
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/events/periodic-sync/{tag}", func(w http.ResponseWriter, req *http.Request) {
			coordinator.RunPeriodic(req.Context(), chi.URLParam(req, "tag"))
			w.WriteHeader(http.StatusNoContent)
		})
	}
	r.Handle("/*", e)

	return r
}

// handleMessageRequest decodes a message, executes it, and writes the reply
// over the response body, which serves as the reply channel.
func (e *Engine) handleMessageRequest(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		e.log.Debug().Err(err).Msg("Malformed message")
	}
	reply := e.HandleMessage(msg)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		e.log.Error().Err(err).Msg("Could not write message reply")
	}
}
