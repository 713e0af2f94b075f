package notify

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ClickMessageType discriminates the message posted to a client after a
// notification click resolves.
const ClickMessageType = "NOTIFICATION_CLICK"

// Action is a button attached to a displayed notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification is a fully resolved notification handed to the display sink.
type Notification struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Icon  string    `json:"icon"`
	Badge string    `json:"badge"`
	// Tag groups notifications; a new notification with the same tag may
	// replace a prior undismissed one. The semantics are platform
	// dependent and not enforced here.
	Tag                string   `json:"tag"`
	Vibrate            []int    `json:"vibrate,omitempty"`
	Actions            []Action `json:"actions,omitempty"`
	RequireInteraction bool     `json:"requireInteraction"`
	Data               Data     `json:"data"`
}

// Sink displays notifications to the user.
type Sink interface {
	Show(ctx context.Context, n Notification) error
	Close(ctx context.Context, id uuid.UUID) error
}

// Client is an open client window.
type Client struct {
	ID  string
	URL string
}

// Clients enumerates and controls open client windows.
type Clients interface {
	// List returns all open windows, including ones not currently under
	// the engine's control.
	List(ctx context.Context) ([]Client, error)
	Focus(ctx context.Context, id string) (Client, error)
	OpenWindow(ctx context.Context, url string) (Client, error)
	PostMessage(ctx context.Context, id string, message any) error
}

// ClickMessage is posted to the focused or opened client.
type ClickMessage struct {
	Type      string `json:"type"`
	Data      Data   `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// ClickEvent describes a user interaction with a displayed notification.
// An empty Action means the notification body itself was clicked.
type ClickEvent struct {
	Notification Notification `json:"notification"`
	Action       string       `json:"action"`
}

// Dispatcher handles push arrival and notification interaction events.
type Dispatcher struct {
	sink    Sink
	clients Clients
	log     zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given display sink and client
// registry. The registry may be nil when no client windows exist; clicks
// then only close the notification.
func NewDispatcher(sink Sink, clients Clients, logger *zerolog.Logger) *Dispatcher {
	var log zerolog.Logger
	if logger == nil {
		log = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		log = *logger
	}
	return &Dispatcher{
		sink:    sink,
		clients: clients,
		log:     log,
	}
}

// HandlePush parses the push payload and displays a notification.
// A parse failure falls back to the default payload; nothing on this path
// fails the push event.
func (d *Dispatcher) HandlePush(ctx context.Context, payload []byte) Notification {
	p := ParsePayload(payload)
	n := Notification{
		ID:      uuid.New(),
		Title:   p.Title,
		Body:    p.Body,
		Icon:    p.Icon,
		Badge:   p.Badge,
		Tag:     p.Tag,
		Vibrate: []int{100, 50, 100},
		Actions: []Action{
			{Action: "open", Title: "Open"},
			{Action: "close", Title: "Close"},
		},
		RequireInteraction: true,
		Data:               p.Data,
	}
	if err := d.sink.Show(ctx, n); err != nil {
		d.log.Error().Err(err).Str("tag", n.Tag).Msg("Could not display notification")
	}
	return n
}

// HandleClick routes a notification click. The notification is always
// closed first, regardless of which action (or none) was chosen; the
// `close` action is treated the same as a bare click. The click message is
// delivered best-effort: a window that cannot be focused or opened never
// raises an error to the event source.
func (d *Dispatcher) HandleClick(ctx context.Context, ev ClickEvent) {
	if err := d.sink.Close(ctx, ev.Notification.ID); err != nil {
		d.log.Debug().Err(err).Msg("Could not close notification")
	}
	if d.clients == nil {
		return
	}

	target := ev.Notification.Data.URL
	if target == "" {
		target = "/"
	}

	client, ok := d.focusOrOpen(ctx, target)
	if !ok {
		return
	}
	msg := ClickMessage{
		Type:      ClickMessageType,
		Data:      ev.Notification.Data,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := d.clients.PostMessage(ctx, client.ID, msg); err != nil {
		d.log.Debug().Err(err).Str("client", client.ID).Msg("Could not post click message")
	}
}

// focusOrOpen focuses the first open window whose URL contains the target
// as a substring, or opens a new window at the target.
func (d *Dispatcher) focusOrOpen(ctx context.Context, target string) (Client, bool) {
	clients, err := d.clients.List(ctx)
	if err != nil {
		d.log.Debug().Err(err).Msg("Could not list clients")
	}
	for _, c := range clients {
		if strings.Contains(c.URL, target) {
			focused, err := d.clients.Focus(ctx, c.ID)
			if err != nil {
				d.log.Debug().Err(err).Str("client", c.ID).Msg("Could not focus client")
				break
			}
			return focused, true
		}
	}
	opened, err := d.clients.OpenWindow(ctx, target)
	if err != nil {
		d.log.Debug().Err(err).Str("url", target).Msg("Could not open window")
		return Client{}, false
	}
	return opened, true
}
