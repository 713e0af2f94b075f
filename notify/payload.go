// Package notify parses push payloads, displays notifications, and routes
// notification clicks to open client windows.
package notify

import (
	"encoding/json"
	"time"
)

// Payload is the structured content of a push message.
// Unrecognized fields are ignored.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
	Tag   string `json:"tag"`
	Data  Data   `json:"data"`
}

// Data is the payload attached to a notification, carried through to the
// client that handles the click.
type Data struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// Defaults returns the engine-defined default payload, used whenever a push
// arrives without data or with data that cannot be parsed.
func Defaults() Payload {
	return Payload{
		Title: "Offline Notes",
		Body:  "You have a new notification",
		Icon:  "/icons/icon-192.png",
		Badge: "/icons/badge-72.png",
		Tag:   "offline-notes",
		Data: Data{
			URL:       "/",
			Timestamp: time.Now().UnixMilli(),
		},
	}
}

// ParsePayload parses push data, merging supplied fields over the defaults.
// The merge is shallow: an explicit field in the payload wins, and a
// supplied data object replaces the default one as a whole. Unparsable data
// yields the defaults unchanged rather than failing the event.
func ParsePayload(b []byte) Payload {
	p := Defaults()
	if len(b) == 0 {
		return p
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return p
	}
	setString(raw, "title", &p.Title)
	setString(raw, "body", &p.Body)
	setString(raw, "icon", &p.Icon)
	setString(raw, "badge", &p.Badge)
	setString(raw, "tag", &p.Tag)
	if rawData, ok := raw["data"]; ok {
		var data Data
		if err := json.Unmarshal(rawData, &data); err == nil {
			p.Data = data
		}
	}
	return p
}

func setString(raw map[string]json.RawMessage, field string, dst *string) {
	rawValue, ok := raw[field]
	if !ok {
		return
	}
	var value string
	if err := json.Unmarshal(rawValue, &value); err == nil {
		*dst = value
	}
}
