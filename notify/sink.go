package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LogSink is a Sink that writes notifications to the log. It is the default
// display for headless hosts, where the UI that reacts to notifications is
// an external collaborator.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(logger *zerolog.Logger) LogSink {
	var log zerolog.Logger
	if logger == nil {
		log = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		log = *logger
	}
	return LogSink{log: log}
}

func (s LogSink) Show(ctx context.Context, n Notification) error {
	s.log.Info().
		Str("id", n.ID.String()).
		Str("tag", n.Tag).
		Str("title", n.Title).
		Str("body", n.Body).
		Str("url", n.Data.URL).
		Msg("Notification displayed")
	return nil
}

func (s LogSink) Close(ctx context.Context, id uuid.UUID) error {
	s.log.Debug().Str("id", id.String()).Msg("Notification closed")
	return nil
}
