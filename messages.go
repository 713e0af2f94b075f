package offlinecache

// Message types recognized on the inter-process message channel.
const (
	MessageSkipWaiting  = "SKIP_WAITING"
	MessageClearCache   = "CLEAR_CACHE"
	MessageGetCacheSize = "GET_CACHE_SIZE"
)

// Message is a command delivered to the engine over the message channel.
type Message struct {
	Type string `json:"type"`
}

// Reply is the structured answer delivered over the reply channel.
type Reply struct {
	Success bool   `json:"success,omitempty"`
	Size    *int   `json:"size,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleMessage executes a message and produces its reply.
// Unknown message types get an error reply; no message can fail the engine.
func (e *Engine) HandleMessage(msg Message) Reply {
	switch msg.Type {
	case MessageSkipWaiting:
		// immediate activation
		if err := e.Activate(); err != nil {
			return Reply{Error: "activation failed"}
		}
		return Reply{Success: true}
	case MessageClearCache:
		if err := e.store.DeleteNamespace(e.generation.Main); err != nil {
			e.log.Error().Err(err).Msg("Could not clear cache")
			return Reply{Error: "could not clear cache"}
		}
		e.log.Debug().Str("namespace", e.generation.Main).Msg("Cleared main cache")
		return Reply{Success: true}
	case MessageGetCacheSize:
		size, err := e.store.Count(e.generation.Main)
		if err != nil {
			e.log.Error().Err(err).Msg("Could not count cache entries")
			return Reply{Error: "could not count cache entries"}
		}
		return Reply{Size: &size}
	default:
		e.log.Debug().Str("type", msg.Type).Msg("Ignoring unknown message type")
		return Reply{Error: "unknown message type: " + msg.Type}
	}
}
