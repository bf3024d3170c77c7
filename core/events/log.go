package events

import (
	"log/slog"

	"idxnet/core/types"
)

// broadcastable is satisfied by payloads that carry attribute maps.
type broadcastable interface {
	Event() *types.Event
}

// LogEmitter writes every event as a structured log line. It stands in for a
// subscription bus on nodes that only need the audit trail.
type LogEmitter struct {
	Logger *slog.Logger
}

// Emit implements the Emitter interface.
func (l LogEmitter) Emit(evt Event) {
	if l.Logger == nil || evt == nil {
		return
	}
	payload, ok := evt.(broadcastable)
	if !ok {
		l.Logger.Info("ledger event", slog.String("type", evt.EventType()))
		return
	}
	event := payload.Event()
	args := make([]any, 0, len(event.Attributes)+1)
	args = append(args, slog.String("type", event.Type))
	for key, value := range event.Attributes {
		args = append(args, slog.String(key, value))
	}
	l.Logger.Info("ledger event", args...)
}
