package observability

import (
	"log/slog"

	"claimdrop/core/events"
)

// EventSink is the daemon's default event emitter: every portal event is
// logged as a structured line and folded into the prometheus counters.
type EventSink struct {
	logger *slog.Logger
}

// NewEventSink wires an emitter to the service logger. A nil logger falls
// back to the process default.
func NewEventSink(logger *slog.Logger) *EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventSink{logger: logger}
}

// Emit implements the events.Emitter interface.
func (s *EventSink) Emit(evt events.Event) {
	if s == nil || evt == nil {
		return
	}
	record := evt.Record()
	if record == nil {
		return
	}
	attrs := make([]any, 0, 2*len(record.Attributes)+2)
	attrs = append(attrs, slog.String("event", record.Type))
	for key, value := range record.Attributes {
		attrs = append(attrs, slog.String(key, value))
	}
	s.logger.Info("portal event", attrs...)

	metrics := PortalMetrics()
	switch record.Type {
	case events.TypeAirdropClaimed:
		metrics.RecordClaimAccepted()
	case events.TypeAirdropRootUpdated:
		metrics.RecordRootRotation()
	case events.TypeAirdropPaused:
		metrics.RecordPauseToggle("pause")
	case events.TypeAirdropUnpaused:
		metrics.RecordPauseToggle("unpause")
	}
}
