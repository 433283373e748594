package events

import (
	"context"
	"log/slog"
)

// AccessEventTypes are the events the access layer publishes.
var AccessEventTypes = []string{
	EventTypePermissionsUpdated,
	EventTypeUserLoggedIn,
	EventTypeUserLoggedOut,
}

// RegisterAuditLog writes every access event to logger.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) {
	for _, t := range AccessEventTypes {
		bus.Subscribe(t, func(ctx context.Context, ev Event) error {
			logger.InfoContext(ctx, "audit",
				"event_type", ev.EventType(),
				"event_id", ev.EventID(),
				"occurred_at", ev.OccurredAt(),
				"payload", ev.Payload())
			return nil
		})
	}
}
