package metrics

import (
	"context"

	"github.com/eventdraw/drawbot/internal/event"
	"github.com/eventdraw/drawbot/internal/logger"
)

// EventMetricsCollector subscribes to the event bus and turns business
// events into counters.
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all event types the collector cares about
func (e *EventMetricsCollector) Register(bus event.Bus) {
	eventTypes := []event.Type{
		event.ParticipantRegistered,
		event.EventActivated,
		event.DrawStarted,
		event.DrawRoundCompleted,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent records metrics for a published event
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch payload := evt.Payload.(type) {
	case event.ParticipantRegisteredPayloadV1:
		Registrations.Inc()

	case event.DrawRoundCompletedPayloadV1:
		DrawRoundsExecuted.Inc()
		WinnersSelected.Add(float64(len(payload.WinnerShortIDs)))
		NotificationFailures.Add(float64(payload.FailedSends))

	case event.EventActivatedPayloadV1, event.DrawStartedPayloadV1:
		// Counted by EventsPublished only

	default:
		log.Debug("Unrecognized event payload type", "type", evt.Type)
	}
	return nil
}
