package bootstrap

import (
	"log/slog"

	"github.com/eventdraw/drawbot/internal/event"
	"github.com/eventdraw/drawbot/internal/metrics"
)

// RegisterEventHandlers wires the event bus subscribers: the metrics
// collector that turns business events into Prometheus counters.
func RegisterEventHandlers(bus event.Bus) {
	collector := metrics.NewEventMetricsCollector()
	collector.Register(bus)
	slog.Info(LogMsgMetricsRegistered)
}
