package alerts

import (
	"context"
	"log/slog"

	"github.com/fishda/fishda/internal/sensors"
)

// Enqueuer hands alert notifications to the background queue for delivery
// off the evaluation path.
type Enqueuer interface {
	EnqueueAlertNotification(ctx context.Context, a Alert) error
}

// FanoutNotifier pushes new alerts to connected dashboards over the live
// hub and queues out-of-band delivery. Both legs are best effort; a failed
// leg is logged and never blocks evaluation.
type FanoutNotifier struct {
	hub      *sensors.Hub
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewFanoutNotifier constructs a FanoutNotifier. enqueuer may be nil when
// no background queue is wired (tests, minimal deployments).
func NewFanoutNotifier(hub *sensors.Hub, enqueuer Enqueuer, logger *slog.Logger) *FanoutNotifier {
	return &FanoutNotifier{hub: hub, enqueuer: enqueuer, logger: logger}
}

// AlertCreated implements Notifier.
func (n *FanoutNotifier) AlertCreated(ctx context.Context, a Alert) {
	if n.hub != nil {
		n.hub.Broadcast(sensors.Event{Kind: "alert", Payload: a})
	}
	if n.enqueuer == nil {
		return
	}
	if err := n.enqueuer.EnqueueAlertNotification(ctx, a); err != nil {
		n.logger.Error("enqueue alert notification",
			slog.String("id", a.ID),
			slog.String("parameter", a.Parameter),
			slog.Any("error", err),
		)
	}
}
