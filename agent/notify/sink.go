package notify

import (
	"context"
	"log/slog"
)

// Sink delivers a composed message to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, payload *WebhookPayload) error
}

// Notifier fans a message out to every configured sink. Delivery is
// best-effort: a failed sink is logged and the rest still run.
type Notifier struct {
	sinks []Sink
}

// NewNotifier creates a notifier over the given sinks. Zero sinks is valid;
// the pipeline then only returns the message to the caller.
func NewNotifier(sinks ...Sink) *Notifier {
	return &Notifier{sinks: sinks}
}

// Dispatch delivers the message to all sinks and reports how many failed.
func (n *Notifier) Dispatch(ctx context.Context, traceID, event string, msg Message) int {
	payload := &WebhookPayload{TraceID: traceID, Event: event, Message: msg}

	failed := 0
	for _, s := range n.sinks {
		if err := s.Deliver(ctx, payload); err != nil {
			failed++
			slog.Warn("notify: delivery failed",
				slog.String("sink", s.Name()),
				slog.String("event", event),
				slog.Any("err", err))
		}
	}
	return failed
}
