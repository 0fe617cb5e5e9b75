package ports

import (
	"context"

	"github.com/espalier-ai/espalier/pkg/domain"
)

// Notifier receives step events as the driver produces them. Delivery to any
// downstream listener is at-most-once with no replay; a listener attaching
// mid-session only sees subsequent events. Implementations must not block
// the pipeline; drop rather than stall.
type Notifier interface {
	Publish(ctx context.Context, event domain.StepEvent)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event domain.StepEvent)

func (f NotifierFunc) Publish(ctx context.Context, event domain.StepEvent) {
	f(ctx, event)
}
