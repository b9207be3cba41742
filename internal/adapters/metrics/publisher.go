package metrics

import (
	"context"

	"github.com/nanasync/nanasync-api/internal/core/domainevent"
)

// CountingPublisher は発行されたイベントを種別ごとに数えてから next に渡します。
type CountingPublisher struct {
	next    domainevent.Publisher
	metrics *Metrics
}

// NewCountingPublisher は CountingPublisher を生成します。next が nil の場合は何も発行しません。
func NewCountingPublisher(next domainevent.Publisher, m *Metrics) *CountingPublisher {
	if next == nil {
		next = domainevent.Nop{}
	}
	return &CountingPublisher{next: next, metrics: m}
}

// Publish はイベントを記録して next に渡します。
func (p *CountingPublisher) Publish(ctx context.Context, event domainevent.Event) {
	p.metrics.RecordEventPublished(string(event.Type))
	p.next.Publish(ctx, event)
}
