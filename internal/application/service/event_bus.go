package service

import (
	"sync"

	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
)

var _ output.EventSink = (*EventBus)(nil)

// EventBus fans bot events out to every subscribed sink, in subscription order.
type EventBus struct {
	mu    sync.RWMutex
	sinks []output.EventSink
}

func NewEventBus(sinks ...output.EventSink) *EventBus {
	b := &EventBus{}
	for _, s := range sinks {
		b.Subscribe(s)
	}
	return b
}

func (b *EventBus) Subscribe(sink output.EventSink) {
	if sink == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

func (b *EventBus) Publish(event entity.Event) {
	b.mu.RLock()
	sinks := append([]output.EventSink(nil), b.sinks...)
	b.mu.RUnlock()

	for _, s := range sinks {
		s.Publish(event)
	}
}
