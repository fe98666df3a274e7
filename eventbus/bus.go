// Package eventbus implements the Event Bus: a fan-out publish/
// subscribe hub that delivers typed events to per-subscriber bounded
// queues, dropping the oldest queued event on overflow rather than
// blocking the publisher or the rest of the subscriber set.
package eventbus

import (
	"context"
	"sync"

	domaincodeintel "github.com/R3E-Network/agentsvc/domain/codeintel"
	event "github.com/R3E-Network/agentsvc/domain/eventbus"
	"github.com/R3E-Network/agentsvc/internal/logging"
	"github.com/R3E-Network/agentsvc/internal/metrics"
)

const defaultQueueSize = 256

// Subscription is a live registration returned by Subscribe. Callers
// read from Events until Cancel is called.
type Subscription struct {
	ID      string
	Channel string
	Events  <-chan event.Event

	bus *Bus
}

// Cancel unregisters the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.bus.unsubscribe(s.Channel, s.ID)
}

type subscriber struct {
	id   string
	ch   chan event.Event
	size int
}

// Bus is the Event Bus. It is safe for concurrent use.
type Bus struct {
	service string
	metrics *metrics.Metrics
	log     *logging.Logger

	mu          sync.Mutex
	subscribers map[string]map[string]*subscriber // channel -> subscriber id -> subscriber
	nextID      int
}

// New builds an Event Bus that records publish/drop counts and
// subscriber lag through m.
func New(m *metrics.Metrics, service string) *Bus {
	return &Bus{
		service:     service,
		metrics:     m,
		log:         logging.Default(),
		subscribers: make(map[string]map[string]*subscriber),
	}
}

// Subscribe registers interest in a named channel (e.g. "workspace:ws1",
// "system:alerts", "tasks", "activity"). queueSize overrides the
// default per-subscriber bound when positive.
func (b *Bus) Subscribe(channel string, queueSize int) *Subscription {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	b.mu.Lock()
	b.nextID++
	id := channelSubscriberID(b.nextID)
	sub := &subscriber{id: id, ch: make(chan event.Event, queueSize), size: queueSize}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[string]*subscriber)
	}
	b.subscribers[channel][id] = sub
	b.mu.Unlock()

	return &Subscription{ID: id, Channel: channel, Events: sub.ch, bus: b}
}

func (b *Bus) unsubscribe(channel, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[channel]
	if subs == nil {
		return
	}
	if sub, ok := subs[id]; ok {
		close(sub.ch)
		delete(subs, id)
	}
	if len(subs) == 0 {
		delete(b.subscribers, channel)
	}
}

// Publish delivers evt to every subscriber of every channel it names.
// A subscriber whose queue is full has its oldest queued event
// dropped to make room; the publisher never blocks.
func (b *Bus) Publish(evt event.Event) {
	channels := evt.Channels()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, channel := range channels {
		b.metrics.RecordEventPublished(b.service, channel)
		for _, sub := range b.subscribers[channel] {
			b.deliver(channel, sub, evt)
		}
	}
}

// deliver must be called with b.mu held.
func (b *Bus) deliver(channel string, sub *subscriber, evt event.Event) {
	select {
	case sub.ch <- evt:
	default:
		select {
		case <-sub.ch:
			b.metrics.RecordEventDropped(b.service, channel)
		default:
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
	b.metrics.SetSubscriberLag(b.service, channel, sub.id, len(sub.ch))
}

// EmitCodeChanged satisfies codeintel.ChangeEmitter, translating a
// code-intelligence diff into a CodeChange event per changed unit.
func (b *Bus) EmitCodeChanged(ctx context.Context, workspaceID, filePath string, diff domaincodeintel.Diff) {
	emitAll := func(kind string, units []domaincodeintel.Unit) {
		for range units {
			b.Publish(event.CodeChange{
				File:      filePath,
				Workspace: workspaceID,
				Kind:      kind,
				Path:      filePath,
			})
		}
	}
	emitAll("inserted", diff.Inserted)
	emitAll("removed", diff.Removed)
	emitAll("changed", diff.Changed)
}

// EmitSystemAlert satisfies orchestrator.AlertSink, publishing a
// SystemAlert event to the system:alerts channel.
func (b *Bus) EmitSystemAlert(ctx context.Context, level, message, component string) {
	b.Publish(event.SystemAlert{
		Level:     level,
		Msg:       message,
		Component: component,
	})
}

func channelSubscriberID(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	if n == 0 {
		return "sub-0"
	}
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append(buf, alphabet[n%len(alphabet)])
		n /= len(alphabet)
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return "sub-" + string(buf)
}
