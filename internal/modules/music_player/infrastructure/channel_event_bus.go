package infrastructure

import (
	"log/slog"
	"sync"

	"github.com/frostzzone/frost-music/internal/modules/music_player/application/events"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/session"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 100

// Compile-time check that ChannelEventBus can stand in for the session manager.
var _ SessionEventSubscriber = (*ChannelEventBus)(nil)

// ChannelEventBus relays session events to its own subscribers on a single
// background goroutine, so slow handlers (Discord API calls, database writes)
// never run on a player's goroutine. Events keep their publish order.
type ChannelEventBus struct {
	events     chan session.SessionEvent
	dispatcher *events.Dispatcher[domain.EventName, session.SessionEvent]

	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	bus := &ChannelEventBus{
		events:     make(chan session.SessionEvent, bufferSize),
		dispatcher: events.NewDispatcher[domain.EventName, session.SessionEvent](),
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

// Attach forwards every event of source onto the bus.
func (b *ChannelEventBus) Attach(source SessionEventSubscriber) {
	for _, name := range domain.AllEvents() {
		source.Subscribe(name, b.Publish)
	}
}

func (b *ChannelEventBus) dispatch() {
	defer b.wg.Done()
	for event := range b.events {
		b.dispatcher.Publish(event.Name, event)
	}
}

// Publish queues event for delivery.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) Publish(event session.SessionEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", event.Name)
		return
	}

	select {
	case b.events <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", event.Name, "guild", guildOf(event))
	}
}

// Subscribe registers handler for the named event.
// Handlers run on the bus goroutine.
func (b *ChannelEventBus) Subscribe(
	name domain.EventName,
	handler events.Handler[session.SessionEvent],
) events.SubscriptionID {
	return b.dispatcher.Subscribe(name, handler)
}

// Close stops accepting events, delivers the ones already queued and waits
// for the dispatcher to finish.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()

	b.wg.Wait()

	slog.Debug("channel event bus closed")
}

func guildOf(event session.SessionEvent) any {
	if event.Session == nil {
		return nil
	}
	return event.Session.GuildID()
}
