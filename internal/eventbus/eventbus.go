package eventbus

import (
	"runtime/debug"
	"sync"

	"github.com/charmbracelet/log"

	"factgrip/internal/domain"
	"factgrip/internal/logger"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventQuerySubmitted = domain.EventQuerySubmitted
	EventFactsLoaded    = domain.EventFactsLoaded
	EventFetchFailed    = domain.EventFetchFailed
	EventConfigLoaded   = domain.EventConfigLoaded
	EventConfigSaved    = domain.EventConfigSaved
	EventConfigChanged  = domain.EventConfigChanged
)

// Re-export domain event types
type QuerySubmittedEvent = domain.QuerySubmittedEvent
type FactsLoadedEvent = domain.FactsLoadedEvent
type FetchFailedEvent = domain.FetchFailedEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent
type ConfigChangedEvent = domain.ConfigChangedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	inflight  sync.WaitGroup // running handlers
	done      chan struct{}  // closed when dispatch returns
	quit      chan struct{}
	closeOnce sync.Once
	log       *log.Logger
}

// New creates a new event bus
func New(l *log.Logger) EventBus {
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		done:      make(chan struct{}),
		quit:      make(chan struct{}),
		log:       logger.Or(l).WithPrefix("eventbus"),
	}

	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	select {
	case <-b.quit:
		b.log.Warn("Publish after close, dropping event", "type", event.Type())
		return
	default:
	}

	b.log.Debug("Publishing event", "type", event.Type())

	select {
	case b.eventChan <- event:
	default:
		b.log.Warn("Event channel full, dropping event", "type", event.Type())
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops accepting events, delivers the ones already queued and waits
// for every running handler to return
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
		<-b.done
		b.inflight.Wait()
	})
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer close(b.done)

	for {
		select {
		case event := <-b.eventChan:
			b.deliver(event)

		case <-b.quit:
			// Deliver what is already queued
			for {
				select {
				case event := <-b.eventChan:
					b.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (b *bus) deliver(event DomainEvent) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[event.Type()]))
	copy(subs, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, s := range subs {
		b.inflight.Add(1)
		// Handlers run in their own goroutine so a slow one cannot stall the bus
		go func(h EventHandler) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("Event handler panic", "type", event.Type(), "panic", r, "stack", string(debug.Stack()))
				}
			}()
			h(event)
		}(s.handler)
	}
}
