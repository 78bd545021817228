package events

import (
	"sync"
	"tirc/internal/app/domain/irc"
)

type Handler func(irc.Event)

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus fans client events out to subscribers. Handlers run synchronously on the
// publishing goroutine, in subscription order, without the bus lock held.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[irc.Kind][]subscriber
}

func NewBus() *Bus {
	return &Bus{subs: make(map[irc.Kind][]subscriber)}
}

// Subscription removes its handler once; further calls are no-ops.
type Subscription struct {
	bus  *Bus
	kind irc.Kind
	id   uint64
	once sync.Once
}

func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.kind, s.id)
	})
}

func (b *Bus) Subscribe(kind irc.Kind, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[kind] = append(b.subs[kind], subscriber{id: b.nextID, handler: h})

	return &Subscription{bus: b, kind: kind, id: b.nextID}
}

// SubscribeAll registers h for every event kind.
func (b *Bus) SubscribeAll(h Handler) []*Subscription {
	kinds := irc.Kinds()
	out := make([]*Subscription, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, b.Subscribe(k, h))
	}
	return out
}

func (b *Bus) Publish(ev irc.Event) {
	b.mu.RLock()
	subs := b.subs[ev.Kind()]
	handlers := make([]Handler, len(subs))
	for i, s := range subs {
		handlers[i] = s.handler
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Clear drops the handlers of the given kinds, or of all kinds when none are given.
func (b *Bus) Clear(kinds ...irc.Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(kinds) == 0 {
		b.subs = make(map[irc.Kind][]subscriber)
		return
	}
	for _, k := range kinds {
		delete(b.subs, k)
	}
}

func (b *Bus) Len(kind irc.Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[kind])
}

func (b *Bus) remove(kind irc.Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Subscribe registers a handler typed on the concrete event payload.
func Subscribe[T irc.Event](b *Bus, fn func(T)) *Subscription {
	var zero T
	return b.Subscribe(zero.Kind(), func(ev irc.Event) {
		if t, ok := ev.(T); ok {
			fn(t)
		}
	})
}
