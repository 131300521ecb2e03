package compound

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/compound/pkg/types"
)

// EventKind identifies a children event.
type EventKind string

const (
	EventChildrenAdded   EventKind = "children.added"
	EventChildrenRemoved EventKind = "children.removed"
)

// ChildrenEvent is published once per AddParent or RemoveParent call.
type ChildrenEvent struct {
	Kind      EventKind
	Objects   []*types.CompoundObject
	ParentIDs []string
}

// Subscriber receives children events.
type Subscriber interface {
	HandleChildrenEvent(ctx context.Context, ev ChildrenEvent)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, ev ChildrenEvent)

// HandleChildrenEvent calls f.
func (f SubscriberFunc) HandleChildrenEvent(ctx context.Context, ev ChildrenEvent) {
	f(ctx, ev)
}

// Bus delivers children events to every registered subscriber. Delivery is
// synchronous and fire-and-forget: a panicking subscriber is logged and the
// remaining subscribers still run.
type Bus struct {
	mu   sync.RWMutex
	subs []Subscriber
	log  *zap.Logger
}

// NewBus returns an empty Bus. A nil logger discards output.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{log: log}
}

// Subscribe registers s.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Publish delivers ev to all subscribers. A nil Bus drops the event.
func (b *Bus) Publish(ctx context.Context, ev ChildrenEvent) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(ctx, s, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, s Subscriber, ev ChildrenEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("children event subscriber panicked",
				zap.String("kind", string(ev.Kind)),
				zap.Strings("parents", ev.ParentIDs),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	s.HandleChildrenEvent(ctx, ev)
}
