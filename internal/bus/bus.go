package bus

import (
	"log/slog"
	"sync"
	"time"
)

// Kind enumerates the event kinds carried by the bus. Payload types are
// fixed per kind; see the payload structs below.
type Kind string

const (
	KindWishlistUpdated Kind = "wishlist.updated"
	KindCartUpdated     Kind = "cart.updated"
	KindAuthChanged     Kind = "auth.changed"
	KindThemeChanged    Kind = "theme.changed"
	KindNotification    Kind = "notification"
	KindPriceChanged    Kind = "price.changed"
	KindAssetUploaded   Kind = "asset.uploaded"
)

// Event is a single published event.
type Event struct {
	Kind    Kind
	Payload any
	At      time.Time
}

// CountPayload carries the post-mutation size of a list for
// KindWishlistUpdated and KindCartUpdated.
type CountPayload struct {
	Collection string `json:"collection"`
	Count      int    `json:"count"`
}

// Notification levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// NotificationPayload carries a user-visible notification for KindNotification.
type NotificationPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Price change directions.
const (
	DirectionDrop     = "drop"
	DirectionIncrease = "increase"
)

// PriceChangePayload carries a detected price difference for KindPriceChanged.
type PriceChangePayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	OldPrice  int64  `json:"old_price"`
	NewPrice  int64  `json:"new_price"`
	Direction string `json:"direction"`
}

// AuthPayload carries the identity transition for KindAuthChanged.
type AuthPayload struct {
	UserID   string `json:"user_id,omitempty"`
	SignedIn bool   `json:"signed_in"`
}

// AssetUploadedPayload describes a stored site asset for KindAssetUploaded.
type AssetUploadedPayload struct {
	Folder string `json:"folder"`
	Path   string `json:"path"`
	URL    string `json:"url"`
}

type subscriber struct {
	id   int
	kind Kind // empty matches every kind
	fn   func(Event)
}

// Bus is a process-wide synchronous publish-subscribe fan-out. Handlers run
// in subscription order on the emitting goroutine; there is no queueing, so
// an event with no subscribers is dropped.
type Bus struct {
	mu     sync.Mutex
	subs   []subscriber
	nextID int
	logger *slog.Logger
}

// New creates an event bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a handler for every event kind.
// The returned function removes the subscription.
func (b *Bus) Subscribe(fn func(Event)) func() {
	return b.subscribe("", fn)
}

// SubscribeKind registers a handler for a single event kind.
// The returned function removes the subscription.
func (b *Bus) SubscribeKind(kind Kind, fn func(Event)) func() {
	return b.subscribe(kind, fn)
}

func (b *Bus) subscribe(kind Kind, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, kind: kind, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.subs {
			if b.subs[i].id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers the event to every currently-subscribed matching handler, in
// subscription order. A handler that panics is recovered and logged; the
// remaining handlers still run.
func (b *Bus) Emit(kind Kind, payload any) {
	b.mu.Lock()
	matching := make([]subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.kind == "" || s.kind == kind {
			matching = append(matching, s)
		}
	}
	b.mu.Unlock()

	evt := Event{Kind: kind, Payload: payload, At: time.Now().UTC()}

	for _, s := range matching {
		b.deliver(s, evt)
	}
}

func (b *Bus) deliver(s subscriber, evt Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("event handler panicked",
				slog.String("kind", string(evt.Kind)),
				slog.Any("panic", rec),
			)
		}
	}()
	s.fn(evt)
}
