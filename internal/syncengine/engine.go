package syncengine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/bus"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/catalog"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
)

// State is the engine's sync lifecycle state.
type State int

const (
	// StateAnonymous reads and writes the device-local list only.
	StateAnonymous State = iota
	// StateSyncing means a login merge is running; mutations during this
	// window still apply to the in-memory list and are persisted locally.
	StateSyncing
	// StateSynced reads and writes the authenticated user's remote list.
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateSyncing:
		return "syncing"
	case StateSynced:
		return "synced"
	default:
		return "anonymous"
	}
}

// Snapshot is the listener-visible view of a list.
type Snapshot struct {
	Items     []string                          `json:"items"`
	Details   map[string]domain.ProductSnapshot `json:"details"`
	Count     int                               `json:"count"`
	IsLoading bool                              `json:"is_loading"`
}

// SyncStatus reports the engine's current sync position.
type SyncStatus struct {
	State        State     `json:"-"`
	StateName    string    `json:"state"`
	UserID       string    `json:"user_id,omitempty"`
	LastSyncTime time.Time `json:"last_sync_time,omitzero"`
	InProgress   bool      `json:"in_progress"`
}

const analyticsLogCap = 50

type analyticsEvent struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id,omitempty"`
	At        time.Time `json:"at"`
}

// Engine keeps one wishlist or cart consistent across the device-local store
// and the remote per-user document, merging the two at login. Mutations are
// optimistic: the in-memory list changes first, and a failed write rolls it
// back so the observable state matches what was persisted.
type Engine struct {
	collection domain.Collection
	remote     RemoteList
	local      LocalList
	catalog    catalog.Client
	bus        *bus.Bus
	events     ListEventPublisher
	analytics  EventLog
	logger     *slog.Logger
	now        func() time.Time

	mu         sync.Mutex
	state      State
	userID     string
	entries    []domain.Entry
	lastSync   time.Time
	inProgress bool
	loading    bool
	listeners  map[int]func(Snapshot)
	nextID     int
}

// Config carries the engine's collaborators. Events and Analytics are
// optional; everything else is required.
type Config struct {
	Collection domain.Collection
	Remote     RemoteList
	Local      LocalList
	Catalog    catalog.Client
	Bus        *bus.Bus
	Events     ListEventPublisher
	Analytics  EventLog
	Logger     *slog.Logger
}

// New creates an engine in the anonymous state, seeded from the local list.
// A corrupt or unreadable local list logs a warning and starts empty.
func New(cfg Config) *Engine {
	e := &Engine{
		collection: cfg.Collection,
		remote:     cfg.Remote,
		local:      cfg.Local,
		catalog:    cfg.Catalog,
		bus:        cfg.Bus,
		events:     cfg.Events,
		analytics:  cfg.Analytics,
		logger:     cfg.Logger.With(slog.String("collection", string(cfg.Collection))),
		now:        time.Now,
		listeners:  make(map[int]func(Snapshot)),
	}

	entries, err := e.local.Load()
	if err != nil {
		e.logger.Warn("discarding unreadable local list", slog.String("error", err.Error()))
		entries = nil
	}
	e.entries = entries

	return e
}

// Collection returns the list this engine manages.
func (e *Engine) Collection() domain.Collection {
	return e.collection
}

// Status returns the engine's current sync position.
func (e *Engine) Status() SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SyncStatus{
		State:        e.state,
		StateName:    e.state.String(),
		UserID:       e.userID,
		LastSyncTime: e.lastSync,
		InProgress:   e.inProgress,
	}
}

// Current returns the listener-visible snapshot of the list.
func (e *Engine) Current() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers a listener that receives the current snapshot
// immediately and again after every mutation. The returned function removes
// the subscription.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.listeners[id] = fn
	snap := e.snapshotLocked()
	e.mu.Unlock()

	fn(snap)

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	items := make([]string, 0, len(e.entries))
	details := make(map[string]domain.ProductSnapshot, len(e.entries))
	for _, entry := range e.entries {
		items = append(items, entry.ProductID)
		if entry.Snapshot != nil {
			details[entry.ProductID] = *entry.Snapshot
		}
	}
	return Snapshot{
		Items:     items,
		Details:   details,
		Count:     domain.TotalCount(e.entries),
		IsLoading: e.loading,
	}
}

func (e *Engine) notify() {
	e.mu.Lock()
	snap := e.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (e *Engine) countKind() bus.Kind {
	if e.collection == domain.CollectionCart {
		return bus.KindCartUpdated
	}
	return bus.KindWishlistUpdated
}

func (e *Engine) emitCount() {
	e.mu.Lock()
	count := domain.TotalCount(e.entries)
	e.mu.Unlock()
	e.bus.Emit(e.countKind(), bus.CountPayload{
		Collection: string(e.collection),
		Count:      count,
	})
}

func (e *Engine) notifyUser(level, message string) {
	e.bus.Emit(bus.KindNotification, bus.NotificationPayload{Level: level, Message: message})
}

func (e *Engine) recordEvent(evtType, productID string) {
	if e.analytics == nil {
		return
	}
	evt := analyticsEvent{Type: evtType, ProductID: productID, At: e.now().UTC()}
	if err := e.analytics.Append(string(e.collection)+"_events", evt, analyticsLogCap); err != nil {
		e.logger.Warn("analytics append failed", slog.String("error", err.Error()))
	}
}

func (e *Engine) publishList(ctx context.Context) {
	if e.events == nil {
		return
	}
	e.mu.Lock()
	userID := e.userID
	entries := append([]domain.Entry(nil), e.entries...)
	e.mu.Unlock()

	if err := e.events.PublishListUpdated(ctx, e.collection, userID, entries); err != nil {
		e.logger.Warn("list event publish failed", slog.String("error", err.Error()))
	}
}

// persist writes the given full list to whichever store the current state
// targets. Callers pass the state and user captured while holding the lock.
func (e *Engine) persist(ctx context.Context, state State, userID string, entries []domain.Entry) error {
	if state == StateSynced {
		return e.remote.Save(ctx, userID, entries)
	}
	return e.local.Save(entries)
}

// AddEntry adds a product to the list. Returns false with a nil error when
// the product is already present: a wishlist leaves the entry untouched,
// while a cart line bumps its quantity by one so there is never more than
// one line per product. On a write failure the optimistic in-memory change
// is rolled back.
func (e *Engine) AddEntry(ctx context.Context, productID string, snapshot *domain.ProductSnapshot) (bool, error) {
	entry := domain.Entry{ProductID: productID, Snapshot: snapshot}
	if e.collection == domain.CollectionCart {
		entry.Quantity = 1
	}

	e.mu.Lock()
	if idx := domain.FindEntry(e.entries, productID); idx >= 0 {
		if e.collection != domain.CollectionCart {
			e.mu.Unlock()
			return false, nil
		}
		quantity := e.entries[idx].Quantity + 1
		e.mu.Unlock()
		return false, e.UpdateQuantity(ctx, productID, quantity)
	}
	e.entries = append(e.entries, entry)
	state, userID := e.state, e.userID
	entries := append([]domain.Entry(nil), e.entries...)
	e.mu.Unlock()

	var err error
	if state == StateSynced {
		err = e.remote.Add(ctx, userID, entry)
	} else {
		err = e.local.Save(entries)
	}
	if err != nil {
		e.mu.Lock()
		if idx := domain.FindEntry(e.entries, productID); idx >= 0 {
			e.entries = append(e.entries[:idx], e.entries[idx+1:]...)
		}
		e.mu.Unlock()
		rollbacksTotal.WithLabelValues(string(e.collection), "add").Inc()
		e.logger.Error("add rolled back", slog.String("product_id", productID), slog.String("error", err.Error()))
		e.notifyUser(bus.LevelError, fmt.Sprintf("Could not update your %s", e.collection))
		return false, fmt.Errorf("adding %s to %s: %w", productID, e.collection, err)
	}

	mutationsTotal.WithLabelValues(string(e.collection), "add").Inc()
	e.notify()
	e.emitCount()
	e.notifyUser(bus.LevelSuccess, fmt.Sprintf("Added to your %s", e.collection))
	e.recordEvent("add", productID)
	e.publishList(ctx)
	return true, nil
}

// RemoveEntry removes a product from the list. Removing an absent product is
// a no-op that emits nothing. On a write failure the entry is restored at its
// original position, re-fetching its snapshot from the catalog when possible.
func (e *Engine) RemoveEntry(ctx context.Context, productID string) error {
	e.mu.Lock()
	idx := domain.FindEntry(e.entries, productID)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	removed := e.entries[idx]
	e.entries = append(e.entries[:idx], e.entries[idx+1:]...)
	state, userID := e.state, e.userID
	entries := append([]domain.Entry(nil), e.entries...)
	e.mu.Unlock()

	var err error
	if state == StateSynced {
		err = e.remote.Remove(ctx, userID, productID)
	} else {
		err = e.local.Save(entries)
	}
	if err != nil {
		restored := removed
		if snap, ferr := e.catalog.GetProduct(ctx, productID); ferr == nil {
			restored.Snapshot = snap
		}
		e.mu.Lock()
		if domain.FindEntry(e.entries, productID) < 0 {
			if idx > len(e.entries) {
				idx = len(e.entries)
			}
			e.entries = append(e.entries[:idx], append([]domain.Entry{restored}, e.entries[idx:]...)...)
		}
		e.mu.Unlock()
		rollbacksTotal.WithLabelValues(string(e.collection), "remove").Inc()
		e.logger.Error("remove rolled back", slog.String("product_id", productID), slog.String("error", err.Error()))
		e.notifyUser(bus.LevelError, fmt.Sprintf("Could not update your %s", e.collection))
		return fmt.Errorf("removing %s from %s: %w", productID, e.collection, err)
	}

	mutationsTotal.WithLabelValues(string(e.collection), "remove").Inc()
	e.notify()
	e.emitCount()
	e.recordEvent("remove", productID)
	e.publishList(ctx)
	return nil
}

// Toggle adds the product when absent and removes it when present. The bool
// reports whether the product is in the list after the call.
func (e *Engine) Toggle(ctx context.Context, productID string, snapshot *domain.ProductSnapshot) (bool, error) {
	e.mu.Lock()
	present := domain.FindEntry(e.entries, productID) >= 0
	e.mu.Unlock()

	if present {
		return false, e.RemoveEntry(ctx, productID)
	}
	_, err := e.AddEntry(ctx, productID, snapshot)
	return err == nil, err
}

// UpdateQuantity sets a cart line's quantity. Zero or negative removes the
// line. A failed write restores the previous quantity.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return e.RemoveEntry(ctx, productID)
	}

	e.mu.Lock()
	idx := domain.FindEntry(e.entries, productID)
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("updating quantity: product %s not in %s", productID, e.collection)
	}
	previous := e.entries[idx].Quantity
	e.entries[idx].Quantity = quantity
	state, userID := e.state, e.userID
	entries := append([]domain.Entry(nil), e.entries...)
	e.mu.Unlock()

	if err := e.persist(ctx, state, userID, entries); err != nil {
		e.mu.Lock()
		if i := domain.FindEntry(e.entries, productID); i >= 0 {
			e.entries[i].Quantity = previous
		}
		e.mu.Unlock()
		rollbacksTotal.WithLabelValues(string(e.collection), "quantity").Inc()
		e.notifyUser(bus.LevelError, fmt.Sprintf("Could not update your %s", e.collection))
		return fmt.Errorf("updating quantity of %s in %s: %w", productID, e.collection, err)
	}

	mutationsTotal.WithLabelValues(string(e.collection), "quantity").Inc()
	e.notify()
	e.emitCount()
	e.publishList(ctx)
	return nil
}

// Clear empties the list. A failed clear is reported but the in-memory list
// is not restored; the next sync reconciles.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	if len(e.entries) == 0 {
		e.mu.Unlock()
		return nil
	}
	e.entries = nil
	state, userID := e.state, e.userID
	e.mu.Unlock()

	var err error
	if state == StateSynced {
		err = e.remote.Clear(ctx, userID)
	} else {
		err = e.local.Clear()
	}
	if err != nil {
		e.notifyUser(bus.LevelError, fmt.Sprintf("Could not clear your %s", e.collection))
		return fmt.Errorf("clearing %s: %w", e.collection, err)
	}

	mutationsTotal.WithLabelValues(string(e.collection), "clear").Inc()
	e.notify()
	e.emitCount()
	e.recordEvent("clear", "")
	e.publishList(ctx)
	return nil
}

// MoveAllToCart moves every entry of this list into the cart engine,
// continuing past per-product failures. Returns the moved and failed counts.
func (e *Engine) MoveAllToCart(ctx context.Context, cart *Engine) (moved, failed int) {
	e.mu.Lock()
	entries := append([]domain.Entry(nil), e.entries...)
	e.mu.Unlock()

	for _, entry := range entries {
		if _, err := cart.AddEntry(ctx, entry.ProductID, entry.Snapshot); err != nil {
			failed++
			continue
		}
		if err := e.RemoveEntry(ctx, entry.ProductID); err != nil {
			failed++
			continue
		}
		moved++
	}

	switch {
	case failed == 0 && moved > 0:
		e.notifyUser(bus.LevelSuccess, fmt.Sprintf("Moved %d items to your cart", moved))
	case failed > 0:
		e.notifyUser(bus.LevelError, fmt.Sprintf("Moved %d items, %d failed", moved, failed))
	}
	return moved, failed
}

// CheckPrices re-fetches every cached product from the catalog, updates the
// cached snapshots, and raises a price-change event per difference. Products
// the catalog cannot resolve are skipped. Returns the number of changes.
func (e *Engine) CheckPrices(ctx context.Context) int {
	e.mu.Lock()
	entries := append([]domain.Entry(nil), e.entries...)
	e.mu.Unlock()

	changed := 0
	for _, entry := range entries {
		if entry.Snapshot == nil {
			continue
		}
		current, err := e.catalog.GetProduct(ctx, entry.ProductID)
		if err != nil {
			e.logger.Warn("price check skipped product",
				slog.String("product_id", entry.ProductID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if current.Price == entry.Snapshot.Price {
			continue
		}

		direction := bus.DirectionIncrease
		if current.Price < entry.Snapshot.Price {
			direction = bus.DirectionDrop
		}
		e.bus.Emit(bus.KindPriceChanged, bus.PriceChangePayload{
			ProductID: entry.ProductID,
			Name:      current.Name,
			OldPrice:  entry.Snapshot.Price,
			NewPrice:  current.Price,
			Direction: direction,
		})

		e.mu.Lock()
		if i := domain.FindEntry(e.entries, entry.ProductID); i >= 0 {
			snap := *current
			e.entries[i].Snapshot = &snap
		}
		e.mu.Unlock()
		changed++
	}

	if changed > 0 {
		e.mu.Lock()
		state, userID := e.state, e.userID
		updated := append([]domain.Entry(nil), e.entries...)
		e.mu.Unlock()
		if err := e.persist(ctx, state, userID, updated); err != nil {
			e.logger.Warn("persisting refreshed prices failed", slog.String("error", err.Error()))
		}
		e.notify()
	}
	return changed
}

// HandleAuthChange transitions the engine on login and logout. A non-nil
// identity triggers the merge; nil reverts to the anonymous local list.
func (e *Engine) HandleAuthChange(ctx context.Context, userID string) error {
	if userID == "" {
		e.logout()
		return nil
	}
	return e.syncOnLogin(ctx, userID)
}

// syncOnLogin merges the local list into the user's remote list. A sync
// already in progress makes the call a no-op. The local cache entry is
// cleared only after the merged write succeeds.
func (e *Engine) syncOnLogin(ctx context.Context, userID string) error {
	e.mu.Lock()
	if e.inProgress {
		e.mu.Unlock()
		return nil
	}
	if e.state == StateSynced && e.userID == userID {
		e.mu.Unlock()
		return nil
	}
	e.state = StateSyncing
	e.inProgress = true
	e.loading = true
	local := append([]domain.Entry(nil), e.entries...)
	e.mu.Unlock()
	e.notify()

	fail := func(err error) error {
		e.mu.Lock()
		e.state = StateAnonymous
		e.inProgress = false
		e.loading = false
		e.mu.Unlock()
		mergesTotal.WithLabelValues(string(e.collection), "error").Inc()
		e.logger.Error("login sync failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		e.notifyUser(bus.LevelError, fmt.Sprintf("Could not sync your %s", e.collection))
		e.notify()
		return fmt.Errorf("syncing %s for %s: %w", e.collection, userID, err)
	}

	remote, err := e.remote.Load(ctx, userID)
	if err != nil {
		return fail(err)
	}

	merged := domain.MergeEntries(remote, local)
	if len(merged) > 0 {
		if err := e.remote.Save(ctx, userID, merged); err != nil {
			return fail(err)
		}
	}
	if err := e.local.Clear(); err != nil {
		// The merge itself succeeded; a stale local copy is re-merged on the
		// next login, so log and continue.
		e.logger.Warn("clearing local list after merge failed", slog.String("error", err.Error()))
	}

	e.mu.Lock()
	e.state = StateSynced
	e.userID = userID
	e.entries = merged
	e.lastSync = e.now().UTC()
	e.inProgress = false
	e.loading = false
	e.mu.Unlock()

	mergesTotal.WithLabelValues(string(e.collection), "success").Inc()
	e.logger.Info("login sync complete",
		slog.String("user_id", userID),
		slog.Int("entries", len(merged)),
	)
	e.notify()
	e.emitCount()
	return nil
}

// logout reverts to the anonymous state and the device-local list.
func (e *Engine) logout() {
	entries, err := e.local.Load()
	if err != nil {
		e.logger.Warn("discarding unreadable local list", slog.String("error", err.Error()))
		entries = nil
	}

	e.mu.Lock()
	e.state = StateAnonymous
	e.userID = ""
	e.lastSync = time.Time{}
	e.inProgress = false
	e.loading = false
	e.entries = entries
	e.mu.Unlock()

	e.notify()
	e.emitCount()
}
