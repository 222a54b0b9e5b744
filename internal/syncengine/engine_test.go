package syncengine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/bus"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
)

// --- Fakes ---

type fakeRemote struct {
	lists map[string][]domain.Entry

	failLoad   error
	failSave   error
	failAdd    error
	failRemove error
	saveCalls  int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{lists: make(map[string][]domain.Entry)}
}

func (f *fakeRemote) Load(_ context.Context, userID string) ([]domain.Entry, error) {
	if f.failLoad != nil {
		return nil, f.failLoad
	}
	return append([]domain.Entry(nil), f.lists[userID]...), nil
}

func (f *fakeRemote) Save(_ context.Context, userID string, entries []domain.Entry) error {
	if f.failSave != nil {
		return f.failSave
	}
	f.saveCalls++
	f.lists[userID] = append([]domain.Entry(nil), entries...)
	return nil
}

func (f *fakeRemote) Add(_ context.Context, userID string, e domain.Entry) error {
	if f.failAdd != nil {
		return f.failAdd
	}
	f.lists[userID] = append(f.lists[userID], e)
	return nil
}

func (f *fakeRemote) Remove(_ context.Context, userID string, productID string) error {
	if f.failRemove != nil {
		return f.failRemove
	}
	kept := f.lists[userID][:0]
	for _, e := range f.lists[userID] {
		if e.ProductID != productID {
			kept = append(kept, e)
		}
	}
	f.lists[userID] = kept
	return nil
}

func (f *fakeRemote) Clear(_ context.Context, userID string) error {
	delete(f.lists, userID)
	return nil
}

type fakeLocal struct {
	entries []domain.Entry

	failSave  error
	failClear error
	cleared   bool
}

func (f *fakeLocal) Load() ([]domain.Entry, error) {
	return append([]domain.Entry(nil), f.entries...), nil
}

func (f *fakeLocal) Save(entries []domain.Entry) error {
	if f.failSave != nil {
		return f.failSave
	}
	f.entries = append([]domain.Entry(nil), entries...)
	return nil
}

func (f *fakeLocal) Clear() error {
	if f.failClear != nil {
		return f.failClear
	}
	f.entries = nil
	f.cleared = true
	return nil
}

type fakeCatalog struct {
	products map[string]*domain.ProductSnapshot
	err      error
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*domain.ProductSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, errors.New("product not found")
	}
	snap := *p
	return &snap, nil
}

// --- Helpers ---

type testFixture struct {
	engine  *Engine
	remote  *fakeRemote
	local   *fakeLocal
	catalog *fakeCatalog
	bus     *bus.Bus
}

func newFixture(t *testing.T, collection domain.Collection) *testFixture {
	t.Helper()

	remote := newFakeRemote()
	local := &fakeLocal{}
	cat := &fakeCatalog{products: make(map[string]*domain.ProductSnapshot)}
	eventBus := bus.New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	engine := New(Config{
		Collection: collection,
		Remote:     remote,
		Local:      local,
		Catalog:    cat,
		Bus:        eventBus,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &testFixture{engine: engine, remote: remote, local: local, catalog: cat, bus: eventBus}
}

func snapshot(id string, price int64) *domain.ProductSnapshot {
	return &domain.ProductSnapshot{ID: id, Name: "Item " + id, Price: price}
}

func collectEvents(b *bus.Bus, kind bus.Kind) *[]bus.Event {
	var events []bus.Event
	b.SubscribeKind(kind, func(evt bus.Event) { events = append(events, evt) })
	return &events
}

// --- Anonymous mutations ---

func TestAddEntryAnonymousPersistsLocally(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	updates := collectEvents(f.bus, bus.KindWishlistUpdated)

	added, err := f.engine.AddEntry(context.Background(), "p1", snapshot("p1", 100))
	require.NoError(t, err)
	assert.True(t, added)

	assert.Equal(t, []string{"p1"}, domain.ProductIDs(f.local.entries))
	require.Len(t, *updates, 1)
	assert.Equal(t, 1, (*updates)[0].Payload.(bus.CountPayload).Count)
}

func TestAddEntryNotifiesSuccess(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	notifications := collectEvents(f.bus, bus.KindNotification)

	added, err := f.engine.AddEntry(context.Background(), "p1", nil)
	require.NoError(t, err)
	require.True(t, added)

	require.Len(t, *notifications, 1)
	payload := (*notifications)[0].Payload.(bus.NotificationPayload)
	assert.Equal(t, bus.LevelSuccess, payload.Level)
	assert.Contains(t, payload.Message, "wishlist")
}

func TestAddEntryDuplicateIsNoOp(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)

	_, err := f.engine.AddEntry(context.Background(), "p1", nil)
	require.NoError(t, err)

	updates := collectEvents(f.bus, bus.KindWishlistUpdated)
	added, err := f.engine.AddEntry(context.Background(), "p1", nil)
	require.NoError(t, err)

	assert.False(t, added)
	assert.Empty(t, *updates)
	assert.Len(t, f.engine.Current().Items, 1)
}

func TestAddEntryRollsBackOnWriteFailure(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	f.local.failSave = errors.New("disk full")
	updates := collectEvents(f.bus, bus.KindWishlistUpdated)

	added, err := f.engine.AddEntry(context.Background(), "p1", nil)

	assert.Error(t, err)
	assert.False(t, added)
	assert.Empty(t, f.engine.Current().Items)
	assert.Empty(t, *updates)
}

func TestRemoveEntryAbsentIsIdempotent(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	updates := collectEvents(f.bus, bus.KindWishlistUpdated)

	err := f.engine.RemoveEntry(context.Background(), "ghost")

	assert.NoError(t, err)
	assert.Empty(t, *updates)
}

func TestRemoveEntryRestoresOnWriteFailure(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	_, err := f.engine.AddEntry(ctx, "p1", snapshot("p1", 100))
	require.NoError(t, err)
	_, err = f.engine.AddEntry(ctx, "p2", snapshot("p2", 200))
	require.NoError(t, err)

	// The catalog now knows a fresher snapshot for p1.
	f.catalog.products["p1"] = snapshot("p1", 150)
	f.local.failSave = errors.New("disk full")

	err = f.engine.RemoveEntry(ctx, "p1")
	assert.Error(t, err)

	snap := f.engine.Current()
	assert.Equal(t, []string{"p1", "p2"}, snap.Items)
	assert.Equal(t, int64(150), snap.Details["p1"].Price)
}

func TestToggle(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	present, err := f.engine.Toggle(ctx, "p1", nil)
	require.NoError(t, err)
	assert.True(t, present)

	present, err = f.engine.Toggle(ctx, "p1", nil)
	require.NoError(t, err)
	assert.False(t, present)
	assert.Empty(t, f.engine.Current().Items)
}

func TestClear(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	_, _ = f.engine.AddEntry(ctx, "p1", nil)
	_, _ = f.engine.AddEntry(ctx, "p2", nil)

	require.NoError(t, f.engine.Clear(ctx))
	assert.Empty(t, f.engine.Current().Items)
	assert.Empty(t, f.local.entries)

	// Clearing an empty list is a no-op.
	assert.NoError(t, f.engine.Clear(ctx))
}

func TestClearFailureDoesNotRestore(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	_, _ = f.engine.AddEntry(ctx, "p1", nil)
	f.local.failClear = errors.New("disk full")

	err := f.engine.Clear(ctx)
	assert.Error(t, err)
	assert.Empty(t, f.engine.Current().Items)
}

// --- Cart quantities ---

func TestCartAddAndUpdateQuantity(t *testing.T) {
	f := newFixture(t, domain.CollectionCart)
	ctx := context.Background()

	_, err := f.engine.AddEntry(ctx, "p1", snapshot("p1", 100))
	require.NoError(t, err)
	assert.Equal(t, 1, f.engine.Current().Count)

	require.NoError(t, f.engine.UpdateQuantity(ctx, "p1", 3))
	assert.Equal(t, 3, f.engine.Current().Count)
}

func TestCartRepeatAddIncrementsQuantity(t *testing.T) {
	f := newFixture(t, domain.CollectionCart)
	ctx := context.Background()

	_, err := f.engine.AddEntry(ctx, "p1", snapshot("p1", 100))
	require.NoError(t, err)

	added, err := f.engine.AddEntry(ctx, "p1", nil)
	require.NoError(t, err)

	assert.False(t, added)
	assert.Len(t, f.engine.Current().Items, 1)
	assert.Equal(t, 2, f.engine.Current().Count)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	f := newFixture(t, domain.CollectionCart)
	ctx := context.Background()

	_, _ = f.engine.AddEntry(ctx, "p1", nil)

	require.NoError(t, f.engine.UpdateQuantity(ctx, "p1", 0))
	assert.Empty(t, f.engine.Current().Items)
}

func TestUpdateQuantityRestoresOnFailure(t *testing.T) {
	f := newFixture(t, domain.CollectionCart)
	ctx := context.Background()

	_, _ = f.engine.AddEntry(ctx, "p1", nil)
	require.NoError(t, f.engine.UpdateQuantity(ctx, "p1", 2))

	f.local.failSave = errors.New("disk full")
	err := f.engine.UpdateQuantity(ctx, "p1", 5)

	assert.Error(t, err)
	assert.Equal(t, 2, f.engine.Current().Count)
}

func TestUpdateQuantityUnknownProduct(t *testing.T) {
	f := newFixture(t, domain.CollectionCart)

	err := f.engine.UpdateQuantity(context.Background(), "ghost", 2)
	assert.Error(t, err)
}

// --- Login merge ---

func TestSyncOnLoginMergesRemoteFirst(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	_, _ = f.engine.AddEntry(ctx, "a", nil)
	_, _ = f.engine.AddEntry(ctx, "b", nil)
	f.remote.lists["u1"] = []domain.Entry{{ProductID: "b"}, {ProductID: "c"}}

	require.NoError(t, f.engine.HandleAuthChange(ctx, "u1"))

	assert.Equal(t, []string{"b", "c", "a"}, f.engine.Current().Items)
	assert.Equal(t, []string{"b", "c", "a"}, domain.ProductIDs(f.remote.lists["u1"]))
	assert.True(t, f.local.cleared)

	status := f.engine.Status()
	assert.Equal(t, StateSynced, status.State)
	assert.Equal(t, "u1", status.UserID)
	assert.False(t, status.LastSyncTime.IsZero())
	assert.False(t, status.InProgress)
}

func TestSyncOnLoginEmptyRemoteKeepsLocal(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	_, _ = f.engine.AddEntry(ctx, "a", nil)

	require.NoError(t, f.engine.HandleAuthChange(ctx, "u1"))

	assert.Equal(t, []string{"a"}, f.engine.Current().Items)
	assert.Equal(t, []string{"a"}, domain.ProductIDs(f.remote.lists["u1"]))
	assert.True(t, f.local.cleared)
}

func TestSyncOnLoginEmptyBothSkipsWrite(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)

	require.NoError(t, f.engine.HandleAuthChange(context.Background(), "u1"))

	assert.Equal(t, 0, f.remote.saveCalls)
	assert.Equal(t, StateSynced, f.engine.Status().State)
}

func TestSyncOnLoginLoadFailureRevertsToAnonymous(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	_, _ = f.engine.AddEntry(ctx, "a", nil)
	f.remote.failLoad = errors.New("network down")
	notifications := collectEvents(f.bus, bus.KindNotification)

	err := f.engine.HandleAuthChange(ctx, "u1")

	assert.Error(t, err)
	assert.Equal(t, StateAnonymous, f.engine.Status().State)
	assert.False(t, f.local.cleared)
	assert.Equal(t, []string{"a"}, f.engine.Current().Items)
	require.Len(t, *notifications, 1)
	assert.Equal(t, bus.LevelError, (*notifications)[0].Payload.(bus.NotificationPayload).Level)
}

func TestSyncOnLoginSaveFailureKeepsLocalCache(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	_, _ = f.engine.AddEntry(ctx, "a", nil)
	f.remote.failSave = errors.New("write denied")

	err := f.engine.HandleAuthChange(ctx, "u1")

	assert.Error(t, err)
	assert.False(t, f.local.cleared)
	assert.Equal(t, StateAnonymous, f.engine.Status().State)
}

func TestSyncInProgressGuard(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)

	f.engine.mu.Lock()
	f.engine.inProgress = true
	f.engine.mu.Unlock()

	require.NoError(t, f.engine.HandleAuthChange(context.Background(), "u1"))

	// The guarded call was a no-op: still anonymous, nothing written.
	f.engine.mu.Lock()
	f.engine.inProgress = false
	f.engine.mu.Unlock()
	assert.Equal(t, StateAnonymous, f.engine.Status().State)
	assert.Empty(t, f.remote.lists)
}

func TestRepeatLoginSameUserIsNoOp(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	require.NoError(t, f.engine.HandleAuthChange(ctx, "u1"))
	first := f.engine.Status().LastSyncTime

	require.NoError(t, f.engine.HandleAuthChange(ctx, "u1"))
	assert.Equal(t, first, f.engine.Status().LastSyncTime)
}

func TestLogoutRevertsToLocalList(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	f.remote.lists["u1"] = []domain.Entry{{ProductID: "r1"}}
	require.NoError(t, f.engine.HandleAuthChange(ctx, "u1"))
	assert.Equal(t, []string{"r1"}, f.engine.Current().Items)

	require.NoError(t, f.engine.HandleAuthChange(ctx, ""))

	status := f.engine.Status()
	assert.Equal(t, StateAnonymous, status.State)
	assert.Empty(t, status.UserID)
	assert.Empty(t, f.engine.Current().Items)
}

// --- Synced mutations ---

func TestSyncedMutationsWriteRemote(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	require.NoError(t, f.engine.HandleAuthChange(ctx, "u1"))

	_, err := f.engine.AddEntry(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, domain.ProductIDs(f.remote.lists["u1"]))

	require.NoError(t, f.engine.RemoveEntry(ctx, "p1"))
	assert.Empty(t, f.remote.lists["u1"])
}

func TestSyncedAddRollsBackOnRemoteFailure(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	require.NoError(t, f.engine.HandleAuthChange(ctx, "u1"))
	f.remote.failAdd = errors.New("permission denied")

	added, err := f.engine.AddEntry(ctx, "p1", nil)

	assert.Error(t, err)
	assert.False(t, added)
	assert.Empty(t, f.engine.Current().Items)
}

// --- Move all to cart ---

func TestMoveAllToCart(t *testing.T) {
	wishlist := newFixture(t, domain.CollectionWishlist)
	cart := newFixture(t, domain.CollectionCart)
	ctx := context.Background()

	_, _ = wishlist.engine.AddEntry(ctx, "p1", snapshot("p1", 100))
	_, _ = wishlist.engine.AddEntry(ctx, "p2", snapshot("p2", 200))

	moved, failed := wishlist.engine.MoveAllToCart(ctx, cart.engine)

	assert.Equal(t, 2, moved)
	assert.Equal(t, 0, failed)
	assert.Empty(t, wishlist.engine.Current().Items)
	assert.Equal(t, []string{"p1", "p2"}, cart.engine.Current().Items)
}

func TestMoveAllToCartCountsFailures(t *testing.T) {
	wishlist := newFixture(t, domain.CollectionWishlist)
	cart := newFixture(t, domain.CollectionCart)
	ctx := context.Background()

	_, _ = wishlist.engine.AddEntry(ctx, "p1", nil)
	cart.local.failSave = errors.New("disk full")

	moved, failed := wishlist.engine.MoveAllToCart(ctx, cart.engine)

	assert.Equal(t, 0, moved)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"p1"}, wishlist.engine.Current().Items)
}

// --- Price refresh ---

func TestCheckPricesRaisesDirectionalEvents(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	_, _ = f.engine.AddEntry(ctx, "drop", snapshot("drop", 200))
	_, _ = f.engine.AddEntry(ctx, "rise", snapshot("rise", 100))
	_, _ = f.engine.AddEntry(ctx, "same", snapshot("same", 50))

	f.catalog.products["drop"] = snapshot("drop", 150)
	f.catalog.products["rise"] = snapshot("rise", 120)
	f.catalog.products["same"] = snapshot("same", 50)

	changes := collectEvents(f.bus, bus.KindPriceChanged)

	changed := f.engine.CheckPrices(ctx)

	assert.Equal(t, 2, changed)
	require.Len(t, *changes, 2)

	byID := map[string]bus.PriceChangePayload{}
	for _, evt := range *changes {
		p := evt.Payload.(bus.PriceChangePayload)
		byID[p.ProductID] = p
	}
	assert.Equal(t, bus.DirectionDrop, byID["drop"].Direction)
	assert.Equal(t, bus.DirectionIncrease, byID["rise"].Direction)

	// Cached snapshots were refreshed.
	assert.Equal(t, int64(150), f.engine.Current().Details["drop"].Price)
}

func TestCheckPricesSkipsUnresolvableProducts(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)
	ctx := context.Background()

	_, _ = f.engine.AddEntry(ctx, "gone", snapshot("gone", 100))

	changed := f.engine.CheckPrices(ctx)
	assert.Equal(t, 0, changed)
}

// --- Subscriptions ---

func TestSubscribeReceivesImmediateAndMutationSnapshots(t *testing.T) {
	f := newFixture(t, domain.CollectionWishlist)

	var snaps []Snapshot
	unsubscribe := f.engine.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	require.Len(t, snaps, 1)
	assert.Empty(t, snaps[0].Items)

	_, _ = f.engine.AddEntry(context.Background(), "p1", nil)
	require.Len(t, snaps, 2)
	assert.Equal(t, []string{"p1"}, snaps[1].Items)

	unsubscribe()
	_, _ = f.engine.AddEntry(context.Background(), "p2", nil)
	assert.Len(t, snaps, 2)
}
