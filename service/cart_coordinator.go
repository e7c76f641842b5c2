package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"storefront/models"
	"storefront/pricing"
)

// CartDirection is the direction of a quantity adjustment
type CartDirection int

const (
	Increment CartDirection = iota
	Decrement
)

func (d CartDirection) String() string {
	if d == Decrement {
		return "decrement"
	}
	return "increment"
}

// CartView is a copy of the cart as last confirmed by the server
type CartView struct {
	Entries []models.CartEntry `json:"entries"`
	Items   []models.CartItem  `json:"items"`
	Totals  models.CartTotals  `json:"totals"`
}

// CartCoordinator turns visitor intents into cart writes.
// Cart calls run one at a time, in call order, so every reply is the newest
// server state and replaces the whole cart snapshot. Replies to calls issued
// before a Reset are dropped.
type CartCoordinator struct {
	api     CartAPI
	catalog CatalogSnapshotter
	obs     Observers

	calls *semaphore.Weighted

	mu      sync.Mutex
	entries []models.CartEntry
	items   []models.CartItem
	epoch   uint64
}

// NewCartCoordinator creates a CartCoordinator with an empty cart
func NewCartCoordinator(api CartAPI, catalog CatalogSnapshotter, obs Observers) *CartCoordinator {
	return &CartCoordinator{
		api:     api,
		catalog: catalog,
		obs:     obs,
		calls:   semaphore.NewWeighted(1),
		entries: []models.CartEntry{},
		items:   []models.CartItem{},
	}
}

// Load fetches the authoritative cart for session and replaces the snapshot
func (c *CartCoordinator) Load(ctx context.Context, session *models.Session) (CartView, error) {
	if !session.Authenticated() {
		err := newStoreError(KindUnauthenticated, msgLoginRequired, nil)
		c.observe(ctx, "load", models.ActivityCartLoad, session, "", 0, err)
		return c.Snapshot(), err
	}

	epoch, release, err := c.lock(ctx)
	if err != nil {
		c.observe(ctx, "load", models.ActivityCartLoad, session, "", 0, err)
		return c.Snapshot(), err
	}
	defer release()

	entries, err := c.api.GetCart(ctx, session.Token)
	if err != nil {
		storeErr := classify(opCartFetch, err)
		c.obs.logger().Warn("cart load failed", zap.String("username", session.Username), zap.Error(err))
		c.observe(ctx, "load", models.ActivityCartLoad, session, "", 0, storeErr)
		return c.Snapshot(), storeErr
	}

	view := c.apply(epoch, entries)
	c.observe(ctx, "load", models.ActivityCartLoad, session, "", len(entries), nil)
	return view, nil
}

// AddNew puts one unit of productID in the cart.
// A product already in the cart is rejected without a network call.
func (c *CartCoordinator) AddNew(ctx context.Context, session *models.Session, productID string) (CartView, error) {
	if !session.Authenticated() {
		err := newStoreError(KindUnauthenticated, msgLoginRequired, nil)
		c.observe(ctx, "add", models.ActivityCartAdd, session, productID, 1, err)
		return c.Snapshot(), err
	}

	epoch, release, err := c.lock(ctx)
	if err != nil {
		c.observe(ctx, "add", models.ActivityCartAdd, session, productID, 1, err)
		return c.Snapshot(), err
	}
	defer release()

	c.mu.Lock()
	inCart := pricing.Contains(c.items, productID)
	c.mu.Unlock()
	if inCart {
		err := newStoreError(KindAlreadyInCart, msgAlreadyInCart, nil)
		c.observe(ctx, "add", models.ActivityCartAdd, session, productID, 1, err)
		return c.Snapshot(), err
	}

	return c.write(ctx, epoch, "add", models.ActivityCartAdd, session, productID, 1)
}

// Adjust changes the quantity of a product already in the cart by one.
// The current quantity is read after earlier cart calls have completed. Decrementing a quantity of 1 sends 0, which removes the product.
func (c *CartCoordinator) Adjust(ctx context.Context, session *models.Session, productID string, dir CartDirection) (CartView, error) {
	op := dir.String()
	if !session.Authenticated() {
		err := newStoreError(KindUnauthenticated, msgLoginRequired, nil)
		c.observe(ctx, op, models.ActivityCartAdjust, session, productID, 0, err)
		return c.Snapshot(), err
	}

	epoch, release, err := c.lock(ctx)
	if err != nil {
		c.observe(ctx, op, models.ActivityCartAdjust, session, productID, 0, err)
		return c.Snapshot(), err
	}
	defer release()

	c.mu.Lock()
	item, found := pricing.Find(c.items, productID)
	c.mu.Unlock()
	if !found {
		err := newStoreError(KindProductNotFound, msgNotInCart, nil)
		c.observe(ctx, op, models.ActivityCartAdjust, session, productID, 0, err)
		return c.Snapshot(), err
	}

	qty := item.Qty + 1
	if dir == Decrement {
		qty = item.Qty - 1
		if qty < 0 {
			qty = 0
		}
	}
	return c.write(ctx, epoch, op, models.ActivityCartAdjust, session, productID, qty)
}

func (c *CartCoordinator) write(ctx context.Context, epoch uint64, op string, kind models.ActivityKind, session *models.Session, productID string, qty int) (CartView, error) {
	entries, err := c.api.SetCartItem(ctx, session.Token, productID, qty)
	if err != nil {
		storeErr := classify(opCartMutate, err)
		c.obs.logger().Warn("cart update failed",
			zap.String("op", op),
			zap.String("product_id", productID),
			zap.Int("qty", qty),
			zap.Error(err))
		c.observe(ctx, op, kind, session, productID, qty, storeErr)
		return c.Snapshot(), storeErr
	}

	view := c.apply(epoch, entries)
	c.observe(ctx, op, kind, session, productID, qty, nil)
	return view, nil
}

// Remerge rebuilds the merged items from the current entries and catalog
func (c *CartCoordinator) Remerge() CartView {
	catalog := c.catalog.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = pricing.Merge(c.entries, catalog)
	return c.snapshotLocked()
}

// Reset empties the cart and discards replies to requests already in flight
func (c *CartCoordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.entries = []models.CartEntry{}
	c.items = []models.CartItem{}
}

// Snapshot returns a copy of the current cart
func (c *CartCoordinator) Snapshot() CartView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *CartCoordinator) snapshotLocked() CartView {
	entries := make([]models.CartEntry, len(c.entries))
	copy(entries, c.entries)
	items := make([]models.CartItem, len(c.items))
	copy(items, c.items)

	return CartView{
		Entries: entries,
		Items:   items,
		Totals:  pricing.Totals(items),
	}
}

// apply replaces the snapshot with entries unless the cart was reset after
// the call was issued
func (c *CartCoordinator) apply(epoch uint64, entries []models.CartEntry) CartView {
	catalog := c.catalog.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.obs.logger().Debug("discarding cart reply from before reset",
			zap.Uint64("epoch", epoch),
			zap.Uint64("current", c.epoch))
		return c.snapshotLocked()
	}

	copied := make([]models.CartEntry, len(entries))
	copy(copied, entries)
	c.entries = copied
	c.items = pricing.Merge(copied, catalog)
	return c.snapshotLocked()
}

// lock waits for earlier cart calls and returns the current epoch with the
// release func
func (c *CartCoordinator) lock(ctx context.Context) (uint64, func(), error) {
	if err := c.calls.Acquire(ctx, 1); err != nil {
		return 0, nil, newStoreError(KindNetworkOrServer, msgGeneric, err)
	}

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()
	return epoch, func() { c.calls.Release(1) }, nil
}

func (c *CartCoordinator) observe(ctx context.Context, op string, kind models.ActivityKind, session *models.Session, productID string, qty int, err error) {
	c.obs.Metrics.ObserveCartMutation(op, outcomeOf(err))

	event := models.ActivityEvent{
		Kind:      kind,
		ProductID: productID,
		Qty:       qty,
		Outcome:   outcomeOf(err),
		Message:   messageOf(err),
	}
	if session != nil {
		event.Username = session.Username
	}
	c.obs.record(ctx, event)
}
