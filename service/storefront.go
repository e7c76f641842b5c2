package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/models"
	"storefront/pricing"
)

const maxNotifications = 20

// StorefrontConfig holds the per-visitor tunables
type StorefrontConfig struct {
	Debounce  time.Duration
	Scheduler Scheduler
}

// Storefront is the view model of one visitor: catalog, search, cart and
// the notifications produced by them.
type Storefront struct {
	catalog *CatalogStore
	search  *SearchCoordinator
	cart    *CartCoordinator
	obs     Observers

	mu            sync.Mutex
	session       *models.Session
	notifications []models.Notification
}

// NewStorefront wires the components for a single visitor
func NewStorefront(api StorefrontAPI, cfg StorefrontConfig, obs Observers) *Storefront {
	catalog := NewCatalogStore(api, obs)
	return &Storefront{
		catalog:       catalog,
		search:        NewSearchCoordinator(api, catalog, obs, WithDebounce(cfg.Debounce), WithScheduler(cfg.Scheduler)),
		cart:          NewCartCoordinator(api, catalog, obs),
		obs:           obs,
		notifications: []models.Notification{},
	}
}

// Init loads the catalog and, for a logged-in visitor, the cart.
// Both fetches run concurrently. Failures become notifications and the
// storefront stays usable; the joined error is returned for logging.
func (s *Storefront) Init(ctx context.Context) error {
	session := s.Session()

	var catalogErr, cartErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, catalogErr = s.catalog.Load(gctx)
		return nil
	})
	if session.Authenticated() {
		g.Go(func() error {
			_, cartErr = s.cart.Load(gctx, session)
			return nil
		})
	}
	_ = g.Wait()

	s.cart.Remerge()
	s.search.ShowCatalog()

	for _, err := range []error{catalogErr, cartErr} {
		if err != nil {
			s.Notify(ToNotification(err))
		}
	}
	err := errors.Join(catalogErr, cartErr)
	if err != nil {
		s.obs.logger().Warn("storefront initialized with errors", zap.Error(err))
	}
	return err
}

// SetSession installs the session of a logged-in visitor
func (s *Storefront) SetSession(session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session == nil {
		s.session = nil
		return
	}
	copied := *session
	s.session = &copied
}

// Logout drops the session and empties the cart view
func (s *Storefront) Logout() {
	s.SetSession(nil)
	s.cart.Reset()
}

// Session returns a copy of the current session, or nil
func (s *Storefront) Session() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

// Search registers a keystroke in the search box
func (s *Storefront) Search(value string) {
	s.search.Keystroke(value)
}

// Products returns the product list currently shown
func (s *Storefront) Products() SearchView {
	return s.search.View()
}

// Cart returns the current cart
func (s *Storefront) Cart() CartView {
	return s.cart.Snapshot()
}

// AddToCart adds one unit of a product not yet in the cart
func (s *Storefront) AddToCart(ctx context.Context, productID string) (CartView, error) {
	view, err := s.cart.AddNew(ctx, s.Session(), productID)
	s.notifyErr(err)
	return view, err
}

// Increment raises the quantity of a product in the cart by one
func (s *Storefront) Increment(ctx context.Context, productID string) (CartView, error) {
	view, err := s.cart.Adjust(ctx, s.Session(), productID, Increment)
	s.notifyErr(err)
	return view, err
}

// Decrement lowers the quantity of a product in the cart by one
func (s *Storefront) Decrement(ctx context.Context, productID string) (CartView, error) {
	view, err := s.cart.Adjust(ctx, s.Session(), productID, Decrement)
	s.notifyErr(err)
	return view, err
}

// Summary returns the read-only order details of the current cart
func (s *Storefront) Summary() models.OrderSummary {
	username := ""
	if session := s.Session(); session != nil {
		username = session.Username
	}
	return pricing.Summarize(username, s.cart.Snapshot().Items)
}

// Notify queues a notification; the oldest are dropped past the limit
func (s *Storefront) Notify(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, n)
	if over := len(s.notifications) - maxNotifications; over > 0 {
		s.notifications = append([]models.Notification{}, s.notifications[over:]...)
	}
}

func (s *Storefront) notifyErr(err error) {
	if err != nil {
		s.Notify(ToNotification(err))
	}
}

// Notifications drains the queued notifications
func (s *Storefront) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.notifications
	s.notifications = []models.Notification{}
	return out
}

// Catalog returns the visitor's catalog store
func (s *Storefront) Catalog() *CatalogStore { return s.catalog }

// SearchCoordinator returns the visitor's search coordinator
func (s *Storefront) SearchCoordinator() *SearchCoordinator { return s.search }

// CartCoordinator returns the visitor's cart coordinator
func (s *Storefront) CartCoordinator() *CartCoordinator { return s.cart }

// Close stops pending searches
func (s *Storefront) Close() {
	s.search.Close()
}

// LoadCart refreshes the cart of the logged-in visitor
func (s *Storefront) LoadCart(ctx context.Context) (CartView, error) {
	view, err := s.cart.Load(ctx, s.Session())
	s.notifyErr(err)
	return view, err
}

// ReloadCatalog retries the catalog fetch after a failed load
func (s *Storefront) ReloadCatalog(ctx context.Context) error {
	_, err := s.catalog.Load(ctx)
	s.notifyErr(err)
	s.cart.Remerge()
	s.search.ShowCatalog()
	return err
}
