package service

import (
	"context"
	"sync"
	"time"

	"storefront/models"
)

type setCall struct {
	Token     string
	ProductID string
	Qty       int
}

// fakeAPI is an in-memory storefront backend. The cart behaves like the real
// one: qty 0 removes the product and every write returns the full cart.
type fakeAPI struct {
	mu sync.Mutex

	products     []models.Product
	productsErr  error
	productCalls int

	searchFn    func(ctx context.Context, query string) ([]models.Product, error)
	searchCalls []string

	cart         []models.CartEntry
	cartErr      error
	getCartCalls int

	setFn    func(ctx context.Context, call setCall) ([]models.CartEntry, error)
	setCalls []setCall

	login    *models.LoginResponse
	loginErr error
	register *models.RegisterResponse
	regErr   error
	images   map[string][]byte
	imgCalls int
}

func newFakeAPI(products ...models.Product) *fakeAPI {
	return &fakeAPI{products: products, cart: []models.CartEntry{}, images: map[string][]byte{}}
}

func (f *fakeAPI) GetProducts(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	out := make([]models.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeAPI) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, query)
	fn := f.searchFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, query)
	}
	return []models.Product{}, nil
}

func (f *fakeAPI) GetCart(ctx context.Context, token string) ([]models.CartEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCartCalls++
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	return f.cartLocked(), nil
}

func (f *fakeAPI) SetCartItem(ctx context.Context, token, productID string, qty int) ([]models.CartEntry, error) {
	call := setCall{Token: token, ProductID: productID, Qty: qty}
	f.mu.Lock()
	f.setCalls = append(f.setCalls, call)
	fn := f.setFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, call)
	}
	return f.applySet(call), nil
}

func (f *fakeAPI) applySet(call setCall) []models.CartEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := []models.CartEntry{}
	found := false
	for _, e := range f.cart {
		if e.ProductID == call.ProductID {
			found = true
			if call.Qty > 0 {
				next = append(next, models.CartEntry{ProductID: e.ProductID, Qty: call.Qty})
			}
			continue
		}
		next = append(next, e)
	}
	if !found && call.Qty > 0 {
		next = append(next, models.CartEntry{ProductID: call.ProductID, Qty: call.Qty})
	}
	f.cart = next
	return f.cartLocked()
}

func (f *fakeAPI) cartLocked() []models.CartEntry {
	out := make([]models.CartEntry, len(f.cart))
	copy(out, f.cart)
	return out
}

func (f *fakeAPI) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	return f.login, f.loginErr
}

func (f *fakeAPI) Register(ctx context.Context, creds models.Credentials) (*models.RegisterResponse, error) {
	return f.register, f.regErr
}

func (f *fakeAPI) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imgCalls++
	data, ok := f.images[imageURL]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return data, nil
}

func (f *fakeAPI) searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.searchCalls...)
}

func (f *fakeAPI) serverCart() []models.CartEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cartLocked()
}

func (f *fakeAPI) cartFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCartCalls
}

func (f *fakeAPI) sets() []setCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]setCall{}, f.setCalls...)
}

// manualScheduler collects timers and fires them only when told to
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	mu      sync.Mutex
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (t *manualTimer) take() (func(), bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return nil, false
	}
	t.fired = true
	return t.f, true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// pending returns the timers that have neither fired nor been stopped
func (s *manualScheduler) pending() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTimer
	for _, t := range s.timers {
		t.mu.Lock()
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
		t.mu.Unlock()
	}
	return out
}

// fireAll runs every pending timer callback on the calling goroutine
func (s *manualScheduler) fireAll() int {
	n := 0
	for _, t := range s.pending() {
		if f, ok := t.take(); ok {
			f()
			n++
		}
	}
	return n
}

// fireAsync runs every pending timer callback on its own goroutine
func (s *manualScheduler) fireAsync(wg *sync.WaitGroup) int {
	n := 0
	for _, t := range s.pending() {
		if f, ok := t.take(); ok {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f()
			}()
			n++
		}
	}
	return n
}

func sampleCatalog() []models.Product {
	return []models.Product{
		{ID: "p1", Name: "iPhone XR", Category: "Phones", Cost: 100, Rating: 4, ImageURL: "https://i.imgur.com/lulqWzW.jpg"},
		{ID: "p2", Name: "Basketball", Category: "Sports", Cost: 25.5, Rating: 5, ImageURL: "https://i.imgur.com/basket.jpg"},
		{ID: "p3", Name: "Tan Leatherette Weekender Duffle", Category: "Fashion", Cost: 150, Rating: 4},
	}
}

func testSession() *models.Session {
	return &models.Session{Token: "testtoken", Username: "crio.do", Balance: 5000}
}
