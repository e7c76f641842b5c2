package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/utils"
)

// DefaultSearchDebounce is the quiescence window before a search request fires
const DefaultSearchDebounce = 500 * time.Millisecond

// SearchPhase is the state of the latest issued search
type SearchPhase string

const (
	SearchIdle       SearchPhase = "idle"
	SearchPending    SearchPhase = "pending"
	SearchResolved   SearchPhase = "resolved"
	SearchSuperseded SearchPhase = "superseded"
	SearchFailed     SearchPhase = "failed"
)

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Scheduler schedules debounce callbacks. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SearchView is what the product list displays
type SearchView struct {
	Query    string           `json:"query"`
	Seq      uint64           `json:"seq"`
	Phase    SearchPhase      `json:"phase"`
	Products []models.Product `json:"products"`
	// NotFound is set for zero matches and for failures
	NotFound bool        `json:"notFound"`
	Err      *StoreError `json:"-"`
}

func (v SearchView) clone() SearchView {
	out := v
	out.Products = make([]models.Product, len(v.Products))
	copy(out.Products, v.Products)
	return out
}

// SearchCoordinator debounces keystrokes into search requests and applies only
// the reply for the latest issued sequence number.
type SearchCoordinator struct {
	api     SearchAPI
	catalog CatalogSnapshotter
	window  time.Duration
	sched   Scheduler
	obs     Observers

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	seq     uint64
	latest  string
	timer   Timer
	view    SearchView
	subs    map[int]chan SearchView
	nextSub int
	closed  bool
}

// SearchOption configures a SearchCoordinator
type SearchOption func(*SearchCoordinator)

// WithDebounce sets the quiescence window
func WithDebounce(d time.Duration) SearchOption {
	return func(c *SearchCoordinator) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithScheduler replaces the timer source
func WithScheduler(s Scheduler) SearchOption {
	return func(c *SearchCoordinator) {
		if s != nil {
			c.sched = s
		}
	}
}

// NewSearchCoordinator creates a coordinator in the Idle state
func NewSearchCoordinator(api SearchAPI, catalog CatalogSnapshotter, obs Observers, opts ...SearchOption) *SearchCoordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &SearchCoordinator{
		api:     api,
		catalog: catalog,
		window:  DefaultSearchDebounce,
		sched:   realScheduler{},
		obs:     obs,
		ctx:     ctx,
		cancel:  cancel,
		view:    SearchView{Phase: SearchIdle, Products: []models.Product{}},
		subs:    map[int]chan SearchView{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Keystroke registers the current value of the search box.
// Whitespace-only edits of the latest query are ignored unless its search
// failed, in which case the same query is sent again. A blank query restores
// the catalog immediately without a network call; anything else is sent after
// the debounce window unless another keystroke arrives first.
func (c *SearchCoordinator) Keystroke(value string) {
	query := utils.NormalizeQuery(value)

	c.mu.Lock()
	if c.closed || (query == c.latest && c.view.Phase != SearchFailed) {
		c.mu.Unlock()
		return
	}

	c.seq++
	seq := c.seq
	c.latest = query
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	if query == "" {
		c.view = SearchView{
			Seq:      seq,
			Phase:    SearchResolved,
			Products: c.catalog.Snapshot(),
		}
		c.publishLocked()
		c.mu.Unlock()

		c.obs.Metrics.ObserveSearch("bypassed")
		return
	}

	c.view.Query = query
	c.view.Seq = seq
	c.view.Phase = SearchPending
	c.timer = c.sched.AfterFunc(c.window, func() { c.fire(seq, query) })
	c.publishLocked()
	c.mu.Unlock()
}

// ShowCatalog refreshes the displayed list from the catalog when no query is active
func (c *SearchCoordinator) ShowCatalog() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.latest != "" {
		return
	}
	c.view.Products = c.catalog.Snapshot()
	c.view.NotFound = false
	c.view.Err = nil
	if c.view.Phase == SearchFailed {
		c.view.Phase = SearchResolved
	}
	c.publishLocked()
}

func (c *SearchCoordinator) fire(seq uint64, query string) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.wg.Add(1)
	ctx := c.ctx
	c.mu.Unlock()
	defer c.wg.Done()

	c.obs.logger().Debug("search request issued", zap.Uint64("seq", seq), zap.String("query", query))
	products, err := c.api.SearchProducts(ctx, query)
	c.apply(seq, query, products, err)
}

func (c *SearchCoordinator) apply(seq uint64, query string, products []models.Product, err error) {
	c.mu.Lock()
	if seq != c.seq {
		latest := c.seq
		c.mu.Unlock()

		c.obs.logger().Debug("search reply superseded", zap.Uint64("seq", seq), zap.Uint64("latest", latest))
		c.obs.Metrics.ObserveSearch(string(SearchSuperseded))
		c.obs.record(c.ctx, models.ActivityEvent{Kind: models.ActivitySearch, Query: query, Outcome: string(SearchSuperseded)})
		return
	}

	var storeErr *StoreError
	if err != nil {
		storeErr = classify(opSearch, err)
		// previous results stay on screen; the failure is flagged separately
		c.view.Query = query
		c.view.Phase = SearchFailed
		c.view.NotFound = true
		c.view.Err = storeErr
	} else {
		copied := make([]models.Product, len(products))
		copy(copied, products)
		c.view = SearchView{
			Query:    query,
			Seq:      seq,
			Phase:    SearchResolved,
			Products: copied,
			NotFound: len(copied) == 0,
		}
	}
	c.publishLocked()
	c.mu.Unlock()

	event := models.ActivityEvent{Kind: models.ActivitySearch, Query: query, Outcome: string(SearchResolved), Qty: len(products)}
	if storeErr != nil {
		c.obs.logger().Warn("search failed", zap.String("query", query), zap.Error(err))
		event.Outcome = string(SearchFailed)
		event.Message = storeErr.Message
		event.Qty = 0
	}
	c.obs.Metrics.ObserveSearch(event.Outcome)
	c.obs.record(c.ctx, event)
}

// View returns a copy of the current search view
func (c *SearchCoordinator) View() SearchView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// LatestSeq returns the latest issued sequence number
func (c *SearchCoordinator) LatestSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Subscribe returns a channel that receives the newest view after every change.
// A slow reader only misses intermediate views, never the latest one.
func (c *SearchCoordinator) Subscribe() (<-chan SearchView, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan SearchView, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *SearchCoordinator) publishLocked() {
	for _, ch := range c.subs {
		view := c.view.clone()
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- view:
		default:
		}
	}
}

// Close stops the pending timer, cancels in-flight requests and waits for them
func (c *SearchCoordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
