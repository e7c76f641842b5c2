package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront/client"
	"storefront/metrics"
	"storefront/models"
	"storefront/repository"
)

func newTestCart(t *testing.T, api *fakeAPI, obs Observers) *CartCoordinator {
	t.Helper()
	catalog := NewCatalogStore(api, obs)
	_, err := catalog.Load(context.Background())
	require.NoError(t, err)
	return NewCartCoordinator(api, catalog, obs)
}

func TestCartCoordinator_Load(t *testing.T) {
	api := newFakeAPI(sampleCatalog()...)
	api.cart = []models.CartEntry{{ProductID: "p1", Qty: 2}, {ProductID: "gone", Qty: 1}}
	cart := newTestCart(t, api, Observers{})

	view, err := cart.Load(context.Background(), testSession())
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, "p1", view.Items[0].ProductID)
	assert.Equal(t, 2, view.Items[0].Qty)
	assert.Equal(t, 100.0, view.Items[0].Cost)
	assert.Equal(t, models.CartTotals{ItemCount: 1, Subtotal: 200}, view.Totals)
	assert.Len(t, view.Entries, 2, "entries are kept as the server sent them")
}

func TestCartCoordinator_RequiresSession(t *testing.T) {
	api := newFakeAPI(sampleCatalog()...)
	cart := newTestCart(t, api, Observers{})
	ctx := context.Background()

	for _, session := range []*models.Session{nil, {Username: "no-token"}} {
		_, err := cart.Load(ctx, session)
		assert.ErrorIs(t, err, ErrUnauthenticated)

		_, err = cart.AddNew(ctx, session, "p1")
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Equal(t, msgLoginRequired, ToNotification(err).Message)

		_, err = cart.Adjust(ctx, session, "p1", Increment)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}

	assert.Zero(t, api.getCartCalls)
	assert.Empty(t, api.sets())
}

func TestCartCoordinator_AddNew(t *testing.T) {
	api := newFakeAPI(sampleCatalog()...)
	cart := newTestCart(t, api, Observers{})

	view, err := cart.AddNew(context.Background(), testSession(), "p2")
	require.NoError(t, err)

	assert.Equal(t, []setCall{{Token: "testtoken", ProductID: "p2", Qty: 1}}, api.sets())
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Basketball", view.Items[0].Name)
	assert.Equal(t, 25.5, view.Totals.Subtotal)
}

func TestCartCoordinator_AddNewAlreadyInCart(t *testing.T) {
	api := newFakeAPI(sampleCatalog()...)
	api.cart = []models.CartEntry{{ProductID: "p1", Qty: 1}}
	cart := newTestCart(t, api, Observers{})
	_, err := cart.Load(context.Background(), testSession())
	require.NoError(t, err)

	view, err := cart.AddNew(context.Background(), testSession(), "p1")
	assert.ErrorIs(t, err, ErrAlreadyInCart)
	assert.Equal(t, msgAlreadyInCart, ToNotification(err).Message)
	assert.Equal(t, "warning", ToNotification(err).Variant)
	assert.Empty(t, api.sets(), "no network call")
	assert.Len(t, view.Items, 1)
}

func TestCartCoordinator_Adjust(t *testing.T) {
	t.Run("decrement from one removes the item", func(t *testing.T) {
		api := newFakeAPI(sampleCatalog()...)
		api.cart = []models.CartEntry{{ProductID: "p1", Qty: 1}, {ProductID: "p2", Qty: 3}}
		cart := newTestCart(t, api, Observers{})
		_, err := cart.Load(context.Background(), testSession())
		require.NoError(t, err)

		view, err := cart.Adjust(context.Background(), testSession(), "p1", Decrement)
		require.NoError(t, err)

		assert.Equal(t, []setCall{{Token: "testtoken", ProductID: "p1", Qty: 0}}, api.sets())
		require.Len(t, view.Items, 1)
		assert.Equal(t, "p2", view.Items[0].ProductID)
		assert.Equal(t, models.CartTotals{ItemCount: 1, Subtotal: 76.5}, view.Totals)
	})

	t.Run("increment sends qty plus one", func(t *testing.T) {
		api := newFakeAPI(sampleCatalog()...)
		api.cart = []models.CartEntry{{ProductID: "p3", Qty: 2}}
		cart := newTestCart(t, api, Observers{})
		_, err := cart.Load(context.Background(), testSession())
		require.NoError(t, err)

		view, err := cart.Adjust(context.Background(), testSession(), "p3", Increment)
		require.NoError(t, err)
		assert.Equal(t, 3, api.sets()[0].Qty)
		assert.Equal(t, 3, view.Items[0].Qty)
		assert.Equal(t, 450.0, view.Totals.Subtotal)
	})

	t.Run("item missing from the cart", func(t *testing.T) {
		api := newFakeAPI(sampleCatalog()...)
		cart := newTestCart(t, api, Observers{})

		_, err := cart.Adjust(context.Background(), testSession(), "p1", Increment)
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.Empty(t, api.sets())
	})
}

func TestCartCoordinator_ServerFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    *StoreError
		message string
	}{
		{
			name:    "unauthorized",
			err:     &client.APIError{StatusCode: http.StatusUnauthorized, Message: "Protected route, Oauth2 Bearer token not found"},
			want:    ErrUnauthenticated,
			message: "Protected route, Oauth2 Bearer token not found",
		},
		{
			name:    "unknown product",
			err:     &client.APIError{StatusCode: http.StatusNotFound, Message: "Product doesn't exist"},
			want:    ErrProductNotFound,
			message: "Product doesn't exist",
		},
		{
			name:    "bad request keeps server message",
			err:     &client.APIError{StatusCode: http.StatusBadRequest, Message: "Qty must be a number"},
			want:    ErrNetworkOrServer,
			message: "Qty must be a number",
		},
		{
			name:    "server error",
			err:     &client.APIError{StatusCode: http.StatusInternalServerError, Message: "stack trace"},
			want:    ErrNetworkOrServer,
			message: msgGeneric,
		},
		{
			name:    "transport error",
			err:     errors.New("connection refused"),
			want:    ErrNetworkOrServer,
			message: msgGeneric,
		},
		{
			name:    "malformed body",
			err:     client.ErrMalformedResponse,
			want:    ErrNetworkOrServer,
			message: msgGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(sampleCatalog()...)
			api.setFn = func(ctx context.Context, call setCall) ([]models.CartEntry, error) {
				return nil, tt.err
			}
			cart := newTestCart(t, api, Observers{})

			view, err := cart.AddNew(context.Background(), testSession(), "p1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.message, ToNotification(err).Message)
			assert.Empty(t, view.Items, "snapshot unchanged")
		})
	}
}

func TestCartCoordinator_LoadFailure(t *testing.T) {
	api := newFakeAPI(sampleCatalog()...)
	api.cartErr = errors.New("dial tcp: connection refused")
	cart := newTestCart(t, api, Observers{})

	_, err := cart.Load(context.Background(), testSession())
	assert.ErrorIs(t, err, ErrNetworkOrServer)
	assert.Equal(t, msgCartFetch, ToNotification(err).Message)

	api.cartErr = &client.APIError{StatusCode: http.StatusUnauthorized}
	_, err = cart.Load(context.Background(), testSession())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCartCoordinator_SameProductWritesAreSerialized(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	api := newFakeAPI(sampleCatalog()...)
	api.cart = []models.CartEntry{{ProductID: "p1", Qty: 1}}
	gate := make(chan struct{})
	var first sync.Once
	api.setFn = func(ctx context.Context, call setCall) ([]models.CartEntry, error) {
		first.Do(func() { <-gate })
		return api.applySet(call), nil
	}
	cart := newTestCart(t, api, Observers{})
	_, err := cart.Load(context.Background(), testSession())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := cart.Adjust(context.Background(), testSession(), "p1", Increment)
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return len(api.sets()) == 1 }, time.Second, time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := cart.Adjust(context.Background(), testSession(), "p1", Increment)
		assert.NoError(t, err)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Len(t, api.sets(), 1, "second write must wait for the first")

	close(gate)
	wg.Wait()

	calls := api.sets()
	require.Len(t, calls, 2)
	assert.Equal(t, 2, calls[0].Qty)
	assert.Equal(t, 3, calls[1].Qty, "second write reads the first's reply")
	assert.Equal(t, 3, cart.Snapshot().Items[0].Qty)
}

func TestCartCoordinator_QueuedWriteHonoursContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	api := newFakeAPI(sampleCatalog()...)
	gate := make(chan struct{})
	api.setFn = func(ctx context.Context, call setCall) ([]models.CartEntry, error) {
		<-gate
		return api.applySet(call), nil
	}
	cart := newTestCart(t, api, Observers{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := cart.AddNew(context.Background(), testSession(), "p1")
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return len(api.sets()) == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := cart.AddNew(ctx, testSession(), "p1")
	assert.ErrorIs(t, err, ErrNetworkOrServer)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate)
	<-done
	assert.Len(t, api.sets(), 1)
}

func TestCartCoordinator_WritesForDifferentProductsAreSerialized(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	api := newFakeAPI(sampleCatalog()...)
	api.cart = []models.CartEntry{{ProductID: "p1", Qty: 1}, {ProductID: "p2", Qty: 1}}
	gate := make(chan struct{})
	api.setFn = func(ctx context.Context, call setCall) ([]models.CartEntry, error) {
		if call.ProductID == "p1" {
			<-gate
		}
		return api.applySet(call), nil
	}
	cart := newTestCart(t, api, Observers{})
	_, err := cart.Load(context.Background(), testSession())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := cart.Adjust(context.Background(), testSession(), "p1", Increment)
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return len(api.sets()) == 1 }, time.Second, time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := cart.Adjust(context.Background(), testSession(), "p2", Increment)
		assert.NoError(t, err)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Len(t, api.sets(), 1, "p2 must wait for the p1 reply")

	close(gate)
	wg.Wait()

	expected := []models.CartEntry{{ProductID: "p1", Qty: 2}, {ProductID: "p2", Qty: 2}}
	assert.Equal(t, expected, api.serverCart())
	assert.Equal(t, expected, cart.Snapshot().Entries, "client cart matches the server after both writes")

	view, err := cart.Adjust(context.Background(), testSession(), "p1", Increment)
	require.NoError(t, err)
	calls := api.sets()
	last := calls[len(calls)-1]
	assert.Equal(t, "p1", last.ProductID)
	assert.Equal(t, 3, last.Qty, "next adjust reads the p1 reply")
	assert.Equal(t, 3, view.Items[0].Qty)
}

func TestCartCoordinator_LoadWaitsForWrites(t *testing.T) {
	api := newFakeAPI(sampleCatalog()...)
	api.cart = []models.CartEntry{{ProductID: "p1", Qty: 1}}
	gate := make(chan struct{})
	api.setFn = func(ctx context.Context, call setCall) ([]models.CartEntry, error) {
		<-gate
		return api.applySet(call), nil
	}
	cart := newTestCart(t, api, Observers{})
	_, err := cart.Load(context.Background(), testSession())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cart.Adjust(context.Background(), testSession(), "p1", Increment)
	}()
	require.Eventually(t, func() bool { return len(api.sets()) == 1 }, time.Second, time.Millisecond)

	loaded := make(chan CartView, 1)
	go func() {
		view, _ := cart.Load(context.Background(), testSession())
		loaded <- view
	}()

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, api.cartFetches())

	close(gate)
	<-done
	view := <-loaded
	assert.Equal(t, 2, view.Items[0].Qty)
	assert.Equal(t, 2, api.cartFetches())
}

func TestCartCoordinator_ResetDiscardsInFlightReplies(t *testing.T) {
	api := newFakeAPI(sampleCatalog()...)
	gate := make(chan struct{})
	api.setFn = func(ctx context.Context, call setCall) ([]models.CartEntry, error) {
		<-gate
		return api.applySet(call), nil
	}
	cart := newTestCart(t, api, Observers{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		cart.AddNew(context.Background(), testSession(), "p1")
	}()
	require.Eventually(t, func() bool { return len(api.sets()) == 1 }, time.Second, time.Millisecond)

	cart.Reset()
	close(gate)
	<-done

	assert.Empty(t, cart.Snapshot().Items)
}

func TestCartCoordinator_RemergeAfterCatalogLoad(t *testing.T) {
	api := newFakeAPI(sampleCatalog()...)
	api.productsErr = errors.New("catalog down")
	api.cart = []models.CartEntry{{ProductID: "p2", Qty: 2}}
	catalog := NewCatalogStore(api, Observers{})
	_, err := catalog.Load(context.Background())
	require.Error(t, err)

	cart := NewCartCoordinator(api, catalog, Observers{})
	view, err := cart.Load(context.Background(), testSession())
	require.NoError(t, err)
	assert.Empty(t, view.Items, "nothing to merge against")

	api.productsErr = nil
	_, err = catalog.Load(context.Background())
	require.NoError(t, err)

	view = cart.Remerge()
	require.Len(t, view.Items, 1)
	assert.Equal(t, 51.0, view.Totals.Subtotal)
}

func TestCartCoordinator_Observers(t *testing.T) {
	journal := repository.NewMemoryActivityRepository(10)
	m := metrics.New()
	api := newFakeAPI(sampleCatalog()...)
	cart := newTestCart(t, api, Observers{Journal: journal, Metrics: m})

	_, err := cart.AddNew(context.Background(), testSession(), "p1")
	require.NoError(t, err)
	_, err = cart.AddNew(context.Background(), testSession(), "p1")
	require.Error(t, err)

	events, err := journal.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, models.ActivityCartAdd, events[0].Kind)
	assert.Equal(t, string(KindAlreadyInCart), events[0].Outcome)
	assert.Equal(t, "crio.do", events[0].Username)
	assert.Equal(t, "ok", events[1].Outcome)
}

func TestCartCoordinator_SnapshotIsACopy(t *testing.T) {
	api := newFakeAPI(sampleCatalog()...)
	api.cart = []models.CartEntry{{ProductID: "p1", Qty: 2}}
	cart := newTestCart(t, api, Observers{})
	_, err := cart.Load(context.Background(), testSession())
	require.NoError(t, err)

	view := cart.Snapshot()
	view.Items[0].Qty = 99
	view.Entries[0].Qty = 99

	assert.Equal(t, 2, cart.Snapshot().Items[0].Qty)
	assert.Equal(t, 2, cart.Snapshot().Entries[0].Qty)
}
