package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
	"github.com/odyssey-erp/order-review/internal/acceptedorders/store"
)

func seedOrders() []acceptedorders.Order {
	return []acceptedorders.Order{
		{ID: "a", SupplierName: "Acme", OrderQuantity: 10, Category: acceptedorders.CategoryMeat, Amount: 10, DeliveryDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "b", SupplierName: "Beta", OrderQuantity: 5, Category: acceptedorders.CategorySpices, Amount: 8, DeliveryDate: time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func newStoreServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := store.NewService(store.NewMemoryRepository(seedOrders()...), nil, nil)
	router := chi.NewRouter()
	router.Route("/acceptedOrders", store.NewHandler(nil, svc).MountRoutes)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	srv := newStoreServer(t)
	c := New(srv.URL+"/", nil)
	ctx := context.Background()

	orders, err := c.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.True(t, orders[1].DeliveryDate.Equal(time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)))

	edited := orders[0]
	edited.SpecialNote = "fragile"
	saved, err := c.Update(ctx, "a", edited)
	require.NoError(t, err)
	assert.Equal(t, "fragile", saved.SpecialNote)

	require.NoError(t, c.Remove(ctx, "a"))
	err = c.Remove(ctx, "a")
	assert.ErrorIs(t, err, acceptedorders.ErrNotFound)
	assert.False(t, acceptedorders.IsTransport(err))
}

func TestClientUpdateMissing(t *testing.T) {
	srv := newStoreServer(t)
	c := New(srv.URL, nil)

	_, err := c.Update(context.Background(), "zzz", seedOrders()[0])
	assert.ErrorIs(t, err, acceptedorders.ErrNotFound)
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, nil).FetchAll(context.Background())
	var te *acceptedorders.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Equal(t, "fetch", te.Op)
	assert.Contains(t, err.Error(), "boom")
}

func TestClientConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url, nil).Remove(context.Background(), "a")
	assert.True(t, acceptedorders.IsTransport(err))
	assert.NotErrorIs(t, err, acceptedorders.ErrNotFound)
}

func TestClientMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, nil).FetchAll(context.Background())
	assert.True(t, acceptedorders.IsTransport(err))
}
