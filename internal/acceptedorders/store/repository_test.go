package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
)

func TestInsertErrMapsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "accepted_orders_pkey"}

	err := insertErr("a", unique)
	assert.ErrorIs(t, err, acceptedorders.ErrDuplicateID)

	err = insertErr("a", fmt.Errorf("exec: %w", unique))
	assert.ErrorIs(t, err, acceptedorders.ErrDuplicateID)

	other := &pgconn.PgError{Code: "23502"}
	err = insertErr("a", other)
	assert.NotErrorIs(t, err, acceptedorders.ErrDuplicateID)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23502", pgErr.Code)

	err = insertErr("a", errors.New("connection reset"))
	assert.NotErrorIs(t, err, acceptedorders.ErrDuplicateID)
	assert.Contains(t, err.Error(), "store: insert a")
}

// uniqueViolationRepo fails inserts the way Postgres does for an existing key.
type uniqueViolationRepo struct{ *MemoryRepository }

func (r uniqueViolationRepo) Insert(_ context.Context, order acceptedorders.Order) (acceptedorders.Order, error) {
	return acceptedorders.Order{}, insertErr(order.ID, &pgconn.PgError{Code: "23505"})
}

func TestHandlerCreateDuplicateReturnsConflict(t *testing.T) {
	svc := NewService(uniqueViolationRepo{NewMemoryRepository()}, nil, nil)
	router := chi.NewRouter()
	router.Route("/acceptedOrders", NewHandler(nil, svc).MountRoutes)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	body := []byte(`{"_id":"a","supplierName":"Beta","orderQuantity":"5","category":"Spices","amount":8,"deliveryDate":"2099-01-01"}`)
	resp := doRequest(t, http.MethodPost, srv.URL+"/acceptedOrders", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
