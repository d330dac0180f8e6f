package store

import (
	"context"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
)

// Local adapts a Service to acceptedorders.Store for in-process sessions.
type Local struct {
	service *Service
}

// NewLocal wraps service.
func NewLocal(service *Service) *Local {
	return &Local{service: service}
}

// FetchAll implements acceptedorders.Store.
func (l *Local) FetchAll(ctx context.Context) ([]acceptedorders.Order, error) {
	return l.service.List(ctx)
}

// Update implements acceptedorders.Store.
func (l *Local) Update(ctx context.Context, id string, order acceptedorders.Order) (acceptedorders.Order, error) {
	order.ID = id
	return l.service.Replace(ctx, id, order)
}

// Remove implements acceptedorders.Store.
func (l *Local) Remove(ctx context.Context, id string) error {
	return l.service.Delete(ctx, id)
}

var _ acceptedorders.Store = (*Local)(nil)
