package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
)

// MemoryRepository keeps orders in process memory, preserving insertion order.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders []acceptedorders.Order
}

// NewMemoryRepository creates a repository seeded with orders.
func NewMemoryRepository(orders ...acceptedorders.Order) *MemoryRepository {
	repo := &MemoryRepository{}
	for _, o := range orders {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		repo.orders = append(repo.orders, o)
	}
	return repo
}

// List returns all orders.
func (r *MemoryRepository) List(ctx context.Context) ([]acceptedorders.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.orders), nil
}

// Get retrieves an order by id.
func (r *MemoryRepository) Get(ctx context.Context, id string) (acceptedorders.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.find(id); i >= 0 {
		return r.orders[i], nil
	}
	return acceptedorders.Order{}, acceptedorders.ErrNotFound
}

// Insert appends the order, assigning an id when missing.
func (r *MemoryRepository) Insert(ctx context.Context, order acceptedorders.Order) (acceptedorders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if r.find(order.ID) >= 0 {
		return acceptedorders.Order{}, acceptedorders.ErrDuplicateID
	}
	r.orders = append(r.orders, order)
	return order, nil
}

// Replace overwrites an existing order.
func (r *MemoryRepository) Replace(ctx context.Context, order acceptedorders.Order) (acceptedorders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(order.ID)
	if i < 0 {
		return acceptedorders.Order{}, acceptedorders.ErrNotFound
	}
	r.orders[i] = order
	return order, nil
}

// Delete removes an order by id.
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(id)
	if i < 0 {
		return acceptedorders.ErrNotFound
	}
	r.orders = slices.Delete(r.orders, i, i+1)
	return nil
}

func (r *MemoryRepository) find(id string) int {
	return slices.IndexFunc(r.orders, func(o acceptedorders.Order) bool { return o.ID == id })
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*PGRepository)(nil)
)
