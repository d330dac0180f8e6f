package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
	"github.com/odyssey-erp/order-review/internal/platform/httpx"
)

// ErrInvalidOrder wraps validation failures on incoming documents.
var ErrInvalidOrder = fmt.Errorf("invalid accepted order: %w", httpx.ErrValidation)

// OpRecorder receives one observation per store operation.
type OpRecorder interface {
	ObserveStoreOp(op, outcome string)
}

// Service provides business logic for the accepted-orders collection.
type Service struct {
	repo     Repository
	cache    *Cache
	logger   *slog.Logger
	recorder OpRecorder
	loads    singleflight.Group
}

// NewService creates a new service. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// SetRecorder attaches an operation recorder for metrics.
func (s *Service) SetRecorder(recorder OpRecorder) {
	s.recorder = recorder
}

// List returns the full collection. Concurrent callers share one load.
func (s *Service) List(ctx context.Context) ([]acceptedorders.Order, error) {
	orders, err := s.list(ctx)
	s.observe("list", err)
	return orders, err
}

func (s *Service) list(ctx context.Context) ([]acceptedorders.Order, error) {
	key, err := s.cache.BuildKey(ctx, "acceptedorders", "list")
	if err != nil {
		s.logger.Warn("accepted orders cache key", slog.Any("error", err))
		return s.repo.List(ctx)
	}
	value, err, _ := s.loads.Do(key, func() (any, error) {
		// Shared by every coalesced caller, so one cancelled request must not fail the rest.
		ctx := context.WithoutCancel(ctx)
		var (
			orders  []acceptedorders.Order
			loaded  []acceptedorders.Order
			loadErr error
			wasRead bool
		)
		err := s.cache.FetchJSON(ctx, key, &orders, func(ctx context.Context) (any, error) {
			wasRead = true
			loaded, loadErr = s.repo.List(ctx)
			return loaded, loadErr
		})
		switch {
		case loadErr != nil:
			return nil, loadErr
		case err == nil:
			return orders, nil
		case wasRead:
			s.logger.Warn("accepted orders cache store", slog.Any("error", err))
			return loaded, nil
		default:
			s.logger.Warn("accepted orders cache read", slog.Any("error", err))
			return s.repo.List(ctx)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list accepted orders: %w", err)
	}
	orders, _ := value.([]acceptedorders.Order)
	if orders == nil {
		orders = []acceptedorders.Order{}
	}
	return orders, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id string) (acceptedorders.Order, error) {
	o, err := s.repo.Get(ctx, id)
	s.observe("get", err)
	return o, err
}

// Create validates and inserts a new order.
func (s *Service) Create(ctx context.Context, order acceptedorders.Order) (acceptedorders.Order, error) {
	if err := acceptedorders.ValidateOrder(order); err != nil {
		s.observe("create", err)
		return acceptedorders.Order{}, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	created, err := s.repo.Insert(ctx, order)
	s.observe("create", err)
	if err != nil {
		return acceptedorders.Order{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Replace overwrites the whole stored document with id.
func (s *Service) Replace(ctx context.Context, id string, order acceptedorders.Order) (acceptedorders.Order, error) {
	if order.ID != "" && order.ID != id {
		err := fmt.Errorf("%w: body id %s does not match %s", ErrInvalidOrder, order.ID, id)
		s.observe("replace", err)
		return acceptedorders.Order{}, err
	}
	order.ID = id
	if err := acceptedorders.ValidateOrder(order); err != nil {
		s.observe("replace", err)
		return acceptedorders.Order{}, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	updated, err := s.repo.Replace(ctx, order)
	s.observe("replace", err)
	if err != nil {
		return acceptedorders.Order{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes the order with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	s.observe("delete", err)
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("accepted orders cache bump", slog.Any("error", err))
	}
}

func (s *Service) observe(op string, err error) {
	if s.recorder == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, acceptedorders.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrInvalidOrder):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	s.recorder.ObserveStoreOp(op, outcome)
}
