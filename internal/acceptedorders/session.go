package acceptedorders

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Store is the remote order collection the session reconciles against.
type Store interface {
	FetchAll(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, id string, order Order) (Order, error)
	Remove(ctx context.Context, id string) error
}

// Confirmer gates deletes. It is asked once per delete with the targeted order.
type Confirmer interface {
	Confirm(order Order) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(Order) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(order Order) bool { return f(order) }

// Confirmed approves every delete. Use it when the caller already asked.
var Confirmed Confirmer = ConfirmFunc(func(Order) bool { return true })

type editBuffer struct {
	order Order
	gen   uint64
}

// Session holds one review view's state: the authoritative collection mirrored
// from the store, the active criteria, the derived filtered view and at most one
// staged edit. Every mutation updates the collection first and then recomputes
// the view. Store calls run without holding the lock; their completions re-check
// that the target still exists before applying anything.
type Session struct {
	store Store

	mu       sync.Mutex
	orders   []Order
	index    map[string]int
	criteria Criteria
	view     []Order
	edit     *editBuffer
	editGen  uint64
}

// NewSession creates an empty session backed by store.
func NewSession(store Store) *Session {
	return &Session{store: store, index: map[string]int{}}
}

// Refresh fetches the full collection and loads it. A failed fetch leaves the
// session exactly as it was.
func (s *Session) Refresh(ctx context.Context) error {
	orders, err := s.store.FetchAll(ctx)
	if err != nil {
		return err
	}
	return s.Load(orders)
}

// Load replaces the authoritative collection wholesale and discards any pending edit.
func (s *Session) Load(orders []Order) error {
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		if _, dup := index[o.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, o.ID)
		}
		index[o.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = slices.Clone(orders)
	s.index = index
	s.edit = nil
	s.recompute()
	return nil
}

// Orders returns a copy of the authoritative collection.
func (s *Session) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

// View returns a copy of the filtered view.
func (s *Session) View() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.view)
}

// Rows returns the filtered view with derived fields evaluated at now.
func (s *Session) Rows(now time.Time) []Row {
	return Derive(s.View(), now)
}

// Criteria returns the active filter criteria.
func (s *Session) Criteria() Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// SetCriteria replaces all criteria at once.
func (s *Session) SetCriteria(c Criteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = c
	s.recompute()
}

// SetCategory filters by exact category; an empty value clears the filter.
func (s *Session) SetCategory(c Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria.Category = c
	s.recompute()
}

// SetDeliveryCutoff keeps orders delivered on or before cutoff.
func (s *Session) SetDeliveryCutoff(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria.DeliveryCutoff = cutoff
	s.recompute()
}

// ClearDeliveryCutoff removes the delivery date filter.
func (s *Session) ClearDeliveryCutoff() {
	s.SetDeliveryCutoff(time.Time{})
}

// SetSupplierSearch filters by case-insensitive supplier name substring.
func (s *Session) SetSupplierSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria.SupplierSearch = term
	s.recompute()
}

// BeginEdit stages a copy of the order with id for editing, replacing any edit
// already in progress. It reports false, and changes nothing, if id is unknown.
func (s *Session) BeginEdit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.editGen++
	s.edit = &editBuffer{order: s.orders[i], gen: s.editGen}
	return true
}

// StageField sets one field of the edit buffer from its raw form value.
// The authoritative collection is not touched.
func (s *Session) StageField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return ErrNoPendingEdit
	}
	staged := s.edit.order
	if err := stage(&staged, name, value); err != nil {
		return err
	}
	s.edit.order = staged
	return nil
}

// Pending returns the staged order, if an edit is in progress.
func (s *Session) Pending() (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return Order{}, false
	}
	return s.edit.order, true
}

// CancelEdit discards the edit buffer without contacting the store.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit = nil
}

// CommitEdit sends the full staged order to the store. On success the matching
// record is replaced and the buffer cleared; on failure nothing changes and the
// buffer stays staged.
func (s *Session) CommitEdit(ctx context.Context) (Order, error) {
	s.mu.Lock()
	if s.edit == nil {
		s.mu.Unlock()
		return Order{}, ErrNoPendingEdit
	}
	pending := *s.edit
	s.mu.Unlock()

	id := pending.order.ID
	updated, err := s.store.Update(ctx, id, pending.order)
	if err != nil {
		return Order{}, err
	}
	if updated.ID != id {
		updated = pending.order
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit != nil && s.edit.gen == pending.gen {
		s.edit = nil
	}
	i, ok := s.index[id]
	if !ok {
		return Order{}, fmt.Errorf("commit %s: %w", id, ErrNotFound)
	}
	s.orders[i] = updated
	s.recompute()
	return updated, nil
}

// Delete removes the order with id after confirm approves it. A declined
// confirmation returns ErrNotConfirmed without contacting the store.
func (s *Session) Delete(ctx context.Context, id string, confirm Confirmer) error {
	s.mu.Lock()
	i, ok := s.index[id]
	var target Order
	if ok {
		target = s.orders[i]
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}

	if confirm == nil || !confirm.Confirm(target) {
		return ErrNotConfirmed
	}
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok = s.index[id]
	if !ok {
		return nil
	}
	s.orders = slices.Delete(s.orders, i, i+1)
	s.reindex()
	if s.edit != nil && s.edit.order.ID == id {
		s.edit = nil
	}
	s.recompute()
	return nil
}

func (s *Session) reindex() {
	s.index = make(map[string]int, len(s.orders))
	for i, o := range s.orders {
		s.index[o.ID] = i
	}
}

// recompute must be called with mu held after every change to orders or criteria.
func (s *Session) recompute() {
	s.view = ApplyFilters(s.orders, s.criteria)
}
