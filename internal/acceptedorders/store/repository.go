// Package store serves the accepted-orders collection over REST.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
	"github.com/odyssey-erp/order-review/internal/platform/db"
)

// Repository defines persistence for accepted orders. Replace overwrites every
// field of the stored document.
type Repository interface {
	List(ctx context.Context) ([]acceptedorders.Order, error)
	Get(ctx context.Context, id string) (acceptedorders.Order, error)
	Insert(ctx context.Context, order acceptedorders.Order) (acceptedorders.Order, error)
	Replace(ctx context.Context, order acceptedorders.Order) (acceptedorders.Order, error)
	Delete(ctx context.Context, id string) error
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS accepted_orders (
	id             TEXT PRIMARY KEY,
	supplier_name  TEXT NOT NULL,
	order_quantity INTEGER NOT NULL CHECK (order_quantity >= 0),
	category       TEXT NOT NULL,
	amount         INTEGER NOT NULL CHECK (amount >= 0),
	delivery_date  TIMESTAMPTZ NOT NULL,
	special_note   TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PGRepository implements Repository using pgxpool.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository creates a Postgres backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// EnsureSchema creates the accepted_orders table when missing.
func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// List returns all orders in insertion order.
func (r *PGRepository) List(ctx context.Context) ([]acceptedorders.Order, error) {
	const query = `
		SELECT id, supplier_name, order_quantity, category, amount, delivery_date, special_note
		FROM accepted_orders
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]acceptedorders.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Get returns the order with id.
func (r *PGRepository) Get(ctx context.Context, id string) (acceptedorders.Order, error) {
	const query = `
		SELECT id, supplier_name, order_quantity, category, amount, delivery_date, special_note
		FROM accepted_orders
		WHERE id = $1
	`
	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return acceptedorders.Order{}, acceptedorders.ErrNotFound
		}
		return acceptedorders.Order{}, err
	}
	return o, nil
}

// Insert stores a new order, assigning an id when the order has none.
func (r *PGRepository) Insert(ctx context.Context, order acceptedorders.Order) (acceptedorders.Order, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO accepted_orders (id, supplier_name, order_quantity, category, amount, delivery_date, special_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		order.ID, order.SupplierName, order.OrderQuantity, string(order.Category),
		order.Amount, order.DeliveryDate, order.SpecialNote,
	)
	if err != nil {
		return acceptedorders.Order{}, insertErr(order.ID, err)
	}
	return order, nil
}

// InsertMany stores orders in one transaction. Nothing is written when any
// insert fails.
func (r *PGRepository) InsertMany(ctx context.Context, orders []acceptedorders.Order) ([]acceptedorders.Order, error) {
	const query = `
		INSERT INTO accepted_orders (id, supplier_name, order_quantity, category, amount, delivery_date, special_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stored := make([]acceptedorders.Order, 0, len(orders))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, order := range orders {
			if order.ID == "" {
				order.ID = uuid.NewString()
			}
			if _, err := tx.Exec(ctx, query,
				order.ID, order.SupplierName, order.OrderQuantity, string(order.Category),
				order.Amount, order.DeliveryDate, order.SpecialNote,
			); err != nil {
				return insertErr(order.ID, err)
			}
			stored = append(stored, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Replace overwrites every column of the order with the same id.
func (r *PGRepository) Replace(ctx context.Context, order acceptedorders.Order) (acceptedorders.Order, error) {
	const query = `
		UPDATE accepted_orders
		SET supplier_name = $2, order_quantity = $3, category = $4, amount = $5,
		    delivery_date = $6, special_note = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		order.ID, order.SupplierName, order.OrderQuantity, string(order.Category),
		order.Amount, order.DeliveryDate, order.SpecialNote, time.Now(),
	)
	if err != nil {
		return acceptedorders.Order{}, err
	}
	if tag.RowsAffected() == 0 {
		return acceptedorders.Order{}, acceptedorders.ErrNotFound
	}
	return order, nil
}

// Delete removes the order with id.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accepted_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return acceptedorders.ErrNotFound
	}
	return nil
}

// insertErr maps a primary key violation to ErrDuplicateID.
func insertErr(id string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", acceptedorders.ErrDuplicateID, id)
	}
	return fmt.Errorf("store: insert %s: %w", id, err)
}

func scanOrder(row pgx.Row) (acceptedorders.Order, error) {
	var (
		o        acceptedorders.Order
		category string
	)
	if err := row.Scan(&o.ID, &o.SupplierName, &o.OrderQuantity, &category, &o.Amount, &o.DeliveryDate, &o.SpecialNote); err != nil {
		return acceptedorders.Order{}, err
	}
	o.Category = acceptedorders.Category(category)
	o.DeliveryDate = o.DeliveryDate.UTC()
	return o, nil
}
