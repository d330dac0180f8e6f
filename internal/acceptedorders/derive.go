package acceptedorders

import (
	"encoding/json"
	"time"
)

// ExpiryStatus tells whether an order's delivery date has passed.
type ExpiryStatus string

const (
	Expired    ExpiryStatus = "Expired"
	NotExpired ExpiryStatus = "Not Expired"
)

// Row is an order together with its derived, never persisted, fields.
type Row struct {
	Order
	Difference   int          `json:"difference"`
	ExpiryStatus ExpiryStatus `json:"expiryStatus"`
}

// Difference returns ordered minus received quantity. Positive is a shortfall,
// negative an overage.
func Difference(o Order) int {
	return o.OrderQuantity - o.Amount
}

// ExpiryStatusAt evaluates expiry against now. An order due exactly at now is
// not yet expired.
func ExpiryStatusAt(o Order, now time.Time) ExpiryStatus {
	if now.After(o.DeliveryDate) {
		return Expired
	}
	return NotExpired
}

// Derive computes derived fields for a batch using a single instant so that
// every row of one rendering agrees.
func Derive(orders []Order, now time.Time) []Row {
	rows := make([]Row, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, Row{
			Order:        o,
			Difference:   Difference(o),
			ExpiryStatus: ExpiryStatusAt(o, now),
		})
	}
	return rows
}

type rowJSON struct {
	orderJSON
	Difference   int          `json:"difference"`
	ExpiryStatus ExpiryStatus `json:"expiryStatus"`
}

// MarshalJSON flattens the order and its derived fields into one object.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{
		orderJSON:    r.Order.wire(),
		Difference:   r.Difference,
		ExpiryStatus: r.ExpiryStatus,
	})
}

// UnmarshalJSON reads the flattened representation written by MarshalJSON.
func (r *Row) UnmarshalJSON(data []byte) error {
	var payload rowJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	o, err := payload.orderJSON.order()
	if err != nil {
		return err
	}
	*r = Row{Order: o, Difference: payload.Difference, ExpiryStatus: payload.ExpiryStatus}
	return nil
}
