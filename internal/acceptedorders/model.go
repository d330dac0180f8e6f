// Package acceptedorders holds the accepted-order review engine: the order model,
// derived fields, filter composition and the per-view reconciliation session.
package acceptedorders

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category classifies what a supplier delivered.
type Category string

const (
	CategoryVegetables Category = "Vegetables"
	CategorySpices     Category = "Spices"
	CategoryMeat       Category = "Meat"
	CategoryFisheries  Category = "Fisheries"
	CategoryFruits     Category = "Fruits"
	CategoryBeverages  Category = "Beverages"
)

// Categories lists the categories offered by the review screens, in display order.
var Categories = []Category{
	CategoryVegetables,
	CategorySpices,
	CategoryMeat,
	CategoryFisheries,
	CategoryFruits,
	CategoryBeverages,
}

// IsKnown reports whether c is one of the predefined categories.
// The engine accepts unknown categories; this is only a hint for callers.
func (c Category) IsKnown() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Order is an accepted supplier order as held by the store.
type Order struct {
	ID            string    `json:"_id"`
	SupplierName  string    `json:"supplierName" validate:"required"`
	OrderQuantity int       `json:"orderQuantity" validate:"gte=0"`
	Category      Category  `json:"category"`
	Amount        int       `json:"amount" validate:"gte=0"`
	DeliveryDate  time.Time `json:"deliveryDate" validate:"required"`
	SpecialNote   string    `json:"specialNote"`
}

// DateLayout is used when writing delivery dates to the wire.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// naive layouts are read as UTC, matching how browsers parse date-only strings.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDeliveryDate reads an ISO-8601 date or date-time.
func ParseDeliveryDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("delivery date is empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("delivery date %q is not ISO-8601", raw)
}

// flexInt accepts both JSON numbers and numeric strings; form-driven clients
// post quantities as strings.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("quantity %s is not an integer", raw)
	}
	*n = flexInt(v)
	return nil
}

type orderJSON struct {
	ID            string   `json:"_id"`
	SupplierName  string   `json:"supplierName"`
	OrderQuantity flexInt  `json:"orderQuantity"`
	Category      Category `json:"category"`
	Amount        flexInt  `json:"amount"`
	DeliveryDate  string   `json:"deliveryDate"`
	SpecialNote   string   `json:"specialNote"`
}

func (o Order) wire() orderJSON {
	payload := orderJSON{
		ID:            o.ID,
		SupplierName:  o.SupplierName,
		OrderQuantity: flexInt(o.OrderQuantity),
		Category:      o.Category,
		Amount:        flexInt(o.Amount),
		SpecialNote:   o.SpecialNote,
	}
	if !o.DeliveryDate.IsZero() {
		payload.DeliveryDate = o.DeliveryDate.UTC().Format(DateLayout)
	}
	return payload
}

func (p orderJSON) order() (Order, error) {
	o := Order{
		ID:            p.ID,
		SupplierName:  p.SupplierName,
		OrderQuantity: int(p.OrderQuantity),
		Category:      p.Category,
		Amount:        int(p.Amount),
		SpecialNote:   p.SpecialNote,
	}
	if p.DeliveryDate != "" {
		t, err := ParseDeliveryDate(p.DeliveryDate)
		if err != nil {
			return Order{}, err
		}
		o.DeliveryDate = t
	}
	return o, nil
}

// MarshalJSON writes the delivery date as an ISO-8601 string.
func (o Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.wire())
}

// UnmarshalJSON reads the delivery date from an ISO-8601 string.
func (o *Order) UnmarshalJSON(data []byte) error {
	var payload orderJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	decoded, err := payload.order()
	if err != nil {
		return err
	}
	*o = decoded
	return nil
}
