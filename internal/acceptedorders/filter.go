package acceptedorders

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Criteria narrows the authoritative collection down to the filtered view.
// A zero value field disables that predicate.
type Criteria struct {
	Category       Category  `json:"category,omitempty"`
	DeliveryCutoff time.Time `json:"deliveryCutoff,omitempty"`
	SupplierSearch string    `json:"supplierSearch,omitempty"`
}

// IsZero reports whether no predicate is active.
func (c Criteria) IsZero() bool {
	return c.Category == "" && c.DeliveryCutoff.IsZero() && c.SupplierSearch == ""
}

// ParseCutoff reads a date input value (YYYY-MM-DD or a full ISO-8601 instant).
// An empty value yields the zero time, which disables the cutoff.
func ParseCutoff(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return ParseDeliveryDate(raw)
}

type predicate func(Order) bool

func (c Criteria) predicates() []predicate {
	preds := make([]predicate, 0, 3)
	if c.Category != "" {
		category := c.Category
		preds = append(preds, func(o Order) bool {
			return o.Category == category
		})
	}
	if !c.DeliveryCutoff.IsZero() {
		cutoff := c.DeliveryCutoff
		preds = append(preds, func(o Order) bool {
			return !o.DeliveryDate.After(cutoff)
		})
	}
	if c.SupplierSearch != "" {
		lower := cases.Lower(language.Und)
		term := lower.String(c.SupplierSearch)
		preds = append(preds, func(o Order) bool {
			return strings.Contains(lower.String(o.SupplierName), term)
		})
	}
	return preds
}

// ApplyFilters returns the orders matching every active criterion, preserving
// input order. The input slice is never modified.
func ApplyFilters(orders []Order, criteria Criteria) []Order {
	preds := criteria.predicates()
	filtered := make([]Order, 0, len(orders))
next:
	for _, o := range orders {
		for _, keep := range preds {
			if !keep(o) {
				continue next
			}
		}
		filtered = append(filtered, o)
	}
	return filtered
}
