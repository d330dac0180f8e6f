package acceptedorders

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldKind tells the edit buffer how to parse a staged value.
type FieldKind string

const (
	KindText FieldKind = "text"
	KindInt  FieldKind = "number"
	KindDate FieldKind = "date"
)

// FieldSpec describes one editable order field.
type FieldSpec struct {
	Name     string
	Label    string
	Kind     FieldKind
	Validate string
	apply    func(*Order, any)
}

// EditSchema maps wire field names to their edit rules. The identifier is
// absent; it is immutable once assigned by the store.
var EditSchema = map[string]FieldSpec{
	"supplierName": {
		Name: "supplierName", Label: "Supplier Name", Kind: KindText, Validate: "required,max=200",
		apply: func(o *Order, v any) { o.SupplierName = v.(string) },
	},
	"orderQuantity": {
		Name: "orderQuantity", Label: "Order Quantity", Kind: KindInt, Validate: "gte=0",
		apply: func(o *Order, v any) { o.OrderQuantity = v.(int) },
	},
	"category": {
		Name: "category", Label: "Category", Kind: KindText, Validate: "required,max=100",
		apply: func(o *Order, v any) { o.Category = Category(v.(string)) },
	},
	"amount": {
		Name: "amount", Label: "Amount", Kind: KindInt, Validate: "gte=0",
		apply: func(o *Order, v any) { o.Amount = v.(int) },
	},
	"deliveryDate": {
		Name: "deliveryDate", Label: "Delivery Date", Kind: KindDate,
		apply: func(o *Order, v any) { o.DeliveryDate = v.(time.Time) },
	},
	"specialNote": {
		Name: "specialNote", Label: "Special Note", Kind: KindText, Validate: "max=1000",
		apply: func(o *Order, v any) { o.SpecialNote = v.(string) },
	},
}

// EditableFields lists the schema in form order.
var EditableFields = []string{"supplierName", "orderQuantity", "category", "amount", "deliveryDate", "specialNote"}

var validate = validator.New()

// Parse converts a raw form value according to the field kind and validates it.
func (f FieldSpec) Parse(raw string) (any, error) {
	var value any
	switch f.Kind {
	case KindInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, &FieldError{Field: f.Name, Value: raw, Err: err}
		}
		value = n
	case KindDate:
		t, err := ParseDeliveryDate(raw)
		if err != nil {
			return nil, &FieldError{Field: f.Name, Value: raw, Err: err}
		}
		value = t
	default:
		value = raw
	}
	if f.Validate != "" {
		if err := validate.Var(value, f.Validate); err != nil {
			return nil, &FieldError{Field: f.Name, Value: raw, Err: err}
		}
	}
	return value, nil
}

// stage applies a raw value to o using the schema entry for name.
func stage(o *Order, name, raw string) error {
	if name == "_id" || name == "id" {
		return fmt.Errorf("%w: %s", ErrReadOnlyField, name)
	}
	spec, ok := EditSchema[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	value, err := spec.Parse(raw)
	if err != nil {
		return err
	}
	spec.apply(o, value)
	return nil
}

// ValidateOrder checks a full order against its struct rules.
func ValidateOrder(o Order) error {
	return validate.Struct(o)
}
