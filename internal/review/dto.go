package review

import (
	"time"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
)

// CriteriaRequest sets every filter criterion at once. Empty strings clear.
type CriteriaRequest struct {
	Category       string `json:"category" validate:"max=100"`
	DeliveryCutoff string `json:"deliveryCutoff"`
	SupplierSearch string `json:"supplierSearch" validate:"max=200"`
}

// BeginEditRequest selects the order to edit.
type BeginEditRequest struct {
	ID string `json:"id" validate:"required"`
}

// StageRequest sets one field of the pending edit.
type StageRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// CriteriaResponse echoes the active criteria.
type CriteriaResponse struct {
	Category       string `json:"category"`
	DeliveryCutoff string `json:"deliveryCutoff"`
	SupplierSearch string `json:"supplierSearch"`
}

// SessionResponse summarises a session.
type SessionResponse struct {
	ID       string                `json:"id"`
	Total    int                   `json:"total"`
	Visible  int                   `json:"visible"`
	Criteria CriteriaResponse      `json:"criteria"`
	Pending  *acceptedorders.Order `json:"pending,omitempty"`
}

// EditResponse reports the edit buffer state.
type EditResponse struct {
	Editing bool                  `json:"editing"`
	Order   *acceptedorders.Order `json:"order,omitempty"`
}

// FieldResponse describes one editable field.
type FieldResponse struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

func criteriaResponse(c acceptedorders.Criteria) CriteriaResponse {
	resp := CriteriaResponse{Category: string(c.Category), SupplierSearch: c.SupplierSearch}
	if !c.DeliveryCutoff.IsZero() {
		resp.DeliveryCutoff = c.DeliveryCutoff.UTC().Format(time.DateOnly)
	}
	return resp
}

func sessionResponse(id string, s *acceptedorders.Session) SessionResponse {
	resp := SessionResponse{
		ID:       id,
		Total:    len(s.Orders()),
		Visible:  len(s.View()),
		Criteria: criteriaResponse(s.Criteria()),
	}
	if pending, ok := s.Pending(); ok {
		resp.Pending = &pending
	}
	return resp
}

func editResponse(s *acceptedorders.Session) EditResponse {
	pending, ok := s.Pending()
	if !ok {
		return EditResponse{}
	}
	return EditResponse{Editing: true, Order: &pending}
}
