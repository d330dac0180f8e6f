package store

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
	"github.com/odyssey-erp/order-review/internal/platform/httpx"
)

var errorRules = []httpx.Rule{
	{Target: acceptedorders.ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
	{Target: acceptedorders.ErrDuplicateID, Status: http.StatusConflict, Title: "Duplicate"},
}

// Handler exposes the accepted-orders collection as a REST resource.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.replace)
	r.Delete("/{id}", h.remove)
}

// list handles GET /acceptedOrders
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list accepted orders failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

// show handles GET /acceptedOrders/{id}
func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get accepted order failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// create handles POST /acceptedOrders
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var order acceptedorders.Order
	if err := httpx.DecodeJSON(w, r, &order); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), order)
	if err != nil {
		h.fail(w, "create accepted order failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// replace handles PUT /acceptedOrders/{id}
func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var order acceptedorders.Order
	if err := httpx.DecodeJSON(w, r, &order); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.Replace(r.Context(), id, order)
	if err != nil {
		h.fail(w, "replace accepted order failed", err, slog.String("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// remove handles DELETE /acceptedOrders/{id}
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete accepted order failed", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.Any("error", err))
	if errors.Is(err, acceptedorders.ErrNotFound) || errors.Is(err, httpx.ErrValidation) {
		h.logger.Warn(msg, attrs...)
	} else {
		h.logger.Error(msg, attrs...)
	}
	httpx.RespondError(w, err, errorRules...)
}
