package review

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
	"github.com/odyssey-erp/order-review/internal/acceptedorders/export"
	"github.com/odyssey-erp/order-review/internal/platform/httpx"
)

var errorRules = []httpx.Rule{
	{Target: ErrSessionNotFound, Status: http.StatusNotFound, Title: "Session Not Found"},
	{Target: acceptedorders.ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
	{Target: acceptedorders.ErrNoPendingEdit, Status: http.StatusConflict, Title: "No Pending Edit"},
	{Target: acceptedorders.ErrUnknownField, Status: http.StatusBadRequest, Title: "Unknown Field"},
	{Target: acceptedorders.ErrReadOnlyField, Status: http.StatusBadRequest, Title: "Read-only Field"},
	{Target: acceptedorders.ErrInvalidField, Status: http.StatusBadRequest, Title: "Invalid Field"},
	{Target: acceptedorders.ErrNotConfirmed, Status: http.StatusPreconditionRequired, Title: "Confirmation Required"},
	{Target: acceptedorders.ErrDuplicateID, Status: http.StatusConflict, Title: "Duplicate"},
	{Target: acceptedorders.ErrEmptyReport, Status: http.StatusUnprocessableEntity, Title: "Empty Report"},
	{Target: export.ErrUnknownFormat, Status: http.StatusBadRequest, Title: "Unknown Format"},
	{Target: export.ErrNoConverter, Status: http.StatusServiceUnavailable, Title: "PDF Unavailable"},
}

// Handler exposes review sessions over HTTP.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	exporter  *export.Exporter
	validate  *validator.Validate
	now       func() time.Time
	rateLimit int
}

// NewHandler creates a new handler. exportsPerMinute limits export downloads
// per client IP; zero disables the limit.
func NewHandler(logger *slog.Logger, registry *Registry, exporter *export.Exporter, exportsPerMinute int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		registry:  registry,
		exporter:  exporter,
		validate:  validator.New(),
		now:       time.Now,
		rateLimit: exportsPerMinute,
	}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sessions", h.open)
	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Get("/", h.show)
		r.Delete("/", h.close)
		r.Post("/reload", h.reload)
		r.Put("/criteria", h.setCriteria)
		r.Get("/fields", h.fields)

		r.Get("/orders", h.rows)
		r.Delete("/orders/{id}", h.deleteOrder)

		r.Get("/edit", h.pending)
		r.Post("/edit", h.beginEdit)
		r.Patch("/edit", h.stageField)
		r.Delete("/edit", h.cancelEdit)
		r.Post("/edit/commit", h.commitEdit)

		r.Group(func(r chi.Router) {
			if h.rateLimit > 0 {
				r.Use(httprate.LimitByIP(h.rateLimit, time.Minute))
			}
			r.Get("/export", h.export)
		})
	})
}

// open handles POST /review/sessions
func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	id, session, err := h.registry.Open(r.Context())
	if err != nil {
		h.fail(w, "open review session failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sessionResponse(id, session))
}

// show handles GET /review/sessions/{sid}
func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, sessionResponse(id, session))
}

// close handles DELETE /review/sessions/{sid}
func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Close(chi.URLParam(r, "sid")); err != nil {
		h.fail(w, "close review session failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reload handles POST /review/sessions/{sid}/reload
func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.Refresh(r.Context()); err != nil {
		h.fail(w, "reload review session failed", err, slog.String("session", id))
		return
	}
	httpx.JSON(w, http.StatusOK, sessionResponse(id, session))
}

// setCriteria handles PUT /review/sessions/{sid}/criteria
func (h *Handler) setCriteria(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req CriteriaRequest
	if err := h.decode(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cutoff, err := acceptedorders.ParseCutoff(req.DeliveryCutoff)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: deliveryCutoff: %v", httpx.ErrValidation, err))
		return
	}
	session.SetCriteria(acceptedorders.Criteria{
		Category:       acceptedorders.Category(req.Category),
		DeliveryCutoff: cutoff,
		SupplierSearch: req.SupplierSearch,
	})
	httpx.JSON(w, http.StatusOK, sessionResponse(id, session))
}

// fields handles GET /review/sessions/{sid}/fields
func (h *Handler) fields(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.session(w, r); !ok {
		return
	}
	fields := make([]FieldResponse, 0, len(acceptedorders.EditableFields))
	for _, name := range acceptedorders.EditableFields {
		spec := acceptedorders.EditSchema[name]
		fields = append(fields, FieldResponse{Name: spec.Name, Label: spec.Label, Kind: string(spec.Kind)})
	}
	httpx.JSON(w, http.StatusOK, fields)
}

// rows handles GET /review/sessions/{sid}/orders
func (h *Handler) rows(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, session.Rows(h.now()))
}

// deleteOrder handles DELETE /review/sessions/{sid}/orders/{id}?confirm=yes
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	sid, session, ok := h.session(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	answer := r.URL.Query().Get("confirm")
	confirm := acceptedorders.ConfirmFunc(func(acceptedorders.Order) bool {
		return answer == "yes" || answer == "true"
	})
	if err := session.Delete(r.Context(), id, confirm); err != nil {
		h.fail(w, "delete accepted order failed", err, slog.String("session", sid), slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pending handles GET /review/sessions/{sid}/edit
func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, editResponse(session))
}

// beginEdit handles POST /review/sessions/{sid}/edit
func (h *Handler) beginEdit(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req BeginEditRequest
	if err := h.decode(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	session.BeginEdit(req.ID)
	httpx.JSON(w, http.StatusOK, editResponse(session))
}

// stageField handles PATCH /review/sessions/{sid}/edit
func (h *Handler) stageField(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req StageRequest
	if err := h.decode(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := session.StageField(req.Field, req.Value); err != nil {
		httpx.RespondError(w, err, errorRules...)
		return
	}
	httpx.JSON(w, http.StatusOK, editResponse(session))
}

// cancelEdit handles DELETE /review/sessions/{sid}/edit
func (h *Handler) cancelEdit(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.session(w, r)
	if !ok {
		return
	}
	session.CancelEdit()
	w.WriteHeader(http.StatusNoContent)
}

// commitEdit handles POST /review/sessions/{sid}/edit/commit
func (h *Handler) commitEdit(w http.ResponseWriter, r *http.Request) {
	sid, session, ok := h.session(w, r)
	if !ok {
		return
	}
	saved, err := session.CommitEdit(r.Context())
	if err != nil {
		h.fail(w, "commit edit failed", err, slog.String("session", sid))
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

// export handles GET /review/sessions/{sid}/export?format=csv|pdf
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	sid, session, ok := h.session(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		httpx.RespondError(w, err, errorRules...)
		return
	}
	exporter := h.exporter
	if raw := r.URL.Query().Get("requireRows"); raw != "" {
		require, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: requireRows: %v", httpx.ErrValidation, err))
			return
		}
		exporter = exporter.WithRequireRows(require)
	}

	doc, err := exporter.Export(r.Context(), session.View(), h.now(), format)
	if err != nil {
		h.fail(w, "export accepted orders failed", err, slog.String("session", sid), slog.String("format", string(format)))
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *acceptedorders.Session, bool) {
	id := chi.URLParam(r, "sid")
	session, err := h.registry.Get(id)
	if err != nil {
		httpx.RespondError(w, err, errorRules...)
		return id, nil, false
	}
	return id, session, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) error {
	if err := httpx.DecodeJSON(w, r, dest); err != nil {
		return err
	}
	if err := h.validate.Struct(dest); err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.Any("error", err))
	if acceptedorders.IsTransport(err) {
		h.logger.Error(msg, attrs...)
		httpx.Problem(w, http.StatusBadGateway, "Order Store Unavailable", err.Error())
		return
	}
	var known bool
	for _, rule := range errorRules {
		if errors.Is(err, rule.Target) {
			known = true
			break
		}
	}
	if known {
		h.logger.Warn(msg, attrs...)
	} else {
		h.logger.Error(msg, attrs...)
	}
	httpx.RespondError(w, err, errorRules...)
}
