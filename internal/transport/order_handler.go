package transport

import (
	"net/http"

	"ryven-shop/internal/middleware"
	"ryven-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatusRequest represents the order status change payload
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler serves the admin order review screen
type OrderHandler struct {
	sessions *service.Registry
	logger   *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(sessions *service.Registry, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers the order review routes on an admin-only router
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.View)
		r.Post("/refresh", h.Refresh)
		r.Post("/demo", h.LoadDemo)
		r.Patch("/{orderID}/status", h.UpdateStatus)
		r.Post("/{orderID}/delete-request", h.RequestRemove)
		r.Delete("/{orderID}/delete-request", h.CancelRemove)
		r.Delete("/{orderID}", h.ConfirmRemove)
	})
	r.Get("/notifications", h.Notifications)
}

// View renders the order list, applying ?status= and ?q= when present
func (h *OrderHandler) View(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	query := r.URL.Query()
	if query.Has("status") {
		filter, err := service.ParseOrderFilter(query.Get("status"))
		if err != nil {
			respondError(w, h.logger, err, "")
			return
		}
		sess.Orders.ApplyFilter(filter)
	}
	if query.Has("q") {
		sess.Orders.ApplySearch(query.Get("q"))
	}

	middleware.RespondWithJSON(w, http.StatusOK, RenderOrders(sess.Orders.State()))
}

// Refresh reloads the orders. A connectivity failure is part of the view,
// not an HTTP error.
func (h *OrderHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	if err := sess.Orders.Refresh(r.Context()); err != nil {
		h.logger.Debug("Order refresh failed", zap.String("session", sess.ID), zap.Error(err))
	}
	middleware.RespondWithJSON(w, http.StatusOK, RenderOrders(sess.Orders.State()))
}

// LoadDemo swaps in sample orders while the store is unreachable
func (h *OrderHandler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	if err := sess.Orders.LoadDemo(); err != nil {
		respondError(w, h.logger, err, "failed to load sample data")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, RenderOrders(sess.Orders.State()))
}

// UpdateStatus moves one order to the requested status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondError(w, h.logger, err, "")
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		respondError(w, h.logger, err, "")
		return
	}

	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if err := sess.Orders.Transition(r.Context(), orderID, status); err != nil {
		respondError(w, h.logger, err, "failed to update order status")
		return
	}

	h.logger.Info("Order status updated",
		zap.String("session", sess.ID),
		zap.String("order_id", orderID),
		zap.String("status", string(status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, RenderOrders(sess.Orders.State()))
}

// RequestRemove asks for confirmation before an order is deleted
func (h *OrderHandler) RequestRemove(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if service.FindOrder(sess.Orders.State(), orderID) == nil {
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, RenderOrders(sess.Orders.RequestRemove(orderID)))
}

// CancelRemove drops the pending removal
func (h *OrderHandler) CancelRemove(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, RenderOrders(sess.Orders.CancelRemove()))
}

// ConfirmRemove deletes the order whose removal was requested
func (h *OrderHandler) ConfirmRemove(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if err := sess.Orders.ConfirmRemove(r.Context(), orderID); err != nil {
		respondError(w, h.logger, err, "failed to delete order")
		return
	}

	h.logger.Info("Order deleted", zap.String("session", sess.ID), zap.String("order_id", orderID))
	middleware.RespondWithJSON(w, http.StatusOK, RenderOrders(sess.Orders.State()))
}

// Notifications drains the operator's pending notifications
func (h *OrderHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": renderNotifications(sess.DrainNotifications()),
	})
}
