package transport

import (
	"net/http"

	"ryven-shop/internal/middleware"
	"ryven-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderPlacedResponse confirms a new order to the customer
type OrderPlacedResponse struct {
	OrderID     string `json:"order_id"`
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	Status      string `json:"status"`
}

// ShopHandler serves the public storefront
type ShopHandler struct {
	shop   *service.Storefront
	logger *zap.Logger
}

// NewShopHandler creates a new ShopHandler
func NewShopHandler(shop *service.Storefront, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{
		shop:   shop,
		logger: logger,
	}
}

// RegisterRoutes registers the public shop routes
func (h *ShopHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/shop", func(r chi.Router) {
		r.Get("/products", h.Products)
		r.Post("/orders", h.PlaceOrder)
	})
}

// Products lists the catalog as cards
func (h *ShopHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.shop.Products(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to load products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"products": productCards(products),
	})
}

// PlaceOrder records a pending order for one product
func (h *ShopHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondError(w, h.logger, err, "")
		return
	}

	order, err := h.shop.PlaceOrder(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err, "failed to place order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, OrderPlacedResponse{
		OrderID:     order.OrderID,
		ProductName: order.ProductName,
		Price:       money(order.Price),
		Status:      string(order.Status),
	})
}
