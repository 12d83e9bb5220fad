package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ryven-shop/internal/domain"
	"ryven-shop/internal/gateway"
	"ryven-shop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const orderIDAttempts = 3

// PlaceOrderRequest is what a customer submits from the shop page
type PlaceOrderRequest struct {
	ProductID       int64  `json:"product_id" validate:"required,gt=0"`
	DiscordUsername string `json:"discord_username" validate:"max=64"`
	Email           string `json:"email" validate:"omitempty,email"`
	Message         string `json:"message" validate:"max=2000"`
}

// Storefront serves the public shop
type Storefront struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	logger   *zap.Logger
}

// NewStorefront creates the public shop service
func NewStorefront(products repository.ProductRepository, orders repository.OrderRepository, logger *zap.Logger) *Storefront {
	return &Storefront{products: products, orders: orders, logger: logger}
}

// Products lists the catalog
func (s *Storefront) Products(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// PlaceOrder snapshots the product's name and price into a new pending order
func (s *Storefront) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	discord := strings.TrimSpace(req.DiscordUsername)
	email := strings.TrimSpace(req.Email)
	if discord == "" && email == "" {
		return nil, ErrMissingContact
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ProductName:     product.Name,
		Price:           product.Price,
		DiscordUsername: discord,
		Email:           email,
		Status:          domain.StatusPending,
		Message:         strings.TrimSpace(req.Message),
	}

	for attempt := 1; ; attempt++ {
		order.OrderID = NewOrderID()
		err = s.orders.Create(ctx, order)
		if err == nil || !errors.Is(err, gateway.ErrConflict) || attempt == orderIDAttempts {
			break
		}
		s.logger.Warn("Order id collision, retrying", zap.String("order_id", order.OrderID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.OrderID),
		zap.Int64("product_id", product.ID),
	)
	return order, nil
}

// NewOrderID returns eight random uppercase hex characters
func NewOrderID() string {
	id := uuid.New()
	return strings.ToUpper(fmt.Sprintf("%x", id[:4]))
}
