package repository

import (
	"context"
	"fmt"

	"ryven-shop/internal/domain"
	"ryven-shop/internal/gateway"
)

const ordersTable = "orders"

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	List(ctx context.Context) ([]*domain.Order, error)
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	Delete(ctx context.Context, orderID string) error
	Create(ctx context.Context, order *domain.Order) error
}

type orderRepository struct {
	tables gateway.Tables
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(tables gateway.Tables) OrderRepository {
	return &orderRepository{tables: tables}
}

// List returns every order in the store's default order
func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.tables.Select(ctx, ordersTable, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(rows))
	for _, row := range rows {
		order, err := orderFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("failed to read order: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// SetStatus overwrites the status of the order with the given public id
func (r *orderRepository) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	_, err := r.tables.Update(ctx, ordersTable,
		gateway.Record{"status": string(status)},
		[]gateway.Filter{gateway.Eq("order_id", orderID)},
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// Delete removes the order with the given public id; a missing order is not an error
func (r *orderRepository) Delete(ctx context.Context, orderID string) error {
	if _, err := r.tables.Delete(ctx, ordersTable, []gateway.Filter{gateway.Eq("order_id", orderID)}); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// Create stores a new order
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	status := order.Status
	if status == "" {
		status = domain.StatusPending
	}

	err := r.tables.Insert(ctx, ordersTable, gateway.Record{
		"order_id":         order.OrderID,
		"product_name":     order.ProductName,
		"price":            order.Price,
		"discord_username": nullable(order.DiscordUsername),
		"email":            nullable(order.Email),
		"status":           string(status),
		"message":          nullable(order.Message),
	})
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func orderFromRow(row gateway.Row) (*domain.Order, error) {
	price, err := domain.CoercePrice(row["price"])
	if err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:              integer(row, "id"),
		OrderID:         text(row, "order_id"),
		ProductName:     text(row, "product_name"),
		Price:           price,
		DiscordUsername: text(row, "discord_username"),
		Email:           text(row, "email"),
		Status:          domain.NormalizeStatus(text(row, "status")),
		Message:         text(row, "message"),
	}, nil
}
