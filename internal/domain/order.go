package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OrderStatus is the review state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusCompleted OrderStatus = "Completed"
	StatusCancelled OrderStatus = "Cancelled"
)

// OrderStatuses lists every known status in display order
var OrderStatuses = []OrderStatus{StatusPending, StatusCompleted, StatusCancelled}

// legacy values written by the first storefront release
var statusAliases = map[string]OrderStatus{
	"pending":    StatusPending,
	"pendiente":  StatusPending,
	"completed":  StatusCompleted,
	"completado": StatusCompleted,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
	"cancelado":  StatusCancelled,
}

// ParseOrderStatus maps a stored or requested value onto a known status
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// NormalizeStatus reads a stored status: empty means Pending, known aliases are
// canonicalized and anything else is kept verbatim
func NormalizeStatus(raw string) OrderStatus {
	if strings.TrimSpace(raw) == "" {
		return StatusPending
	}
	if s, ok := ParseOrderStatus(raw); ok {
		return s
	}
	return OrderStatus(raw)
}

// Known reports whether s is one of the three workflow statuses
func (s OrderStatus) Known() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
// The workflow is unguarded: any status may move to any other status.
func CanTransition(from, to OrderStatus) bool {
	return to.Known() && from != to
}

// AvailableTransitions returns the statuses an order can be moved to from its current one
func AvailableTransitions(current OrderStatus) []OrderStatus {
	out := make([]OrderStatus, 0, len(OrderStatuses))
	for _, s := range OrderStatuses {
		if CanTransition(current, s) {
			out = append(out, s)
		}
	}
	return out
}

// Order is a customer purchase; everything except Status is written once at creation
type Order struct {
	ID              int64           `json:"id"`
	OrderID         string          `json:"order_id"`
	ProductName     string          `json:"product_name"`
	Price           decimal.Decimal `json:"price"`
	DiscordUsername string          `json:"discord_username,omitempty"`
	Email           string          `json:"email,omitempty"`
	Status          OrderStatus     `json:"status"`
	Message         string          `json:"message,omitempty"`
}

// Clone returns a copy safe to mutate
func (o *Order) Clone() *Order {
	c := *o
	return &c
}

// Matches reports whether term occurs, case-insensitively, in the order id,
// product name, discord username or email
func (o *Order) Matches(term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, field := range []string{o.OrderID, o.ProductName, o.DiscordUsername, o.Email} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
