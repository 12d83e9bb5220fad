package service

import (
	"fmt"
	"strings"

	"ryven-shop/internal/domain"

	"github.com/shopspring/decimal"
)

// OrderFilter is either FilterAll or one of the order statuses
type OrderFilter string

const FilterAll OrderFilter = "All"

// ParseOrderFilter accepts "All" (or empty) and any known status spelling
func ParseOrderFilter(raw string) (OrderFilter, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, string(FilterAll)) || strings.EqualFold(trimmed, "todos") {
		return FilterAll, nil
	}
	if s, ok := domain.ParseOrderStatus(trimmed); ok {
		return OrderFilter(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, raw)
}

// OrderFilters lists the filter choices in display order
func OrderFilters() []OrderFilter {
	out := []OrderFilter{FilterAll}
	for _, s := range domain.OrderStatuses {
		out = append(out, OrderFilter(s))
	}
	return out
}

// OrderState is the order review screen state
type OrderState struct {
	Orders          []*domain.Order
	Filter          OrderFilter
	Search          string
	Loading         bool
	ConnectionError bool
	PendingRemoval  string
	Notifications   []Notification
}

// InitialOrderState is the state before the first load
func InitialOrderState() OrderState {
	return OrderState{Filter: FilterAll, Loading: true}
}

// OrderAction is an event the order review reducer understands
type OrderAction interface {
	orderAction()
}

type (
	RefreshStarted   struct{}
	RefreshSucceeded struct{ Orders []*domain.Order }
	RefreshFailed    struct{}
	FilterApplied    struct{ Filter OrderFilter }
	SearchApplied    struct{ Term string }
	StatusChanged    struct {
		OrderID string
		Status  domain.OrderStatus
	}
	RemovalRequested struct{ OrderID string }
	RemovalCancelled struct{}
	OrderRemoved     struct{ OrderID string }
	DemoLoaded       struct{ Orders []*domain.Order }
	Notified         struct{ Notification Notification }
)

func (RefreshStarted) orderAction()   {}
func (RefreshSucceeded) orderAction() {}
func (RefreshFailed) orderAction()    {}
func (FilterApplied) orderAction()    {}
func (SearchApplied) orderAction()    {}
func (StatusChanged) orderAction()    {}
func (RemovalRequested) orderAction() {}
func (RemovalCancelled) orderAction() {}
func (OrderRemoved) orderAction()     {}
func (DemoLoaded) orderAction()       {}
func (Notified) orderAction()         {}

// ReduceOrders returns the state after applying action. The input state and
// its orders are never modified.
func ReduceOrders(state OrderState, action OrderAction) OrderState {
	next := state

	switch a := action.(type) {
	case RefreshStarted:
		next.Loading = true
		next.ConnectionError = false
	case RefreshSucceeded:
		next.Orders = cloneOrders(a.Orders)
		next.Loading = false
		next.ConnectionError = false
		next.PendingRemoval = ""
	case RefreshFailed:
		next.Orders = []*domain.Order{}
		next.Loading = false
		next.ConnectionError = true
		next.PendingRemoval = ""
	case FilterApplied:
		next.Filter = a.Filter
	case SearchApplied:
		next.Search = a.Term
	case StatusChanged:
		orders := make([]*domain.Order, len(state.Orders))
		for i, o := range state.Orders {
			if o.OrderID == a.OrderID {
				patched := o.Clone()
				patched.Status = a.Status
				orders[i] = patched
				continue
			}
			orders[i] = o
		}
		next.Orders = orders
	case RemovalRequested:
		next.PendingRemoval = a.OrderID
	case RemovalCancelled:
		next.PendingRemoval = ""
	case OrderRemoved:
		orders := make([]*domain.Order, 0, len(state.Orders))
		for _, o := range state.Orders {
			if o.OrderID != a.OrderID {
				orders = append(orders, o)
			}
		}
		next.Orders = orders
		if next.PendingRemoval == a.OrderID {
			next.PendingRemoval = ""
		}
	case DemoLoaded:
		next.Orders = cloneOrders(a.Orders)
		next.Loading = false
	case Notified:
		next.Notifications = appendNotification(state.Notifications, a.Notification)
	}

	return next
}

// Displayed returns the orders matching the current filter and search term
func Displayed(state OrderState) []*domain.Order {
	out := make([]*domain.Order, 0, len(state.Orders))
	for _, o := range state.Orders {
		if state.Filter != FilterAll && state.Filter != "" && OrderFilter(o.Status) != state.Filter {
			continue
		}
		if !o.Matches(state.Search) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// FindOrder returns the order with the given public id, or nil
func FindOrder(state OrderState, orderID string) *domain.Order {
	for _, o := range state.Orders {
		if o.OrderID == orderID {
			return o
		}
	}
	return nil
}

func cloneOrders(in []*domain.Order) []*domain.Order {
	out := make([]*domain.Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}

// DemoOrders is the sample data offered while the store is unreachable
func DemoOrders() []*domain.Order {
	return []*domain.Order{
		{
			ID:              1,
			OrderID:         "TEST0001",
			ProductName:     "Productivity Software X",
			Price:           decimal.RequireFromString("49.99"),
			DiscordUsername: "usuario_test",
			Email:           "test@ejemplo.com",
			Status:          domain.StatusPending,
			Message:         "This is a test order",
		},
	}
}
