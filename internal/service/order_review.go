package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ryven-shop/internal/domain"
	"ryven-shop/internal/inflight"
	"ryven-shop/internal/repository"

	"go.uber.org/zap"
)

// OrderReview is the order review view-model of one operator session.
// The mutex guards state only; it is never held across a store call.
type OrderReview struct {
	mu     sync.Mutex
	state  OrderState
	orders repository.OrderRepository
	guard  inflight.Guard
	logger *zap.Logger
}

// NewOrderReview creates a view-model in its initial loading state
func NewOrderReview(orders repository.OrderRepository, guard inflight.Guard, logger *zap.Logger) *OrderReview {
	return &OrderReview{
		state:  InitialOrderState(),
		orders: orders,
		guard:  guard,
		logger: logger,
	}
}

// State returns a snapshot of the current state
func (v *OrderReview) State() OrderState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// DrainNotifications returns and clears the pending notifications
func (v *OrderReview) DrainNotifications() []Notification {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.state.Notifications
	v.state.Notifications = nil
	return out
}

func (v *OrderReview) dispatch(actions ...OrderAction) OrderState {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, a := range actions {
		if n, ok := a.(Notified); ok {
			logNotification(v.logger, n.Notification)
		}
		v.state = ReduceOrders(v.state, a)
	}
	return v.state
}

// Refresh reloads every order. A failure empties the list and raises the
// connection error flag; it is not retried.
func (v *OrderReview) Refresh(ctx context.Context) error {
	v.dispatch(RefreshStarted{})

	orders, err := v.orders.List(ctx)
	if err != nil {
		v.logger.Error("Failed to load orders", zap.Error(err))
		v.dispatch(
			RefreshFailed{},
			Notified{notify(NotifyError, "Error loading orders", fmt.Sprintf("Could not load orders: %v", err))},
		)
		return err
	}

	n := notify(NotifySuccess, "Orders loaded", fmt.Sprintf("Loaded %d orders.", len(orders)))
	if len(orders) == 0 {
		n = notify(NotifyInfo, "No orders", "There are no orders registered in the database.")
	}
	v.dispatch(RefreshSucceeded{Orders: orders}, Notified{n})
	return nil
}

// ApplyFilter narrows the displayed orders to one status, or all
func (v *OrderReview) ApplyFilter(filter OrderFilter) OrderState {
	return v.dispatch(FilterApplied{Filter: filter})
}

// ApplySearch sets the free-text search term
func (v *OrderReview) ApplySearch(term string) OrderState {
	return v.dispatch(SearchApplied{Term: term})
}

// Transition moves one order to a new status. The local copy is patched only
// after the store accepted the change.
func (v *OrderReview) Transition(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if !status.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	release, err := v.guard.Acquire(ctx, "orders:"+orderID)
	if err != nil {
		return err
	}
	defer release()

	if err := v.orders.SetStatus(ctx, orderID, status); err != nil {
		v.logger.Error("Failed to update order status",
			zap.String("order_id", orderID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		v.dispatch(Notified{notify(NotifyError, "Error updating status", fmt.Sprintf("Could not update the status: %v", err))})
		return err
	}

	v.dispatch(
		StatusChanged{OrderID: orderID, Status: status},
		Notified{notify(NotifySuccess, "Status updated", fmt.Sprintf("Order %s is now %s.", orderID, status))},
	)
	return nil
}

// RequestRemove marks an order as awaiting removal confirmation
func (v *OrderReview) RequestRemove(orderID string) OrderState {
	return v.dispatch(RemovalRequested{OrderID: orderID})
}

// CancelRemove drops a pending removal request
func (v *OrderReview) CancelRemove() OrderState {
	return v.dispatch(RemovalCancelled{})
}

// ConfirmRemove deletes the order whose removal was requested
func (v *OrderReview) ConfirmRemove(ctx context.Context, orderID string) error {
	if pending := v.State().PendingRemoval; pending == "" || pending != orderID {
		return ErrConfirmationRequired
	}

	release, err := v.guard.Acquire(ctx, "orders:"+orderID)
	if err != nil {
		return err
	}
	defer release()

	if err := v.orders.Delete(ctx, orderID); err != nil {
		v.logger.Error("Failed to delete order", zap.String("order_id", orderID), zap.Error(err))
		v.dispatch(Notified{notify(NotifyError, "Error deleting order", fmt.Sprintf("Could not delete the order: %v", err))})
		return err
	}

	v.dispatch(
		OrderRemoved{OrderID: orderID},
		Notified{notify(NotifySuccess, "Order deleted", fmt.Sprintf("Order %s has been deleted.", orderID))},
	)
	return nil
}

// LoadDemo replaces the list with sample data; only allowed after a failed load
func (v *OrderReview) LoadDemo() error {
	if !v.State().ConnectionError {
		return ErrDemoUnavailable
	}
	v.dispatch(
		DemoLoaded{Orders: DemoOrders()},
		Notified{notify(NotifyInfo, "Sample data loaded", "Sample data has been loaded for testing.")},
	)
	return nil
}

// IsInFlight reports whether err means a duplicate mutation was suppressed
func IsInFlight(err error) bool {
	return errors.Is(err, inflight.ErrInFlight)
}
