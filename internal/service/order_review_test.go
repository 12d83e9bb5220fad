package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ryven-shop/internal/domain"
	"ryven-shop/internal/gateway"
	"ryven-shop/internal/inflight"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOrderReview(repo *mockOrderRepository) *OrderReview {
	return NewOrderReview(repo, inflight.NewLocal(), zap.NewNop())
}

// Property: a failed refresh leaves an empty list with the connection error flag set
func TestProperty_RefreshFailureEmptiesList(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("failure clears whatever was loaded", prop.ForAll(
		func(statuses []string) bool {
			repo := &mockOrderRepository{orders: ordersWithStatuses(statuses)}
			vm := newTestOrderReview(repo)
			ctx := context.Background()

			if err := vm.Refresh(ctx); err != nil {
				return false
			}
			if len(vm.State().Orders) != len(statuses) {
				return false
			}

			repo.listErr = gateway.ErrUnavailable
			if err := vm.Refresh(ctx); !errors.Is(err, gateway.ErrUnavailable) {
				return false
			}

			state := vm.State()
			return len(state.Orders) == 0 && state.ConnectionError && !state.Loading
		},
		genStatuses,
	))

	properties.TestingRun(t)
}

func TestOrderReview_RefreshNotifies(t *testing.T) {
	repo := &mockOrderRepository{orders: ordersWithStatuses([]string{"Pending", "Completed"})}
	vm := newTestOrderReview(repo)

	require.NoError(t, vm.Refresh(context.Background()))

	notes := vm.DrainNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, NotifySuccess, notes[0].Kind)
	assert.Equal(t, "Loaded 2 orders.", notes[0].Description)
	assert.Empty(t, vm.DrainNotifications())
}

func TestOrderReview_TransitionPatchesAfterSuccess(t *testing.T) {
	repo := &mockOrderRepository{orders: ordersWithStatuses([]string{"Pending", "Pending"})}
	vm := newTestOrderReview(repo)
	ctx := context.Background()
	require.NoError(t, vm.Refresh(ctx))

	require.NoError(t, vm.Transition(ctx, "ORD0001", domain.StatusCompleted))

	state := vm.State()
	assert.Equal(t, domain.StatusPending, state.Orders[0].Status)
	assert.Equal(t, domain.StatusCompleted, state.Orders[1].Status)
}

func TestOrderReview_TransitionFailureLeavesStateUntouched(t *testing.T) {
	repo := &mockOrderRepository{orders: ordersWithStatuses([]string{"Pending"})}
	vm := newTestOrderReview(repo)
	ctx := context.Background()
	require.NoError(t, vm.Refresh(ctx))
	vm.DrainNotifications()

	repo.statusErr = errors.New("failed to update order status: timeout")
	err := vm.Transition(ctx, "ORD0000", domain.StatusCancelled)
	require.Error(t, err)

	state := vm.State()
	assert.Equal(t, domain.StatusPending, state.Orders[0].Status)
	require.Len(t, state.Notifications, 1)
	assert.Equal(t, NotifyError, state.Notifications[0].Kind)
}

func TestOrderReview_TransitionRejectsUnknownStatus(t *testing.T) {
	repo := &mockOrderRepository{}
	vm := newTestOrderReview(repo)

	err := vm.Transition(context.Background(), "ORD0000", "Shipped")
	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Zero(t, repo.callCount())
}

func TestOrderReview_DuplicateTransitionIsSuppressed(t *testing.T) {
	repo := &mockOrderRepository{
		orders: ordersWithStatuses([]string{"Pending"}),
		block:  make(chan struct{}),
	}
	vm := newTestOrderReview(repo)
	ctx := context.Background()

	release, err := vm.guard.Acquire(ctx, "orders:ORD0000")
	require.NoError(t, err)

	err = vm.Transition(ctx, "ORD0000", domain.StatusCompleted)
	assert.ErrorIs(t, err, inflight.ErrInFlight)
	assert.True(t, IsInFlight(err))
	assert.Zero(t, repo.callCount())

	release()
	close(repo.block)
	assert.NoError(t, vm.Transition(ctx, "ORD0000", domain.StatusCompleted))
}

func TestOrderReview_ConcurrentTransitionsOneStoreCall(t *testing.T) {
	repo := &mockOrderRepository{
		orders:  ordersWithStatuses([]string{"Pending"}),
		entered: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	vm := newTestOrderReview(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- vm.Transition(ctx, "ORD0000", domain.StatusCompleted)
	}()

	<-repo.entered

	results <- vm.Transition(ctx, "ORD0000", domain.StatusCompleted)
	close(repo.block)
	wg.Wait()
	close(results)

	var ok, busy int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, inflight.ErrInFlight):
			busy++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, busy)
	assert.Equal(t, 1, repo.callCount())
}

func TestOrderReview_RemoveNeedsConfirmation(t *testing.T) {
	repo := &mockOrderRepository{orders: ordersWithStatuses([]string{"Pending", "Completed", "Cancelled"})}
	vm := newTestOrderReview(repo)
	ctx := context.Background()
	require.NoError(t, vm.Refresh(ctx))
	calls := repo.callCount()

	assert.ErrorIs(t, vm.ConfirmRemove(ctx, "ORD0001"), ErrConfirmationRequired)
	assert.ErrorIs(t, vm.ConfirmRemove(ctx, ""), ErrConfirmationRequired)
	assert.Equal(t, calls, repo.callCount())

	vm.RequestRemove("ORD0001")
	vm.CancelRemove()
	assert.ErrorIs(t, vm.ConfirmRemove(ctx, "ORD0001"), ErrConfirmationRequired)

	vm.RequestRemove("ORD0001")
	assert.ErrorIs(t, vm.ConfirmRemove(ctx, "ORD0002"), ErrConfirmationRequired)
	require.NoError(t, vm.ConfirmRemove(ctx, "ORD0001"))

	state := vm.State()
	require.Len(t, state.Orders, 2)
	assert.Nil(t, FindOrder(state, "ORD0001"))
	assert.Empty(t, state.PendingRemoval)
}

func TestOrderReview_RemoveFailureKeepsOrder(t *testing.T) {
	repo := &mockOrderRepository{orders: ordersWithStatuses([]string{"Pending"})}
	vm := newTestOrderReview(repo)
	ctx := context.Background()
	require.NoError(t, vm.Refresh(ctx))

	repo.deleteErr = gateway.ErrUnavailable
	vm.RequestRemove("ORD0000")
	assert.ErrorIs(t, vm.ConfirmRemove(ctx, "ORD0000"), gateway.ErrUnavailable)

	state := vm.State()
	assert.Len(t, state.Orders, 1)
	assert.Equal(t, "ORD0000", state.PendingRemoval)
}

func TestOrderReview_DemoOnlyAfterConnectionError(t *testing.T) {
	repo := &mockOrderRepository{}
	vm := newTestOrderReview(repo)
	ctx := context.Background()

	require.NoError(t, vm.Refresh(ctx))
	assert.ErrorIs(t, vm.LoadDemo(), ErrDemoUnavailable)

	repo.listErr = gateway.ErrUnavailable
	_ = vm.Refresh(ctx)
	require.NoError(t, vm.LoadDemo())

	state := vm.State()
	require.Len(t, state.Orders, 1)
	assert.Equal(t, "TEST0001", state.Orders[0].OrderID)
	assert.Equal(t, "usuario_test", state.Orders[0].DiscordUsername)
	assert.Equal(t, "$49.99", domain.FormatPrice(state.Orders[0].Price))
}
