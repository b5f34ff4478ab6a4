package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Resource is the part of the orders api the lifecycle actions need.
type Resource interface {
	Get(ctx context.Context, id int64) (*Order, error)
	Cancel(ctx context.Context, id int64) (*Order, error)
}

// CartAdder puts order lines back into the session cart.
type CartAdder interface {
	AddAll(ctx context.Context, lines []cart.Line) (cart.BatchResult, error)
}

// LifecycleParams bundle the Lifecycle dependencies.
type LifecycleParams struct {
	Orders Resource
	Cart   CartAdder
	Logger *logger.Logger
}

// Lifecycle carries out the buyer actions on an existing order. Neither action
// changes the order locally: cancel re-reads the order, repeat only touches
// the cart.
type Lifecycle struct {
	orders Resource
	cart   CartAdder
	logg   *logger.Logger
}

func NewLifecycle(params LifecycleParams) (*Lifecycle, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders resource required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	return &Lifecycle{orders: params.Orders, cart: params.Cart, logg: params.Logger}, nil
}

func (l *Lifecycle) Get(ctx context.Context, id int64) (*Order, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	return l.orders.Get(ctx, id)
}

// Cancel asks the storefront to cancel known, which must be in a cancellable
// status, and returns the order as re-read from the server afterwards.
func (l *Lifecycle) Cancel(ctx context.Context, known Order) (*Order, error) {
	if !known.Status.IsCancellable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order in status %q cannot be cancelled", known.Status)).
			WithDetails(map[string]any{"order_id": known.ID, "status": known.Status})
	}

	ctx = l.logg.WithOrderID(ctx, known.ID)
	if _, err := l.orders.Cancel(ctx, known.ID); err != nil {
		l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "order cancel rejected")
		return nil, err
	}

	order, err := l.orders.Get(ctx, known.ID)
	if err != nil {
		l.logg.Error(ctx, "order refresh after cancel failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeStale, err, "cancel requested but the order could not be reloaded").
			WithDetails(map[string]any{"order_id": known.ID})
	}
	l.logg.Info(l.logg.WithField(ctx, "status", order.Status.String()), "order cancel processed")
	return order, nil
}

// RepeatResult reports which lines of the original order landed in the cart.
type RepeatResult struct {
	OrderID int64 `json:"order_id"`
	cart.BatchResult
}

// Repeat adds every line of order to the cart, one at a time. The original
// order is not touched. A failed line does not stop the remaining ones.
func (l *Lifecycle) Repeat(ctx context.Context, order Order) (RepeatResult, error) {
	if len(order.Items) == 0 {
		return RepeatResult{OrderID: order.ID}, pkgerrors.New(pkgerrors.CodeValidation, "order has no items to repeat")
	}
	lines := make([]cart.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, cart.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	ctx = l.logg.WithOrderID(ctx, order.ID)
	batch, err := l.cart.AddAll(ctx, lines)
	result := RepeatResult{OrderID: order.ID, BatchResult: batch}
	l.logg.Info(l.logg.WithFields(ctx, map[string]any{
		"succeeded": batch.Succeeded,
		"failed":    batch.Failed,
	}), "order repeated into cart")
	return result, err
}
