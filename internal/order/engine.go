// Package order converts carts and buy-now selections into immutable
// orders and governs status transitions. Every writer runs as one
// serializable, retried transaction with per-product row locks, so two
// concurrent checkouts cannot both pass the stock check and drive stock
// negative.
package order

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/anbari/storefront/internal/cart"
	"github.com/anbari/storefront/internal/database"
	"github.com/anbari/storefront/internal/models"
	"github.com/anbari/storefront/internal/pricing"
	"github.com/anbari/storefront/internal/store"
	"github.com/shopspring/decimal"
)

// Line is one (product, quantity) entry of a checkout request.
type Line struct {
	ProductID int64
	Quantity  int
}

type Engine struct {
	db   *sql.DB
	calc pricing.Calculator
}

func NewEngine(db *sql.DB, calc pricing.Calculator) *Engine {
	return &Engine{db: db, calc: calc}
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
}

// CheckoutCart converts the user's entire cart into an order. The cart
// is read, priced, consumed, and cleared inside a single transaction;
// an empty cart fails before anything is written.
func (e *Engine) CheckoutCart(ctx context.Context, userID int64, shippingAddress string) (*models.Order, error) {
	if err := validateAddress(shippingAddress); err != nil {
		return nil, err
	}

	var orderID int64

	err := database.WithRetry(ctx, e.db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		cartLines, err := cart.ListTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(cartLines) == 0 {
			return database.ErrEmptyCart
		}

		lines := make([]Line, 0, len(cartLines))
		for _, cl := range cartLines {
			lines = append(lines, Line{ProductID: cl.ProductID, Quantity: cl.Quantity})
		}

		orderID, err = e.createOrder(ctx, tx, userID, lines, shippingAddress)
		if err != nil {
			return err
		}

		return cart.ClearTx(ctx, tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return e.fetch(ctx, orderID)
}

// Checkout converts explicit lines into an order without touching the
// cart ledger.
func (e *Engine) Checkout(ctx context.Context, userID int64, lines []Line, shippingAddress string) (*models.Order, error) {
	if err := validateAddress(shippingAddress); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, database.ErrEmptyCart
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, &database.ValidationError{Field: "quantity", Reason: "must be at least 1"}
		}
	}

	var orderID int64

	err := database.WithRetry(ctx, e.db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		var err error
		orderID, err = e.createOrder(ctx, tx, userID, lines, shippingAddress)
		return err
	})
	if err != nil {
		return nil, err
	}

	return e.fetch(ctx, orderID)
}

// BuyNow is a direct single-product purchase. Everything arrives as an
// explicit parameter; nothing is stashed in between-request state and
// the cart ledger is never involved.
func (e *Engine) BuyNow(ctx context.Context, userID, productID int64, quantity int, shippingAddress string) (*models.Order, error) {
	return e.Checkout(ctx, userID, []Line{{ProductID: productID, Quantity: quantity}}, shippingAddress)
}

// Cancel moves a pending order to cancelled and puts every item's
// quantity back into stock, atomically with the status write. The order
// is resolved by id first, then checked for ownership, so a missing
// order and someone else's order fail differently.
func (e *Engine) Cancel(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	err := database.WithRetry(ctx, e.db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		ord, err := store.LockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if ord.UserID != userID {
			return database.ErrNotOrderOwner
		}

		if !CanTransition(ord.Status, models.OrderStatusCancelled) {
			return &database.InvalidTransitionError{
				Current: ord.Status,
				Target:  models.OrderStatusCancelled,
			}
		}

		items, err := store.ListOrderItemsTx(ctx, tx, orderID)
		if err != nil {
			return err
		}

		for _, item := range items {
			if err := store.RestoreStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return store.UpdateOrderStatus(ctx, tx, orderID, models.OrderStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	return e.fetch(ctx, orderID)
}

// createOrder locks every product, prices the lines from the locked
// rows, writes the order and its items, and decrements stock. Any
// failure aborts the whole transaction: no partial orders, no phantom
// stock loss.
func (e *Engine) createOrder(ctx context.Context, tx *sql.Tx, userID int64, lines []Line, shippingAddress string) (int64, error) {
	items := make([]pricing.LineItem, 0, len(lines))
	prices := make(map[int64]decimal.Decimal, len(lines))

	for _, line := range lines {
		product, err := store.LockProduct(ctx, tx, line.ProductID)
		if err != nil {
			return 0, err
		}

		if product.StockQuantity < line.Quantity {
			return 0, &database.InsufficientStockError{
				ProductID: line.ProductID,
				Available: product.StockQuantity,
			}
		}

		prices[line.ProductID] = product.Price
		items = append(items, pricing.LineItem{UnitPrice: product.Price, Quantity: line.Quantity})
	}

	totals := e.calc.Compute(items)

	orderID, err := store.InsertOrder(ctx, tx, userID, generateOrderNumber(),
		models.OrderStatusPending, totals.Total, shippingAddress)
	if err != nil {
		return 0, err
	}

	for _, line := range lines {
		if err := store.InsertOrderItem(ctx, tx, orderID, line.ProductID, line.Quantity, prices[line.ProductID]); err != nil {
			return 0, err
		}
		if err := store.DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return 0, err
		}
	}

	return orderID, nil
}

func (e *Engine) fetch(ctx context.Context, orderID int64) (*models.Order, error) {
	return store.GetOrder(ctx, e.db, orderID)
}

func validateAddress(shippingAddress string) error {
	if strings.TrimSpace(shippingAddress) == "" {
		return &database.ValidationError{Field: "shipping_address", Reason: "must not be blank"}
	}
	return nil
}
