package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/anbari/storefront/internal/cart"
	"github.com/anbari/storefront/internal/database"
)

func TestCartAddBeyondStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, db, "cart-add@example.com")
	product := seedProduct(t, db, "CART-001", decimal.NewFromInt(10), 5)

	line, err := cart.Add(ctx, db, user.ID, product.ID, 3)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if line.Quantity != 3 {
		t.Errorf("Expected quantity 3, got %d", line.Quantity)
	}

	_, err = cart.Add(ctx, db, user.ID, product.ID, 3)
	var stockErr *database.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected insufficient stock error, got: %v", err)
	}
	if stockErr.Available != 2 {
		t.Errorf("Expected 2 available, got %d", stockErr.Available)
	}

	lines, err := cart.List(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 3 {
		t.Errorf("Existing line should be untouched, got %+v", lines)
	}
}

func TestCartAddAccumulates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, db, "cart-accum@example.com")
	product := seedProduct(t, db, "CART-002", decimal.NewFromInt(10), 10)

	if _, err := cart.Add(ctx, db, user.ID, product.ID, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	line, err := cart.Add(ctx, db, user.ID, product.ID, 3)
	if err != nil {
		t.Fatalf("Add again: %v", err)
	}
	if line.Quantity != 5 {
		t.Errorf("Expected accumulated quantity 5, got %d", line.Quantity)
	}

	lines, err := cart.List(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 1 {
		t.Errorf("Expected a single line per (user, product), got %d", len(lines))
	}
}

func TestCartAddRejectsBadQuantity(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, db, "cart-badqty@example.com")
	product := seedProduct(t, db, "CART-003", decimal.NewFromInt(10), 5)

	_, err := cart.Add(ctx, db, user.ID, product.ID, 0)
	var validationErr *database.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected validation error, got: %v", err)
	}
}

func TestCartSetQuantity(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, db, "cart-set@example.com")
	product := seedProduct(t, db, "CART-004", decimal.NewFromInt(10), 5)

	if _, err := cart.Add(ctx, db, user.ID, product.ID, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}

	line, err := cart.SetQuantity(ctx, db, user.ID, product.ID, 4)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if line.Quantity != 4 {
		t.Errorf("Expected quantity 4, got %d", line.Quantity)
	}

	_, err = cart.SetQuantity(ctx, db, user.ID, product.ID, 6)
	var stockErr *database.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected insufficient stock error, got: %v", err)
	}
	if stockErr.Available != 5 {
		t.Errorf("Expected 5 available, got %d", stockErr.Available)
	}

	// Below 1 deletes the line.
	line, err = cart.SetQuantity(ctx, db, user.ID, product.ID, 0)
	if err != nil {
		t.Fatalf("SetQuantity to 0: %v", err)
	}
	if line != nil {
		t.Errorf("Expected nil line after delete, got %+v", line)
	}

	lines, err := cart.List(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected empty cart, got %d lines", len(lines))
	}
}

func TestCartRemoveIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, db, "cart-remove@example.com")
	product := seedProduct(t, db, "CART-005", decimal.NewFromInt(10), 5)

	// Removing an absent line is not an error.
	if err := cart.Remove(ctx, db, user.ID, product.ID); err != nil {
		t.Fatalf("Remove absent line: %v", err)
	}

	if _, err := cart.Add(ctx, db, user.ID, product.ID, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := cart.Remove(ctx, db, user.ID, product.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := cart.Remove(ctx, db, user.ID, product.ID); err != nil {
		t.Fatalf("Remove again: %v", err)
	}

	count, err := cart.Count(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty cart, got %d lines", count)
	}
}

func TestCartClear(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, db, "cart-clear@example.com")
	product1 := seedProduct(t, db, "CART-006", decimal.NewFromInt(10), 5)
	product2 := seedProduct(t, db, "CART-007", decimal.NewFromInt(20), 5)

	if _, err := cart.Add(ctx, db, user.ID, product1.ID, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := cart.Add(ctx, db, user.ID, product2.ID, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := cart.Clear(ctx, db, user.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	lines, err := cart.List(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected empty cart, got %d lines", len(lines))
	}
}

func TestCartListJoinsProductData(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, db, "cart-list@example.com")
	product := seedProduct(t, db, "CART-008", decimal.RequireFromString("19.99"), 7)

	if _, err := cart.Add(ctx, db, user.ID, product.ID, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}

	lines, err := cart.List(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}

	line := lines[0]
	if !line.UnitPrice.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("Expected unit price 19.99, got %s", line.UnitPrice)
	}
	if line.StockOnHand != 7 {
		t.Errorf("Expected stock on hand 7, got %d", line.StockOnHand)
	}
	if line.ProductName == "" {
		t.Error("Expected joined product name")
	}
}
