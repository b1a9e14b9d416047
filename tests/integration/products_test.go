package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/anbari/storefront/internal/database"
	"github.com/anbari/storefront/internal/models"
	"github.com/anbari/storefront/internal/store"
)

func TestListProductsPagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	category, err := store.CreateCategory(ctx, db, "Pagination")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	for i := 0; i < 25; i++ {
		sku := fmt.Sprintf("PAGE-%03d", i)
		if _, err := store.CreateProduct(ctx, db, category.ID, sku, "Product "+sku, "Test", decimal.NewFromInt(10), 5); err != nil {
			t.Fatalf("Create product %d: %v", i, err)
		}
	}

	page1, err := store.ListProducts(ctx, db, 1, 10)
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page1.Total != 25 {
		t.Errorf("Expected total 25, got %d", page1.Total)
	}
	if page1.TotalPages != 3 {
		t.Errorf("Expected 3 pages, got %d", page1.TotalPages)
	}
	if len(page1.Items.([]models.Product)) != 10 {
		t.Errorf("Expected 10 items on page 1")
	}

	page3, err := store.ListProducts(ctx, db, 3, 10)
	if err != nil {
		t.Fatalf("List products page 3: %v", err)
	}
	if len(page3.Items.([]models.Product)) != 5 {
		t.Errorf("Expected 5 items on page 3")
	}
}

func TestListProductsByCategory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	books, err := store.CreateCategory(ctx, db, "Books")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}
	games, err := store.CreateCategory(ctx, db, "Games")
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}

	for i := 0; i < 3; i++ {
		sku := fmt.Sprintf("BOOK-%03d", i)
		if _, err := store.CreateProduct(ctx, db, books.ID, sku, "Book "+sku, "Test", decimal.NewFromInt(10), 5); err != nil {
			t.Fatalf("Create product: %v", err)
		}
	}
	if _, err := store.CreateProduct(ctx, db, games.ID, "GAME-001", "Game", "Test", decimal.NewFromInt(60), 5); err != nil {
		t.Fatalf("Create product: %v", err)
	}

	result, err := store.ListProductsByCategory(ctx, db, books.ID, 1, 20)
	if err != nil {
		t.Fatalf("List by category: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("Expected 3 books, got %d", result.Total)
	}
	for _, product := range result.Items.([]models.Product) {
		if product.CategoryID != books.ID {
			t.Errorf("Product %s from wrong category", product.SKU)
		}
	}
}

func TestDecrementStockGuard(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	product := seedProduct(t, db, "GUARD-001", decimal.NewFromInt(10), 3)

	// The conditional update refuses to take stock below zero even
	// without the row lock in front of it.
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return store.DecrementStock(ctx, tx, product.ID, 5)
	})

	var stockErr *database.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected insufficient stock error, got: %v", err)
	}

	if stock := productStock(t, db, product.ID); stock != 3 {
		t.Errorf("Expected stock unchanged at 3, got %d", stock)
	}
}

func TestRestoreStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	product := seedProduct(t, db, "GUARD-002", decimal.NewFromInt(10), 3)

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := store.DecrementStock(ctx, tx, product.ID, 2); err != nil {
			return err
		}
		return store.RestoreStock(ctx, tx, product.ID, 2)
	})
	if err != nil {
		t.Fatalf("Decrement then restore: %v", err)
	}

	if stock := productStock(t, db, product.ID); stock != 3 {
		t.Errorf("Expected stock back at 3, got %d", stock)
	}
}
