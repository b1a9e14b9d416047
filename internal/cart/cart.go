// Package cart is the per-user ledger of desired quantities. Stock
// checks read current stock at call time and hold no lock across the
// check; checkout re-validates under FOR UPDATE, so a stale pass here
// costs nothing but a later error.
package cart

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anbari/storefront/internal/database"
	"github.com/anbari/storefront/internal/models"
)

// Add puts quantity units of a product into the user's cart, creating
// the line or topping up an existing one. The combined quantity may not
// exceed current stock; on failure the existing line is left untouched.
func Add(ctx context.Context, db *sql.DB, userID, productID int64, quantity int) (*models.CartLine, error) {
	if quantity < 1 {
		return nil, &database.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	line := &models.CartLine{}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT stock_quantity FROM products WHERE id = $1`,
			productID).Scan(&stock)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrProductNotFound
			}
			return fmt.Errorf("read product stock: %w", err)
		}

		var existing int
		err = tx.QueryRowContext(ctx,
			`SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`,
			userID, productID).Scan(&existing)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("read cart line: %w", err)
		}

		if existing+quantity > stock {
			return &database.InsufficientStockError{
				ProductID: productID,
				Available: stock - existing,
			}
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO cart_items (user_id, product_id, quantity, added_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (user_id, product_id)
			 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			 RETURNING id, user_id, product_id, quantity, added_at`,
			userID, productID, quantity).Scan(
			&line.ID,
			&line.UserID,
			&line.ProductID,
			&line.Quantity,
			&line.AddedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert cart line: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return line, nil
}

// SetQuantity pins the line to an absolute quantity. Anything below 1
// deletes the line; deleting an absent line is not an error here.
func SetQuantity(ctx context.Context, db *sql.DB, userID, productID int64, quantity int) (*models.CartLine, error) {
	if quantity < 1 {
		if err := Remove(ctx, db, userID, productID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	line := &models.CartLine{}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT stock_quantity FROM products WHERE id = $1`,
			productID).Scan(&stock)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrProductNotFound
			}
			return fmt.Errorf("read product stock: %w", err)
		}

		if quantity > stock {
			return &database.InsufficientStockError{
				ProductID: productID,
				Available: stock,
			}
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO cart_items (user_id, product_id, quantity, added_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (user_id, product_id)
			 DO UPDATE SET quantity = EXCLUDED.quantity
			 RETURNING id, user_id, product_id, quantity, added_at`,
			userID, productID, quantity).Scan(
			&line.ID,
			&line.UserID,
			&line.ProductID,
			&line.Quantity,
			&line.AddedAt,
		)
		if err != nil {
			return fmt.Errorf("set cart line: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return line, nil
}

// Remove deletes the line if present; removing an absent line is a
// no-op.
func Remove(ctx context.Context, db *sql.DB, userID, productID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

// Clear empties the user's cart.
func Clear(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// ClearTx empties the cart inside a transaction; checkout uses it so the
// consumed lines vanish atomically with the order.
func ClearTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

const listQuery = `
	SELECT c.id, c.user_id, c.product_id, c.quantity, c.added_at,
	       p.name, p.price, p.stock_quantity
	FROM cart_items c
	JOIN products p ON p.id = c.product_id
	WHERE c.user_id = $1
	ORDER BY c.added_at, c.id`

// List returns the user's cart lines joined with current product data.
func List(ctx context.Context, db *sql.DB, userID int64) ([]models.CartLine, error) {
	return scanLines(db.QueryContext(ctx, listQuery, userID))
}

// ListTx is List inside a transaction; checkout reads the cart through
// it so the lines it prices are the lines it consumes.
func ListTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error) {
	return scanLines(tx.QueryContext(ctx, listQuery, userID))
}

// Count reports how many distinct lines the cart holds.
func Count(ctx context.Context, db *sql.DB, userID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cart_items WHERE user_id = $1`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count cart lines: %w", err)
	}
	return count, nil
}

func scanLines(rows *sql.Rows, err error) ([]models.CartLine, error) {
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var line models.CartLine
		err := rows.Scan(
			&line.ID,
			&line.UserID,
			&line.ProductID,
			&line.Quantity,
			&line.AddedAt,
			&line.ProductName,
			&line.UnitPrice,
			&line.StockOnHand,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}
