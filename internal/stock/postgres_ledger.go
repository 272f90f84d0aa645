package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresLedger stores stock in the products table. Decrements are a single
// conditional UPDATE, so the check and the write are one indivisible
// statement; batch operations run in one transaction and roll back wholesale.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) CheckAvailable(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := l.db.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}
	return stock, nil
}

func (l *PostgresLedger) TryDecrement(ctx context.Context, productID int64, quantity int) error {
	result, err := l.db.ExecContext(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock rows affected: %w", err)
	}
	if affected == 0 {
		return l.classifyMiss(ctx, productID)
	}
	return nil
}

func (l *PostgresLedger) Increment(ctx context.Context, productID int64, quantity int) error {
	result, err := l.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + $2 WHERE id = $1`, productID, quantity)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment stock rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (l *PostgresLedger) DecrementAll(ctx context.Context, items []ItemQuantity) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin decrement tx: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
			item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock for product %d: %w", item.ProductID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("decrement stock rows affected: %w", err)
		}
		if affected == 0 {
			// Rollback via defer; no partial decrement survives.
			return l.classifyMiss(ctx, item.ProductID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit decrement tx: %w", err)
	}
	return nil
}

func (l *PostgresLedger) IncrementAll(ctx context.Context, items []ItemQuantity) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin increment tx: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + $2 WHERE id = $1`,
			item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("increment stock for product %d: %w", item.ProductID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("increment stock rows affected: %w", err)
		}
		if affected == 0 {
			return ErrProductNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit increment tx: %w", err)
	}
	return nil
}

func (l *PostgresLedger) SetStock(ctx context.Context, productID int64, quantity int) error {
	result, err := l.db.ExecContext(ctx,
		`UPDATE products SET stock = $2 WHERE id = $1`, productID, quantity)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set stock rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// classifyMiss distinguishes a missing product from insufficient stock after
// a conditional update touched zero rows.
func (l *PostgresLedger) classifyMiss(ctx context.Context, productID int64) error {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("classify decrement miss: %w", err)
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}
