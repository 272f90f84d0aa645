package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create order tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.UserID, o.Total, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range o.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price, subtotal)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice, line.Subtotal)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create order tx: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT id, user_id, total, status, created_at, updated_at
	          FROM orders WHERE id = $1`

	var o Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID,
		&o.UserID,
		&o.Total,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	lines, err := r.linesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines

	return &o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*Order, error) {
	query := `SELECT id, user_id, total, status, created_at, updated_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*Order, error) {
	query := `SELECT id, user_id, total, status, created_at, updated_at
	          FROM orders ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now())
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *PostgresRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, from, to, time.Now())
	if err != nil {
		return fmt.Errorf("transition order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition order status rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check order existence: %w", err)
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrInvalidState
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.Total,
			&o.Status,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, o := range orders {
		lines, err := r.linesFor(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Lines = lines
	}

	return orders, nil
}

func (r *PostgresRepository) linesFor(ctx context.Context, orderID uuid.UUID) ([]Line, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, product_name, quantity, unit_price, subtotal
		 FROM order_lines WHERE order_id = $1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&line.UnitPrice,
			&line.Subtotal,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}
