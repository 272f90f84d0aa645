package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (id, order_id, method, status, card_last4, card_holder,
			bank, payer_type, document_type, document_last4, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OrderID, p.Method, p.Status,
		p.CardLast4, p.CardHolder,
		p.Bank, p.PayerType, p.DocumentType, p.DocLast4,
		p.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrPaymentExists
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	query := `
		SELECT id, order_id, method, status, card_last4, card_holder,
			bank, payer_type, document_type, document_last4, created_at
		FROM payments
		WHERE order_id = $1`

	var p Payment
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Status,
		&p.CardLast4, &p.CardHolder,
		&p.Bank, &p.PayerType, &p.DocumentType, &p.DocLast4,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
