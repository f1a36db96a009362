package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// PostgresPaymentStore implements PaymentStore for PostgreSQL.
type PostgresPaymentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPaymentStore creates a payment store over the shared pool.
func NewPostgresPaymentStore(pool *pgxpool.Pool) *PostgresPaymentStore {
	return &PostgresPaymentStore{pool: pool}
}

const paymentColumns = `id, client_id, amount, payment_date, payment_method,
	notes, recorded_by, created_at`

func scanPayment(row rowScanner) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.ID, &p.ClientID, &p.Amount, &p.PaymentDate, &p.PaymentMethod,
		&p.Notes, &p.RecordedBy, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a payment record.
func (s *PostgresPaymentStore) Create(ctx context.Context, p *model.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.ClientID, p.Amount, p.PaymentDate, p.PaymentMethod,
		p.Notes, p.RecordedBy, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// ListByClient returns a client's payments, newest first.
func (s *PostgresPaymentStore) ListByClient(ctx context.Context, clientID string) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE client_id = $1 ORDER BY payment_date DESC`
	return s.queryPayments(ctx, query, clientID)
}

// ListByAdmin returns payments across every client owned by the admin,
// optionally bounded by payment date.
func (s *PostgresPaymentStore) ListByAdmin(ctx context.Context, adminID string, start, end *time.Time) ([]*model.Payment, error) {
	query := `SELECT p.id, p.client_id, p.amount, p.payment_date,
		p.payment_method, p.notes, p.recorded_by, p.created_at
		FROM payments p JOIN clients c ON c.id = p.client_id
		WHERE c.admin_id = $1`
	args := []any{adminID}

	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND p.payment_date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND p.payment_date <= $%d", len(args))
	}
	query += ` ORDER BY p.payment_date DESC`

	return s.queryPayments(ctx, query, args...)
}

func (s *PostgresPaymentStore) queryPayments(ctx context.Context, query string, args ...any) ([]*model.Payment, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// DeleteByClient removes every payment of a client. Used when the client
// itself is deleted.
func (s *PostgresPaymentStore) DeleteByClient(ctx context.Context, clientID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM payments WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("failed to delete payments: %w", err)
	}
	return nil
}
