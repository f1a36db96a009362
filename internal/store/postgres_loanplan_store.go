package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// PostgresLoanPlanStore implements LoanPlanStore for PostgreSQL.
type PostgresLoanPlanStore struct {
	pool *pgxpool.Pool
}

// NewPostgresLoanPlanStore creates a loan plan store over the shared pool.
func NewPostgresLoanPlanStore(pool *pgxpool.Pool) *PostgresLoanPlanStore {
	return &PostgresLoanPlanStore{pool: pool}
}

const loanPlanColumns = `id, name, interest_rate, min_tenure_months,
	max_tenure_months, processing_fee_percent, late_fee_percent, description,
	is_active, admin_id, created_at`

func scanLoanPlan(row rowScanner) (*model.LoanPlan, error) {
	var p model.LoanPlan
	err := row.Scan(
		&p.ID, &p.Name, &p.InterestRate, &p.MinTenureMonths,
		&p.MaxTenureMonths, &p.ProcessingFeePercent, &p.LateFeePercent,
		&p.Description, &p.IsActive, &p.AdminID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a loan plan.
func (s *PostgresLoanPlanStore) Create(ctx context.Context, p *model.LoanPlan) error {
	query := `
		INSERT INTO loan_plans (` + loanPlanColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.InterestRate, p.MinTenureMonths,
		p.MaxTenureMonths, p.ProcessingFeePercent, p.LateFeePercent,
		p.Description, p.IsActive, p.AdminID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan plan: %w", err)
	}
	return nil
}

// GetByID retrieves a loan plan by ID.
func (s *PostgresLoanPlanStore) GetByID(ctx context.Context, id string) (*model.LoanPlan, error) {
	query := `SELECT ` + loanPlanColumns + ` FROM loan_plans WHERE id = $1`

	plan, err := scanLoanPlan(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan plan: %w", err)
	}
	return plan, nil
}

// GetByName retrieves a loan plan by name.
func (s *PostgresLoanPlanStore) GetByName(ctx context.Context, name string) (*model.LoanPlan, error) {
	query := `SELECT ` + loanPlanColumns + ` FROM loan_plans WHERE name = $1 LIMIT 1`

	plan, err := scanLoanPlan(s.pool.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan plan by name: %w", err)
	}
	return plan, nil
}

// ListByAdmin returns the plans owned by an admin.
func (s *PostgresLoanPlanStore) ListByAdmin(ctx context.Context, adminID string) ([]*model.LoanPlan, error) {
	query := `SELECT ` + loanPlanColumns + ` FROM loan_plans WHERE admin_id = $1 ORDER BY created_at`
	return s.queryPlans(ctx, query, adminID)
}

// List returns every plan.
func (s *PostgresLoanPlanStore) List(ctx context.Context) ([]*model.LoanPlan, error) {
	query := `SELECT ` + loanPlanColumns + ` FROM loan_plans ORDER BY created_at`
	return s.queryPlans(ctx, query)
}

func (s *PostgresLoanPlanStore) queryPlans(ctx context.Context, query string, args ...any) ([]*model.LoanPlan, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loan plans: %w", err)
	}
	defer rows.Close()

	var plans []*model.LoanPlan
	for rows.Next() {
		plan, err := scanLoanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// Update writes every mutable field of the plan.
func (s *PostgresLoanPlanStore) Update(ctx context.Context, p *model.LoanPlan) error {
	query := `
		UPDATE loan_plans SET
			name = $2, interest_rate = $3, min_tenure_months = $4,
			max_tenure_months = $5, processing_fee_percent = $6,
			late_fee_percent = $7, description = $8, is_active = $9
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.InterestRate, p.MinTenureMonths,
		p.MaxTenureMonths, p.ProcessingFeePercent,
		p.LateFeePercent, p.Description, p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a loan plan.
func (s *PostgresLoanPlanStore) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM loan_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete loan plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
