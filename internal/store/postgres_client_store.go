package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// PostgresClientStore implements ClientStore for PostgreSQL.
type PostgresClientStore struct {
	pool *pgxpool.Pool
}

// NewPostgresClientStore creates a client store over the shared pool.
func NewPostgresClientStore(pool *pgxpool.Pool) *PostgresClientStore {
	return &PostgresClientStore{pool: pool}
}

const clientColumns = `id, name, phone, email, address, birth_number, admin_id,
	device_id, device_model, device_make, used_price_eur, price_fetched_at,
	lock_mode, registration_code, expo_push_token,
	loan_plan_id, loan_amount, down_payment, interest_rate, loan_tenure_months,
	monthly_emi, total_amount_due, total_paid, outstanding_balance,
	processing_fee, late_fees_accumulated, loan_start_date, last_payment_date,
	next_payment_due, days_overdue, payment_reminders_enabled,
	auto_lock_enabled, auto_lock_grace_days, emi_amount, emi_due_date,
	is_locked, lock_message, warning_message, latitude, longitude,
	last_location_update, is_registered, registered_at, created_at,
	tamper_attempts, last_tamper_attempt, last_reboot, admin_mode_active,
	last_heartbeat, uninstall_allowed`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*model.Client, error) {
	var c model.Client
	err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.BirthNumber, &c.AdminID,
		&c.DeviceID, &c.DeviceModel, &c.DeviceMake, &c.UsedPriceEUR, &c.PriceFetchedAt,
		&c.LockMode, &c.RegistrationCode, &c.ExpoPushToken,
		&c.LoanPlanID, &c.LoanAmount, &c.DownPayment, &c.InterestRate, &c.LoanTenureMonths,
		&c.MonthlyEMI, &c.TotalAmountDue, &c.TotalPaid, &c.OutstandingBalance,
		&c.ProcessingFee, &c.LateFeesAccumulated, &c.LoanStartDate, &c.LastPaymentDate,
		&c.NextPaymentDue, &c.DaysOverdue, &c.PaymentRemindersEnabled,
		&c.AutoLockEnabled, &c.AutoLockGraceDays, &c.EMIAmount, &c.EMIDueDate,
		&c.IsLocked, &c.LockMessage, &c.WarningMessage, &c.Latitude, &c.Longitude,
		&c.LastLocationUpdate, &c.IsRegistered, &c.RegisteredAt, &c.CreatedAt,
		&c.TamperAttempts, &c.LastTamperAttempt, &c.LastReboot, &c.AdminModeActive,
		&c.LastHeartbeat, &c.UninstallAllowed,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a client.
func (s *PostgresClientStore) Create(ctx context.Context, c *model.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
			$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,
			$36,$37,$38,$39,$40,$41,$42,$43,$44,$45,$46,$47,$48,$49,$50)
	`

	_, err := s.pool.Exec(ctx, query, clientArgs(c)...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func clientArgs(c *model.Client) []any {
	return []any{
		c.ID, c.Name, c.Phone, c.Email, c.Address, c.BirthNumber, c.AdminID,
		c.DeviceID, c.DeviceModel, c.DeviceMake, c.UsedPriceEUR, c.PriceFetchedAt,
		c.LockMode, c.RegistrationCode, c.ExpoPushToken,
		c.LoanPlanID, c.LoanAmount, c.DownPayment, c.InterestRate, c.LoanTenureMonths,
		c.MonthlyEMI, c.TotalAmountDue, c.TotalPaid, c.OutstandingBalance,
		c.ProcessingFee, c.LateFeesAccumulated, c.LoanStartDate, c.LastPaymentDate,
		c.NextPaymentDue, c.DaysOverdue, c.PaymentRemindersEnabled,
		c.AutoLockEnabled, c.AutoLockGraceDays, c.EMIAmount, c.EMIDueDate,
		c.IsLocked, c.LockMessage, c.WarningMessage, c.Latitude, c.Longitude,
		c.LastLocationUpdate, c.IsRegistered, c.RegisteredAt, c.CreatedAt,
		c.TamperAttempts, c.LastTamperAttempt, c.LastReboot, c.AdminModeActive,
		c.LastHeartbeat, c.UninstallAllowed,
	}
}

// GetByID retrieves a client by ID.
func (s *PostgresClientStore) GetByID(ctx context.Context, id string) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	client, err := scanClient(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// GetByRegistrationCode retrieves a client by its registration code.
func (s *PostgresClientStore) GetByRegistrationCode(ctx context.Context, code string) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE registration_code = $1`

	client, err := scanClient(s.pool.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by registration code: %w", err)
	}
	return client, nil
}

// List returns clients matching the filter, newest first.
func (s *PostgresClientStore) List(ctx context.Context, filter ClientFilter) ([]*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AdminID != "" {
		query += ` AND admin_id = ` + arg(filter.AdminID)
	}
	if filter.SilentSince != nil {
		query += ` AND is_registered AND (last_heartbeat IS NULL OR last_heartbeat < ` + arg(*filter.SilentSince) + `)`
	}
	if filter.WithLocation {
		query += ` AND latitude IS NOT NULL AND longitude IS NOT NULL`
	}
	if filter.Overdue {
		query += ` AND next_payment_due IS NOT NULL AND next_payment_due < now() AND outstanding_balance > 0`
	}
	if filter.WithBalance {
		query += ` AND outstanding_balance > 0`
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*model.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// Update writes every mutable field of the client.
func (s *PostgresClientStore) Update(ctx context.Context, c *model.Client) error {
	query := `
		UPDATE clients SET
			name = $2, phone = $3, email = $4, address = $5, birth_number = $6,
			admin_id = $7, device_id = $8, device_model = $9, device_make = $10,
			used_price_eur = $11, price_fetched_at = $12, lock_mode = $13,
			registration_code = $14, expo_push_token = $15, loan_plan_id = $16,
			loan_amount = $17, down_payment = $18, interest_rate = $19,
			loan_tenure_months = $20, monthly_emi = $21, total_amount_due = $22,
			total_paid = $23, outstanding_balance = $24, processing_fee = $25,
			late_fees_accumulated = $26, loan_start_date = $27,
			last_payment_date = $28, next_payment_due = $29, days_overdue = $30,
			payment_reminders_enabled = $31, auto_lock_enabled = $32,
			auto_lock_grace_days = $33, emi_amount = $34, emi_due_date = $35,
			is_locked = $36, lock_message = $37, warning_message = $38,
			latitude = $39, longitude = $40, last_location_update = $41,
			is_registered = $42, registered_at = $43, tamper_attempts = $44,
			last_tamper_attempt = $45, last_reboot = $46, admin_mode_active = $47,
			last_heartbeat = $48, uninstall_allowed = $49
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		c.ID, c.Name, c.Phone, c.Email, c.Address, c.BirthNumber,
		c.AdminID, c.DeviceID, c.DeviceModel, c.DeviceMake,
		c.UsedPriceEUR, c.PriceFetchedAt, c.LockMode,
		c.RegistrationCode, c.ExpoPushToken, c.LoanPlanID,
		c.LoanAmount, c.DownPayment, c.InterestRate,
		c.LoanTenureMonths, c.MonthlyEMI, c.TotalAmountDue,
		c.TotalPaid, c.OutstandingBalance, c.ProcessingFee,
		c.LateFeesAccumulated, c.LoanStartDate,
		c.LastPaymentDate, c.NextPaymentDue, c.DaysOverdue,
		c.PaymentRemindersEnabled, c.AutoLockEnabled,
		c.AutoLockGraceDays, c.EMIAmount, c.EMIDueDate,
		c.IsLocked, c.LockMessage, c.WarningMessage,
		c.Latitude, c.Longitude, c.LastLocationUpdate,
		c.IsRegistered, c.RegisteredAt, c.TamperAttempts,
		c.LastTamperAttempt, c.LastReboot, c.AdminModeActive,
		c.LastHeartbeat, c.UninstallAllowed,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a client.
func (s *PostgresClientStore) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByLoanPlan counts clients attached to a loan plan.
func (s *PostgresClientStore) CountByLoanPlan(ctx context.Context, planID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM clients WHERE loan_plan_id = $1`, planID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clients by loan plan: %w", err)
	}
	return count, nil
}
