package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/config"
)

// Postgres bundles the connection pool shared by the SQL-backed stores.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres opens a pgx pool against the configured database and verifies
// the connection.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Postgres, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s pool_max_conns=%d pool_min_conns=%d",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password,
		cfg.MaxConnections, cfg.MinConnections,
	)

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

// Pool exposes the underlying pool for shared use.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Bootstrap creates the schema and indexes if they do not exist. The service
// owns its schema the same way the original system created its indexes on
// startup.
func (p *Postgres) Bootstrap(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS admins (
			id                TEXT PRIMARY KEY,
			username          TEXT NOT NULL UNIQUE,
			password_hash     TEXT NOT NULL,
			role              TEXT NOT NULL DEFAULT 'user',
			is_super_admin    BOOLEAN NOT NULL DEFAULT FALSE,
			credits           INTEGER NOT NULL DEFAULT 5,
			first_name        TEXT NOT NULL DEFAULT '',
			last_name         TEXT NOT NULL DEFAULT '',
			email             TEXT NOT NULL DEFAULT '',
			phone             TEXT NOT NULL DEFAULT '',
			address           TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS clients (
			id                         TEXT PRIMARY KEY,
			name                       TEXT NOT NULL,
			phone                      TEXT NOT NULL,
			email                      TEXT NOT NULL DEFAULT '',
			address                    TEXT NOT NULL DEFAULT '',
			birth_number               TEXT NOT NULL DEFAULT '',
			admin_id                   TEXT NOT NULL DEFAULT '',
			device_id                  TEXT NOT NULL DEFAULT '',
			device_model               TEXT NOT NULL DEFAULT '',
			device_make                TEXT NOT NULL DEFAULT '',
			used_price_eur             DOUBLE PRECISION,
			price_fetched_at           TIMESTAMPTZ,
			lock_mode                  TEXT NOT NULL DEFAULT 'device_admin',
			registration_code          TEXT NOT NULL DEFAULT '',
			expo_push_token            TEXT NOT NULL DEFAULT '',
			loan_plan_id               TEXT NOT NULL DEFAULT '',
			loan_amount                DOUBLE PRECISION NOT NULL DEFAULT 0,
			down_payment               DOUBLE PRECISION NOT NULL DEFAULT 0,
			interest_rate              DOUBLE PRECISION NOT NULL DEFAULT 0,
			loan_tenure_months         INTEGER NOT NULL DEFAULT 12,
			monthly_emi                DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_amount_due           DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_paid                 DOUBLE PRECISION NOT NULL DEFAULT 0,
			outstanding_balance        DOUBLE PRECISION NOT NULL DEFAULT 0,
			processing_fee             DOUBLE PRECISION NOT NULL DEFAULT 0,
			late_fees_accumulated      DOUBLE PRECISION NOT NULL DEFAULT 0,
			loan_start_date            TIMESTAMPTZ,
			last_payment_date          TIMESTAMPTZ,
			next_payment_due           TIMESTAMPTZ,
			days_overdue               INTEGER NOT NULL DEFAULT 0,
			payment_reminders_enabled  BOOLEAN NOT NULL DEFAULT TRUE,
			auto_lock_enabled          BOOLEAN NOT NULL DEFAULT TRUE,
			auto_lock_grace_days       INTEGER NOT NULL DEFAULT 3,
			emi_amount                 DOUBLE PRECISION NOT NULL DEFAULT 0,
			emi_due_date               TEXT NOT NULL DEFAULT '',
			is_locked                  BOOLEAN NOT NULL DEFAULT FALSE,
			lock_message               TEXT NOT NULL DEFAULT '',
			warning_message            TEXT NOT NULL DEFAULT '',
			latitude                   DOUBLE PRECISION,
			longitude                  DOUBLE PRECISION,
			last_location_update       TIMESTAMPTZ,
			is_registered              BOOLEAN NOT NULL DEFAULT FALSE,
			registered_at              TIMESTAMPTZ,
			created_at                 TIMESTAMPTZ NOT NULL DEFAULT now(),
			tamper_attempts            INTEGER NOT NULL DEFAULT 0,
			last_tamper_attempt        TIMESTAMPTZ,
			last_reboot                TIMESTAMPTZ,
			admin_mode_active          BOOLEAN NOT NULL DEFAULT FALSE,
			last_heartbeat             TIMESTAMPTZ,
			uninstall_allowed          BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_registration_code
			ON clients (registration_code) WHERE registration_code <> ''`,
		`CREATE INDEX IF NOT EXISTS idx_clients_admin_id ON clients (admin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_is_locked ON clients (is_locked)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_is_registered ON clients (is_registered)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_due_balance
			ON clients (next_payment_due, outstanding_balance)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_loan_plan_id ON clients (loan_plan_id)`,
		`CREATE TABLE IF NOT EXISTS loan_plans (
			id                      TEXT PRIMARY KEY,
			name                    TEXT NOT NULL,
			interest_rate           DOUBLE PRECISION NOT NULL,
			min_tenure_months       INTEGER NOT NULL DEFAULT 3,
			max_tenure_months       INTEGER NOT NULL DEFAULT 36,
			processing_fee_percent  DOUBLE PRECISION NOT NULL DEFAULT 0,
			late_fee_percent        DOUBLE PRECISION NOT NULL DEFAULT 2,
			description             TEXT NOT NULL DEFAULT '',
			is_active               BOOLEAN NOT NULL DEFAULT TRUE,
			admin_id                TEXT NOT NULL DEFAULT '',
			created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id              TEXT PRIMARY KEY,
			client_id       TEXT NOT NULL,
			amount          DOUBLE PRECISION NOT NULL,
			payment_date    TIMESTAMPTZ NOT NULL,
			payment_method  TEXT NOT NULL DEFAULT 'cash',
			notes           TEXT NOT NULL DEFAULT '',
			recorded_by     TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_client_date
			ON payments (client_id, payment_date DESC)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id              TEXT PRIMARY KEY,
			client_id       TEXT NOT NULL,
			reminder_type   TEXT NOT NULL,
			scheduled_date  TIMESTAMPTZ NOT NULL,
			sent            BOOLEAN NOT NULL DEFAULT FALSE,
			sent_at         TIMESTAMPTZ,
			message         TEXT NOT NULL DEFAULT '',
			admin_id        TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_client ON reminders (client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_admin ON reminders (admin_id)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT PRIMARY KEY,
			admin_id     TEXT NOT NULL,
			type         TEXT NOT NULL,
			title        TEXT NOT NULL,
			message      TEXT NOT NULL,
			client_id    TEXT NOT NULL DEFAULT '',
			client_name  TEXT NOT NULL DEFAULT '',
			is_read      BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_admin_read
			ON notifications (admin_id, is_read)`,
		`CREATE TABLE IF NOT EXISTS support_messages (
			id          TEXT PRIMARY KEY,
			client_id   TEXT NOT NULL,
			sender      TEXT NOT NULL,
			message     TEXT NOT NULL,
			is_read     BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_support_messages_client
			ON support_messages (client_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}

	p.logger.Info("database schema ready")
	return nil
}
