package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// PostgresReminderStore implements ReminderStore for PostgreSQL.
type PostgresReminderStore struct {
	pool *pgxpool.Pool
}

// NewPostgresReminderStore creates a reminder store over the shared pool.
func NewPostgresReminderStore(pool *pgxpool.Pool) *PostgresReminderStore {
	return &PostgresReminderStore{pool: pool}
}

const reminderColumns = `id, client_id, reminder_type, scheduled_date, sent,
	sent_at, message, admin_id, created_at`

func scanReminder(row rowScanner) (*model.Reminder, error) {
	var r model.Reminder
	err := row.Scan(
		&r.ID, &r.ClientID, &r.ReminderType, &r.ScheduledDate, &r.Sent,
		&r.SentAt, &r.Message, &r.AdminID, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a reminder.
func (s *PostgresReminderStore) Create(ctx context.Context, r *model.Reminder) error {
	query := `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.ClientID, r.ReminderType, r.ScheduledDate, r.Sent,
		r.SentAt, r.Message, r.AdminID, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// ListByAdmin returns reminders for an admin's clients, newest first.
func (s *PostgresReminderStore) ListByAdmin(ctx context.Context, adminID string) ([]*model.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
		WHERE admin_id = $1 ORDER BY scheduled_date DESC`
	return s.queryReminders(ctx, query, adminID)
}

// ListByClient returns a client's reminders, newest first.
func (s *PostgresReminderStore) ListByClient(ctx context.Context, clientID string) ([]*model.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
		WHERE client_id = $1 ORDER BY scheduled_date DESC`
	return s.queryReminders(ctx, query, clientID)
}

func (s *PostgresReminderStore) queryReminders(ctx context.Context, query string, args ...any) ([]*model.Reminder, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*model.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

// MarkSent flags a reminder as delivered.
func (s *PostgresReminderStore) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	result, err := s.pool.Exec(ctx,
		`UPDATE reminders SET sent = TRUE, sent_at = $2 WHERE id = $1`, id, sentAt)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasRecent reports whether a reminder of the given type already exists for
// the client after the cutoff. The sweep uses this to stay idempotent across
// runs within the same day.
func (s *PostgresReminderStore) HasRecent(ctx context.Context, clientID, reminderType string, since time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM reminders
			WHERE client_id = $1 AND reminder_type = $2 AND created_at >= $3
		)`, clientID, reminderType, since,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recent reminders: %w", err)
	}
	return exists, nil
}

// DeleteByClient removes every reminder of a client.
func (s *PostgresReminderStore) DeleteByClient(ctx context.Context, clientID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM reminders WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("failed to delete reminders: %w", err)
	}
	return nil
}
