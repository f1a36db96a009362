package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// PostgresNotificationStore implements NotificationStore for PostgreSQL.
type PostgresNotificationStore struct {
	pool *pgxpool.Pool
}

// NewPostgresNotificationStore creates a notification store over the shared pool.
func NewPostgresNotificationStore(pool *pgxpool.Pool) *PostgresNotificationStore {
	return &PostgresNotificationStore{pool: pool}
}

const notificationColumns = `id, admin_id, type, title, message, client_id,
	client_name, is_read, created_at`

func scanNotification(row rowScanner) (*model.Notification, error) {
	var n model.Notification
	err := row.Scan(
		&n.ID, &n.AdminID, &n.Type, &n.Title, &n.Message, &n.ClientID,
		&n.ClientName, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a notification.
func (s *PostgresNotificationStore) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`

	_, err := s.pool.Exec(ctx, query,
		n.ID, n.AdminID, n.Type, n.Title, n.Message, n.ClientID,
		n.ClientName, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByAdmin returns an admin's notifications, newest first.
func (s *PostgresNotificationStore) ListByAdmin(ctx context.Context, adminID string, limit int) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE admin_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := s.pool.Query(ctx, query, adminID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

// CountUnread counts an admin's unread notifications.
func (s *PostgresNotificationStore) CountUnread(ctx context.Context, adminID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE admin_id = $1 AND NOT is_read`, adminID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks a single notification read, scoped to the owning admin.
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, id, adminID string) error {
	result, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND admin_id = $2`,
		id, adminID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the admin read and returns
// how many rows changed.
func (s *PostgresNotificationStore) MarkAllRead(ctx context.Context, adminID string) (int, error) {
	result, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE admin_id = $1 AND NOT is_read`,
		adminID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(result.RowsAffected()), nil
}
