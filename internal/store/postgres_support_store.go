package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// PostgresSupportStore implements SupportStore for PostgreSQL.
type PostgresSupportStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSupportStore creates a support message store over the shared pool.
func NewPostgresSupportStore(pool *pgxpool.Pool) *PostgresSupportStore {
	return &PostgresSupportStore{pool: pool}
}

const supportColumns = `id, client_id, sender, message, is_read, created_at`

func scanSupportMessage(row rowScanner) (*model.SupportMessage, error) {
	var m model.SupportMessage
	err := row.Scan(&m.ID, &m.ClientID, &m.Sender, &m.Message, &m.IsRead, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a support message.
func (s *PostgresSupportStore) Create(ctx context.Context, m *model.SupportMessage) error {
	query := `
		INSERT INTO support_messages (` + supportColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6)
	`

	_, err := s.pool.Exec(ctx, query,
		m.ID, m.ClientID, m.Sender, m.Message, m.IsRead, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create support message: %w", err)
	}
	return nil
}

// ListByClient returns a client's conversation in chronological order.
func (s *PostgresSupportStore) ListByClient(ctx context.Context, clientID string) ([]*model.SupportMessage, error) {
	query := `SELECT ` + supportColumns + ` FROM support_messages
		WHERE client_id = $1 ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list support messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.SupportMessage
	for rows.Next() {
		message, err := scanSupportMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan support message: %w", err)
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

// MarkClientMessagesRead marks every client-sent message in the conversation
// as read. Called when an admin opens the chat.
func (s *PostgresSupportStore) MarkClientMessagesRead(ctx context.Context, clientID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE support_messages SET is_read = TRUE
			WHERE client_id = $1 AND sender = 'client' AND NOT is_read`, clientID)
	if err != nil {
		return fmt.Errorf("failed to mark support messages read: %w", err)
	}
	return nil
}
