package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// PostgresAdminStore implements AdminStore for PostgreSQL.
type PostgresAdminStore struct {
	pool *pgxpool.Pool
}

// NewPostgresAdminStore creates an admin store over the shared pool.
func NewPostgresAdminStore(pool *pgxpool.Pool) *PostgresAdminStore {
	return &PostgresAdminStore{pool: pool}
}

const adminColumns = `id, username, password_hash, role, is_super_admin,
	credits, first_name, last_name, email, phone, address, created_at`

func scanAdmin(row rowScanner) (*model.Admin, error) {
	var a model.Admin
	err := row.Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.IsSuperAdmin,
		&a.Credits, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.Address,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an admin.
func (s *PostgresAdminStore) Create(ctx context.Context, a *model.Admin) error {
	query := `
		INSERT INTO admins (` + adminColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`

	_, err := s.pool.Exec(ctx, query,
		a.ID, a.Username, a.PasswordHash, a.Role, a.IsSuperAdmin,
		a.Credits, a.FirstName, a.LastName, a.Email, a.Phone, a.Address,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// GetByID retrieves an admin by ID.
func (s *PostgresAdminStore) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`

	admin, err := scanAdmin(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

// GetByUsername retrieves an admin by username.
func (s *PostgresAdminStore) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE username = $1`

	admin, err := scanAdmin(s.pool.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin by username: %w", err)
	}
	return admin, nil
}

// List returns all admins ordered by creation time.
func (s *PostgresAdminStore) List(ctx context.Context) ([]*model.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*model.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

// Count returns the number of admins.
func (s *PostgresAdminStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM admins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// Update writes every mutable field of the admin.
func (s *PostgresAdminStore) Update(ctx context.Context, a *model.Admin) error {
	query := `
		UPDATE admins SET
			username = $2, password_hash = $3, role = $4, is_super_admin = $5,
			credits = $6, first_name = $7, last_name = $8, email = $9,
			phone = $10, address = $11
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		a.ID, a.Username, a.PasswordHash, a.Role, a.IsSuperAdmin,
		a.Credits, a.FirstName, a.LastName, a.Email, a.Phone, a.Address,
	)
	if err != nil {
		return fmt.Errorf("failed to update admin: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an admin.
func (s *PostgresAdminStore) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
