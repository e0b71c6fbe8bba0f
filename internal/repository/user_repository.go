package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cscinfonest/portal-api/internal/models"
)

const adminUserColumns = "id, email, password_hash, full_name, active, last_login, created_at, updated_at"

// UserRepository provides persistence for portal administrators.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns the administrator registered under the email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	query := fmt.Sprintf("SELECT %s FROM admin_users WHERE email = $1 LIMIT 1", adminUserColumns)
	var user models.AdminUser
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns an administrator by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.AdminUser, error) {
	query := fmt.Sprintf("SELECT %s FROM admin_users WHERE id = $1", adminUserColumns)
	var user models.AdminUser
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin stamps the most recent successful sign-in.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE admin_users SET last_login = $1, updated_at = $1 WHERE id = $2", ts, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
