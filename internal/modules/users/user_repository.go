package users

import (
	"context"
	"errors"
	"fmt"

	"grocery-dispatch/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the user repository: account
// records plus the customer's saved addresses the quote engine resolves.
type RepositoryInterface interface {
	CreateUser(ctx context.Context, name, email, passwordHash, role string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
	EmailByID(ctx context.Context, userID string) (string, error)

	AddAddress(ctx context.Context, userID string, req models.AddAddressRequest) (*models.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]*models.Address, error)
	FindAddressForUser(ctx context.Context, addressID, userID string) (*models.Address, error)
	UpdateAddress(ctx context.Context, addressID, userID string, req models.UpdateAddressRequest) (*models.Address, error)
	DeleteAddress(ctx context.Context, addressID, userID string) error
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new user repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new account. A duplicate email surfaces as
// ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash, role string) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, query, name, email, passwordHash, role))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("repo.CreateUser: %w", err)
	}
	return u, nil
}

// FindByEmail looks an account up for login.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.FindByEmail: %w", err)
	}
	return u, nil
}

// FindByID retrieves an account by id.
func (r *Repository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.FindUserByID: %w", err)
	}
	return u, nil
}

// EmailByID returns just the email address, for notification dispatch.
func (r *Repository) EmailByID(ctx context.Context, userID string) (string, error) {
	var email string
	err := r.db.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("repo.EmailByID: %w", err)
	}
	return email, nil
}

const addressColumns = `id, user_id, label, street_address, latitude, longitude, is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (*models.Address, error) {
	var a models.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.StreetAddress, &a.Latitude, &a.Longitude, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan address: %w", err)
	}
	return &a, nil
}

// AddAddress stores a new saved address for the user.
func (r *Repository) AddAddress(ctx context.Context, userID string, req models.AddAddressRequest) (*models.Address, error) {
	query := `
		INSERT INTO addresses (user_id, label, street_address, latitude, longitude, is_default)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + addressColumns

	a, err := scanAddress(r.db.QueryRow(ctx, query, userID, req.Label, req.StreetAddress, req.Latitude, req.Longitude, req.IsDefault))
	if err != nil {
		return nil, fmt.Errorf("repo.AddAddress: %w", err)
	}
	return a, nil
}

// ListAddresses returns the user's saved addresses.
func (r *Repository) ListAddresses(ctx context.Context, userID string) ([]*models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repo.ListAddresses: %w", err)
	}
	defer rows.Close()

	var addresses []*models.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ListAddresses scan: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ListAddresses rows: %w", err)
	}
	return addresses, nil
}

// FindAddressForUser resolves an address id scoped to its owner. This is
// the lookup behind savedAddressId in quotes and checkout.
func (r *Repository) FindAddressForUser(ctx context.Context, addressID, userID string) (*models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`
	a, err := scanAddress(r.db.QueryRow(ctx, query, addressID, userID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.FindAddressForUser: %w", err)
	}
	return a, nil
}

// UpdateAddress patches the provided fields of a saved address.
func (r *Repository) UpdateAddress(ctx context.Context, addressID, userID string, req models.UpdateAddressRequest) (*models.Address, error) {
	query := `
		UPDATE addresses
		SET label = COALESCE(NULLIF($3, ''), label),
		    street_address = COALESCE(NULLIF($4, ''), street_address),
		    latitude = COALESCE($5, latitude),
		    longitude = COALESCE($6, longitude),
		    is_default = COALESCE($7, is_default),
		    updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + addressColumns

	a, err := scanAddress(r.db.QueryRow(ctx, query, addressID, userID, req.Label, req.StreetAddress, req.Latitude, req.Longitude, req.IsDefault))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.UpdateAddress: %w", err)
	}
	return a, nil
}

// DeleteAddress removes a saved address.
func (r *Repository) DeleteAddress(ctx context.Context, addressID, userID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("repo.DeleteAddress: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
