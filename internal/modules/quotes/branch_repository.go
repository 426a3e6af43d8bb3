package quotes

import (
	"context"
	"errors"
	"fmt"

	"grocery-dispatch/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BranchRepositoryInterface declares the branch lookups the quote engine
// needs. Branch records are immutable for the duration of a quote.
type BranchRepositoryInterface interface {
	FindByID(ctx context.Context, branchID string) (*models.Branch, error)
	ListAll(ctx context.Context) ([]models.Branch, error)
}

// BranchRepository is a PostgreSQL implementation of BranchRepositoryInterface.
type BranchRepository struct {
	db *pgxpool.Pool
}

// NewBranchRepository creates a new repository instance.
func NewBranchRepository(db *pgxpool.Pool) BranchRepositoryInterface {
	return &BranchRepository{db: db}
}

const branchColumns = `id, name, lat, lng, max_distance_km, base_fare, free_radius_km, per_km_fee,
	small_order_floor, small_order_fee, created_at, updated_at`

func scanBranch(row pgx.Row) (*models.Branch, error) {
	var b models.Branch
	err := row.Scan(
		&b.ID, &b.Name, &b.Latitude, &b.Longitude,
		&b.MaxDistanceKm, &b.BaseFare, &b.FreeRadiusKm, &b.PerKmFee,
		&b.SmallOrderFloor, &b.SmallOrderFee,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBranchNotFound
		}
		return nil, fmt.Errorf("failed to scan branch: %w", err)
	}
	return &b, nil
}

// FindByID retrieves a single branch.
func (r *BranchRepository) FindByID(ctx context.Context, branchID string) (*models.Branch, error) {
	query := `SELECT ` + branchColumns + ` FROM branches WHERE id = $1`
	b, err := scanBranch(r.db.QueryRow(ctx, query, branchID))
	if err != nil {
		if errors.Is(err, models.ErrBranchNotFound) {
			return nil, models.ErrBranchNotFound
		}
		return nil, fmt.Errorf("repo.FindBranchByID: %w", err)
	}
	return b, nil
}

// ListAll returns every branch; proximity resolution happens in the service.
func (r *BranchRepository) ListAll(ctx context.Context) ([]models.Branch, error) {
	query := `SELECT ` + branchColumns + ` FROM branches ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repo.ListBranches: %w", err)
	}
	defer rows.Close()

	var branches []models.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ListBranches scan: %w", err)
		}
		branches = append(branches, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ListBranches rows: %w", err)
	}
	return branches, nil
}
