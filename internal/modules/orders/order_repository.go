package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"grocery-dispatch/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the order repository. The
// conditional updates (AssignPartner, SwapStatus, CancelNonTerminal) are the
// atomic guards behind the state machine: they only succeed when the stored
// row still matches the precondition.
type RepositoryInterface interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error)
	ListAvailable(ctx context.Context) ([]*models.Order, error)

	// AssignPartner binds a partner and moves available -> confirmed in one
	// statement. Returns ErrOrderAlreadyAssigned when the row is no longer
	// unassigned, ErrNotFound when it does not exist.
	AssignPartner(ctx context.Context, orderID, partnerID string, loc models.GeoPoint) (*models.Order, error)

	// SwapStatus moves from -> to for the bound partner, carrying the
	// partner's coordinate. Returns ErrNotFound when no row matches the
	// precondition.
	SwapStatus(ctx context.Context, orderID, partnerID string, from, to models.OrderStatus, loc models.GeoPoint) (*models.Order, error)

	// CancelNonTerminal cancels the order unless it is already terminal.
	CancelNonTerminal(ctx context.Context, orderID string) (*models.Order, error)

	// UpdateCourierLocation overwrites the order's courier coordinate
	// (last-write-wins) for the bound partner and returns the current
	// status for re-broadcast.
	UpdateCourierLocation(ctx context.Context, orderID, partnerID string, loc models.GeoPoint, at time.Time) (models.OrderStatus, error)
}

// Repository implements the RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const orderColumns = `id, customer_id, branch_id, delivery_partner_id, status, items, total_price, delivery_fee,
	pickup_lat, pickup_lng, delivery_lat, delivery_lng, delivery_address, courier_lat, courier_lng, created_at, updated_at`

// scanOrder is a helper to scan a row into an Order model.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order      models.Order
		itemsJSON  []byte
		courierLat *float64
		courierLng *float64
	)
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.BranchID,
		&order.DeliveryPartnerID,
		&order.Status,
		&itemsJSON,
		&order.TotalPrice,
		&order.DeliveryFee,
		&order.PickupLocation.Latitude,
		&order.PickupLocation.Longitude,
		&order.DeliveryLocation.Latitude,
		&order.DeliveryLocation.Longitude,
		&order.DeliveryAddress,
		&courierLat,
		&courierLng,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	if itemsJSON != nil {
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, fmt.Errorf("failed to decode order items: %w", err)
		}
	}
	if courierLat != nil && courierLng != nil {
		order.CourierLocation = &models.GeoPoint{Latitude: *courierLat, Longitude: *courierLng}
	}
	return &order, nil
}

// Create inserts a new order in the 'available' state.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("repo.CreateOrder marshal items: %w", err)
	}

	query := `
		INSERT INTO orders (customer_id, branch_id, status, items, total_price, delivery_fee,
			pickup_lat, pickup_lng, delivery_lat, delivery_lng, delivery_address)
		VALUES ($1, $2, 'available', $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + orderColumns

	row := r.db.QueryRow(ctx, query,
		order.CustomerID, order.BranchID, itemsJSON, order.TotalPrice, order.DeliveryFee,
		order.PickupLocation.Latitude, order.PickupLocation.Longitude,
		order.DeliveryLocation.Latitude, order.DeliveryLocation.Longitude,
		order.DeliveryAddress,
	)
	created, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("repo.CreateOrder: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single order by its ID. This is the authoritative
// fetch that tracking subscribers fall back to after a reconnect.
func (r *Repository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.FindByID: %w", err)
	}
	return order, nil
}

// ListByCustomer retrieves a customer's orders with pagination.
func (r *Repository) ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ListByCustomer.Query: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ListByCustomer.Scan: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ListByCustomer.Rows: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ListByCustomer.Count: %w", err)
	}
	return orders, total, nil
}

// ListAvailable returns unassigned orders awaiting a delivery partner.
func (r *Repository) ListAvailable(ctx context.Context) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = 'available'
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repo.ListAvailable: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ListAvailable scan: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ListAvailable rows: %w", err)
	}
	return orders, nil
}

// AssignPartner is the single-assignment guard: the UPDATE only matches an
// unassigned row, so of two concurrent confirms exactly one succeeds.
func (r *Repository) AssignPartner(ctx context.Context, orderID, partnerID string, loc models.GeoPoint) (*models.Order, error) {
	query := `
		UPDATE orders
		SET delivery_partner_id = $2,
		    status = 'confirmed',
		    courier_lat = $3,
		    courier_lng = $4,
		    updated_at = now()
		WHERE id = $1 AND status = 'available' AND delivery_partner_id IS NULL
		RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID, partnerID, loc.Latitude, loc.Longitude))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("repo.AssignPartner: %w", err)
	}

	// Nothing matched: distinguish a missing order from a lost race.
	if _, ferr := r.FindByID(ctx, orderID); ferr != nil {
		return nil, ferr
	}
	return nil, models.ErrOrderAlreadyAssigned
}

// SwapStatus applies a partner transition conditionally on the current
// status, so a stale attempt against a changed order matches nothing.
func (r *Repository) SwapStatus(ctx context.Context, orderID, partnerID string, from, to models.OrderStatus, loc models.GeoPoint) (*models.Order, error) {
	query := `
		UPDATE orders
		SET status = $3,
		    courier_lat = $4,
		    courier_lng = $5,
		    updated_at = now()
		WHERE id = $1 AND delivery_partner_id = $2 AND status = $6
		RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID, partnerID, to, loc.Latitude, loc.Longitude, from))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.SwapStatus: %w", err)
	}
	return order, nil
}

// CancelNonTerminal cancels the order unless it already reached a terminal
// state.
func (r *Repository) CancelNonTerminal(ctx context.Context, orderID string) (*models.Order, error) {
	query := `
		UPDATE orders
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status NOT IN ('delivered', 'cancelled')
		RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repo.CancelNonTerminal: %w", err)
	}
	return order, nil
}

// UpdateCourierLocation keeps only the latest sample on the order row.
// Matching on delivery_partner_id rejects samples from anyone but the bound
// partner.
func (r *Repository) UpdateCourierLocation(ctx context.Context, orderID, partnerID string, loc models.GeoPoint, at time.Time) (models.OrderStatus, error) {
	query := `
		UPDATE orders
		SET courier_lat = $3,
		    courier_lng = $4,
		    updated_at = $5
		WHERE id = $1 AND delivery_partner_id = $2
		RETURNING status`

	var status models.OrderStatus
	err := r.db.QueryRow(ctx, query, orderID, partnerID, loc.Latitude, loc.Longitude, at).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("repo.UpdateCourierLocation: %w", err)
	}
	return status, nil
}
