package repositories

import (
	"context"
	"database/sql"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Postgres-backed implementation of the OrderRepository port.
type PostgresOrderRepository struct{ DB *sql.DB }

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

func (r *PostgresOrderRepository) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if r.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	query := `
	SELECT
		id, customer_id, status, placed_at, confirmed_at, delivered_at,
		window_start, window_end, address_text, address_lat, address_lng
	FROM orders
	WHERE id = $1;
	`

	var (
		o                        domain.Order
		confirmedAt, deliveredAt sql.NullTime
		lat, lng                 sql.NullFloat64
	)

	row := r.DB.QueryRowContext(ctx, query, id)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.Status, &o.PlacedAt, &confirmedAt, &deliveredAt,
		&o.Window.Start, &o.Window.End, &o.Address.Text, &lat, &lng,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: scan row: %w", id, err)
	}

	if confirmedAt.Valid {
		t := confirmedAt.Time
		o.ConfirmedAt = &t
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		o.DeliveredAt = &t
	}
	if lat.Valid && lng.Valid {
		o.Address.Coords = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}

	return &o, nil
}

func (r *PostgresOrderRepository) SaveOrder(ctx context.Context, o *domain.Order) error {
	if r.DB == nil {
		return errors.New("order repository: DB is nil")
	}
	if o == nil {
		return errors.New("save order: order is nil")
	}

	query := `
	INSERT INTO orders (
		id, customer_id, status, placed_at, confirmed_at, delivered_at,
		window_start, window_end, address_text, address_lat, address_lng
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE
	SET status       = EXCLUDED.status,
		confirmed_at = EXCLUDED.confirmed_at,
		delivered_at = EXCLUDED.delivered_at;
	`

	var lat, lng sql.NullFloat64
	if o.Address.Coords != nil {
		lat = sql.NullFloat64{Float64: o.Address.Coords.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: o.Address.Coords.Lng, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, query,
		o.ID, o.CustomerID, o.Status, o.PlacedAt, o.ConfirmedAt, o.DeliveredAt,
		o.Window.Start, o.Window.End, o.Address.Text, lat, lng,
	)
	if err != nil {
		return fmt.Errorf("save order %s: %w", o.ID, err)
	}
	return nil
}
