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

// Postgres-backed implementation of the RouteRepository port.
type PostgresRouteRepository struct{ DB *sql.DB }

func NewPostgresRouteRepository(db *sql.DB) *PostgresRouteRepository {
	return &PostgresRouteRepository{DB: db}
}

func (r *PostgresRouteRepository) GetRoute(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	if r.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	var route domain.Route
	row := r.DB.QueryRowContext(ctx, `SELECT id, driver_id, status FROM routes WHERE id = $1;`, id)
	err := row.Scan(&route.ID, &route.DriverID, &route.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get route %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route %s: scan row: %w", id, err)
	}

	stops, err := r.loadStops(ctx, route.ID)
	if err != nil {
		return nil, fmt.Errorf("get route %s: %w", id, err)
	}
	route.Stops = stops

	return &route, nil
}

func (r *PostgresRouteRepository) GetRouteByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Route, error) {
	if r.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	var routeID uuid.UUID
	row := r.DB.QueryRowContext(ctx, `SELECT route_id FROM stops WHERE order_id = $1;`, orderID)
	err := row.Scan(&routeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get route by order %s: %w", orderID, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route by order %s: scan row: %w", orderID, err)
	}

	return r.GetRoute(ctx, routeID)
}

func (r *PostgresRouteRepository) loadStops(ctx context.Context, routeID uuid.UUID) ([]domain.Stop, error) {
	query := `
	SELECT
		id, route_id, order_id, stop_index, status, dest_lat, dest_lng,
		eta, exception_reason, exception_note, exception_resolved
	FROM stops
	WHERE route_id = $1
	ORDER BY stop_index;
	`

	rows, err := r.DB.QueryContext(ctx, query, routeID)
	if err != nil {
		return nil, fmt.Errorf("query stops: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0, 8)
	for rows.Next() {
		var (
			s         domain.Stop
			eta       sql.NullTime
			excReason sql.NullString
			excNote   sql.NullString
			excRes    sql.NullBool
		)
		err := rows.Scan(
			&s.ID, &s.RouteID, &s.OrderID, &s.StopIndex, &s.Status,
			&s.Destination.Lat, &s.Destination.Lng,
			&eta, &excReason, &excNote, &excRes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan stop row: %w", err)
		}

		if eta.Valid {
			t := eta.Time
			s.ETA = &t
		}
		if excReason.Valid {
			s.Exception = &domain.Exception{
				Reason:   domain.ExceptionReason(excReason.String),
				Note:     excNote.String,
				Resolved: excRes.Bool,
			}
		}

		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stop row iteration: %w", err)
	}

	return stops, nil
}

// SaveRoute upserts the route and all its stops in one transaction.
func (r *PostgresRouteRepository) SaveRoute(ctx context.Context, route *domain.Route) error {
	if r.DB == nil {
		return errors.New("route repository: DB is nil")
	}
	if route == nil {
		return errors.New("save route: route is nil")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save route %s: db begin: %w", route.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO routes (id, driver_id, status)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status;
	`, route.ID, route.DriverID, route.Status)
	if err != nil {
		return fmt.Errorf("save route %s: upsert route: %w", route.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO stops (
		id, route_id, order_id, stop_index, status, dest_lat, dest_lng,
		eta, exception_reason, exception_note, exception_resolved
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE
	SET status             = EXCLUDED.status,
		eta                = EXCLUDED.eta,
		exception_reason   = EXCLUDED.exception_reason,
		exception_note     = EXCLUDED.exception_note,
		exception_resolved = EXCLUDED.exception_resolved;
	`)
	if err != nil {
		return fmt.Errorf("save route %s: prepare stops: %w", route.ID, err)
	}
	defer stmt.Close()

	for i := range route.Stops {
		s := &route.Stops[i]

		var excReason, excNote sql.NullString
		var excRes sql.NullBool
		if s.Exception != nil {
			excReason = sql.NullString{String: string(s.Exception.Reason), Valid: true}
			excNote = sql.NullString{String: s.Exception.Note, Valid: true}
			excRes = sql.NullBool{Bool: s.Exception.Resolved, Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			s.ID, s.RouteID, s.OrderID, s.StopIndex, s.Status,
			s.Destination.Lat, s.Destination.Lng,
			s.ETA, excReason, excNote, excRes,
		)
		if err != nil {
			return fmt.Errorf("save route %s: upsert stop %d: %w", route.ID, s.StopIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save route %s: commit: %w", route.ID, err)
	}
	return nil
}
