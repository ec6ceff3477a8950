package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/transitkit/fare-engine/internal/domain/bus"
)

const (
	busColumns = `id, name, capacity, sold_seats, base_price, departure_time`

	listBusesSQL = `SELECT ` + busColumns + ` FROM buses ORDER BY id`

	listBusesByDepartureSQL = `SELECT ` + busColumns + ` FROM buses ORDER BY departure_time, id`

	getBusByIDSQL = `SELECT ` + busColumns + ` FROM buses WHERE id = $1`

	createBusSQL = `INSERT INTO buses (name, capacity, sold_seats, base_price, departure_time)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	updateBusSoldSeatsSQL = `UPDATE buses SET sold_seats = $2 WHERE id = $1`

	updateBusBasePriceSQL = `UPDATE buses SET base_price = $2 WHERE id = $1`

	deleteBusSQL = `DELETE FROM buses WHERE id = $1`
)

var _ bus.Repository = (*BusRepository)(nil)

// BusRepository implements bus.Repository backed by PostgreSQL.
type BusRepository struct {
	pool *pgxpool.Pool
}

// NewBusRepository returns a BusRepository that uses the given pool.
func NewBusRepository(pool *pgxpool.Pool) *BusRepository {
	return &BusRepository{pool: pool}
}

// List returns all buses ordered by id ascending. Bulk-update jobs depend on
// this ordering for reproducible processing.
func (r *BusRepository) List(ctx context.Context) ([]bus.Bus, error) {
	rows, err := r.pool.Query(ctx, listBusesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing buses: %w", err)
	}
	return pgx.CollectRows(rows, scanBus)
}

// ListByDeparture returns all buses ordered by departure time, for the
// public listing.
func (r *BusRepository) ListByDeparture(ctx context.Context) ([]bus.Bus, error) {
	rows, err := r.pool.Query(ctx, listBusesByDepartureSQL)
	if err != nil {
		return nil, fmt.Errorf("listing buses by departure: %w", err)
	}
	return pgx.CollectRows(rows, scanBus)
}

// GetByID returns a single bus. Returns bus.ErrNotFound when it does not
// exist.
func (r *BusRepository) GetByID(ctx context.Context, id int64) (*bus.Bus, error) {
	rows, err := r.pool.Query(ctx, getBusByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting bus %d: %w", id, err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bus.ErrNotFound
		}
		return nil, fmt.Errorf("getting bus %d: %w", id, err)
	}
	return &b, nil
}

// Create persists a new bus and fills in its generated id.
func (r *BusRepository) Create(ctx context.Context, b *bus.Bus) error {
	err := r.pool.QueryRow(ctx, createBusSQL,
		b.Name, b.Capacity, b.SoldSeats, b.BasePrice, b.DepartureTime,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("creating bus %q: %w", b.Name, err)
	}
	return nil
}

// UpdateSoldSeats sets the sold seat count for a bus.
func (r *BusRepository) UpdateSoldSeats(ctx context.Context, id int64, soldSeats int) error {
	tag, err := r.pool.Exec(ctx, updateBusSoldSeatsSQL, id, soldSeats)
	if err != nil {
		return fmt.Errorf("updating sold seats for bus %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return bus.ErrNotFound
	}
	return nil
}

// UpdateBasePrice sets the base price for a bus.
func (r *BusRepository) UpdateBasePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, updateBusBasePriceSQL, id, price)
	if err != nil {
		return fmt.Errorf("updating base price for bus %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return bus.ErrNotFound
	}
	return nil
}

// Delete removes a bus. Returns bus.ErrNotFound when no row was deleted.
func (r *BusRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteBusSQL, id)
	if err != nil {
		return fmt.Errorf("deleting bus %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return bus.ErrNotFound
	}
	return nil
}

func scanBus(row pgx.CollectableRow) (bus.Bus, error) {
	var (
		b     bus.Bus
		price decimal.Decimal
	)
	err := row.Scan(&b.ID, &b.Name, &b.Capacity, &b.SoldSeats, &price, &b.DepartureTime)
	b.BasePrice = price
	return b, err
}
