// Package bus defines the bus journey record and its persistence contract.
package bus

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a bus with the requested id does not exist.
var ErrNotFound = errors.New("bus not found")

// Bus is a scheduled journey with a base seat price that the pricing engine
// reads and bulk-update jobs rewrite.
type Bus struct {
	ID            int64
	Name          string
	Capacity      int
	SoldSeats     int
	BasePrice     decimal.Decimal
	DepartureTime time.Time
}

// Repository defines persistence operations for buses.
//
// List returns buses ordered by id ascending; bulk-update jobs rely on this
// ordering being deterministic so repeated runs over an unchanged dataset
// touch records in the same sequence.
type Repository interface {
	List(ctx context.Context) ([]Bus, error)
	ListByDeparture(ctx context.Context) ([]Bus, error)
	GetByID(ctx context.Context, id int64) (*Bus, error)
	Create(ctx context.Context, b *Bus) error
	UpdateSoldSeats(ctx context.Context, id int64, soldSeats int) error
	UpdateBasePrice(ctx context.Context, id int64, price decimal.Decimal) error
	Delete(ctx context.Context, id int64) error
}
