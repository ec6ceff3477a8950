// Package coupon defines discount coupons and their persistence contract.
package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no coupon exists for a given code.
	ErrNotFound = errors.New("coupon not found")
	// ErrCodeTaken is returned when creating a coupon whose code already exists.
	ErrCodeTaken = errors.New("coupon code already exists")
)

// Coupon is a percentage discount voucher with an expiry deadline.
// Codes are stored normalized (trimmed, upper-case).
type Coupon struct {
	Code     string
	Percent  int
	ExpireAt time.Time
}

// IsExpired reports whether the coupon is no longer usable at the given
// instant. Expiry is inclusive: a coupon expires exactly at ExpireAt.
func (c Coupon) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpireAt)
}

// Normalize canonicalizes a user-supplied coupon code for lookup and storage.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Finder is the read-only lookup the pricing engine depends on.
type Finder interface {
	// GetByCode returns the coupon for the given code, matching
	// case-insensitively on the normalized form. Returns ErrNotFound
	// when no such coupon exists.
	GetByCode(ctx context.Context, code string) (*Coupon, error)
}

// Repository extends Finder with the mutations the admin surface and the
// maintenance job need.
type Repository interface {
	Finder

	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, c Coupon) error
	Delete(ctx context.Context, code string) error
	// DeleteExpired removes every coupon whose expiry is at or before now
	// and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
