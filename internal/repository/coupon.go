package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/transitkit/fare-engine/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, percent, expire_at FROM coupons
		WHERE code = UPPER(TRIM($1))`

	listCouponsSQL = `SELECT code, percent, expire_at FROM coupons ORDER BY code`

	createCouponSQL = `INSERT INTO coupons (code, percent, expire_at) VALUES ($1, $2, $3)`

	deleteCouponSQL = `DELETE FROM coupons WHERE code = $1`

	deleteExpiredCouponsSQL = `DELETE FROM coupons WHERE expire_at <= $1`
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
// Codes are stored normalized, so lookups normalize the parameter in SQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// GetByCode looks up a coupon by code, trimming and upper-casing the input.
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &c, nil
}

// List returns all coupons ordered by code.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Create persists a new coupon. Returns coupon.ErrCodeTaken when the code
// already exists.
func (r *CouponRepository) Create(ctx context.Context, c coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL, c.Code, c.Percent, c.ExpireAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Delete removes a coupon by code. Returns coupon.ErrNotFound when no row
// was deleted.
func (r *CouponRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, code)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// DeleteExpired removes every coupon expired at or before now and reports
// how many rows were removed.
func (r *CouponRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteExpiredCouponsSQL, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired coupons: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(&c.Code, &c.Percent, &c.ExpireAt)
	return c, err
}
