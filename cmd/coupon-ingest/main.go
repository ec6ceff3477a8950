// Command coupon-ingest bulk-imports coupons from gzipped CSV files.
// Each line is "CODE,PERCENT,EXPIRE" with EXPIRE in YYYY-MM-DD format.
// A bloom filter suppresses duplicate codes across files so the database
// only sees each code once; collisions at the database level are ignored
// via ON CONFLICT DO NOTHING.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"

	"github.com/transitkit/fare-engine/internal/domain/coupon"
	"github.com/transitkit/fare-engine/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	batchSize     = 1_000
)

const insertCouponSQL = `INSERT INTO coupons (code, percent, expire_at)
	VALUES ($1, $2, $3) ON CONFLICT (code) DO NOTHING`

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		slog.Error("at least one coupon file is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args()); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	total := 0

	for _, file := range files {
		n, err := ingestFile(ctx, pool, seen, file)
		if err != nil {
			return errors.Wrapf(err, "ingest %s", file)
		}
		slog.Info("file ingested", slog.String("file", file), slog.Int("coupons", n))
		total += n
	}

	slog.Info("ingest finished", slog.Int("total", total))
	return nil
}

func ingestFile(ctx context.Context, pool *pgxpool.Pool, seen *bloom.BloomFilter, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	var (
		batch    pgx.Batch
		inserted int
	)

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := pool.SendBatch(ctx, &batch).Close(); err != nil {
			return errors.Wrap(err, "send batch")
		}
		batch = pgx.Batch{}
		return nil
	}

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		code, percent, expireAt, ok := parseLine(scanner.Text())
		if !ok || seen.TestString(code) {
			continue
		}
		seen.AddString(code)

		batch.Queue(insertCouponSQL, code, percent, expireAt)
		inserted++

		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return inserted, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return inserted, errors.Wrap(err, "read file")
	}

	return inserted, flush()
}

// parseLine parses "CODE,PERCENT,EXPIRE"; malformed lines are skipped.
func parseLine(line string) (code string, percent int, expireAt time.Time, ok bool) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 3 {
		return "", 0, time.Time{}, false
	}

	code = coupon.Normalize(parts[0])
	if code == "" {
		return "", 0, time.Time{}, false
	}

	percent, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || percent < 1 || percent > 100 {
		return "", 0, time.Time{}, false
	}

	expireAt, err = time.Parse("2006-01-02", strings.TrimSpace(parts[2]))
	if err != nil {
		return "", 0, time.Time{}, false
	}

	return code, percent, expireAt, true
}
