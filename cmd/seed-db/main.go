// Command seed-db populates the database with demo buses and sample coupons.
// Generation uses a fixed seed so repeated runs produce similar data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/transitkit/fare-engine/internal/domain/bus"
	"github.com/transitkit/fare-engine/internal/domain/coupon"
	"github.com/transitkit/fare-engine/internal/repository"
)

var cities = []string{
	"Istanbul", "Ankara", "Izmir", "Bursa", "Antalya", "Konya", "Adana",
	"Gaziantep", "Kayseri", "Kocaeli", "Mersin", "Eskisehir", "Samsun",
	"Trabzon", "Van", "Aydin", "Mugla", "Malatya", "Denizli", "Bolu",
}

var capacities = []int{38, 46, 50, 54}

func main() {
	var (
		databaseURL string
		target      int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&target, "buses", 100, "minimum number of buses to ensure")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, target); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, target int) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return seedBuses(ctx, pool, target)
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	repo := repository.NewCouponRepository(pool)

	samples := []coupon.Coupon{
		{Code: "EARLY10", Percent: 10, ExpireAt: time.Now().AddDate(1, 0, 0)},
		{Code: "WELCOME5", Percent: 5, ExpireAt: time.Now().AddDate(0, 6, 0)},
	}
	for _, c := range samples {
		err := repo.Create(ctx, c)
		if err != nil && !errors.Is(err, coupon.ErrCodeTaken) {
			return err
		}
	}

	slog.Info("coupons seeded", slog.Int("count", len(samples)))
	return nil
}

func seedBuses(ctx context.Context, pool *pgxpool.Pool, target int) error {
	repo := repository.NewBusRepository(pool)

	existing, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list buses")
	}
	if len(existing) >= target {
		slog.Info("buses already seeded", slog.Int("count", len(existing)))
		return nil
	}

	rng := rand.New(rand.NewSource(421337))
	midnight := time.Now().UTC().Truncate(24 * time.Hour)

	created := 0
	for len(existing)+created < target {
		from := cities[rng.Intn(len(cities))]
		to := from
		for to == from {
			to = cities[rng.Intn(len(cities))]
		}

		cap := capacities[rng.Intn(len(capacities))]
		// Occupancy between 10% and 95%.
		sold := cap/10 + rng.Intn(cap*95/100-cap/10)
		// Price between 250.00 and 850.99.
		price := decimal.NewFromFloat(float64(250+rng.Intn(600)) + rng.Float64()).Round(2)
		// Departure 1-21 days out, on the hour or half hour, 06:00-23:30.
		departure := midnight.
			AddDate(0, 0, 1+rng.Intn(21)).
			Add(time.Duration(6+rng.Intn(18))*time.Hour + time.Duration(rng.Intn(2)*30)*time.Minute)

		b := &bus.Bus{
			Name:          fmt.Sprintf("%s - %s", from, to),
			Capacity:      cap,
			SoldSeats:     sold,
			BasePrice:     price,
			DepartureTime: departure,
		}
		if err := repo.Create(ctx, b); err != nil {
			return errors.Wrapf(err, "create bus %q", b.Name)
		}
		created++
	}

	slog.Info("buses seeded", slog.Int("created", created))
	return nil
}
