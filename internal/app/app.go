// Package app wires all application dependencies and runs the server and
// the background worker.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/transitkit/fare-engine/internal/domain/pricing"
	"github.com/transitkit/fare-engine/internal/handler"
	"github.com/transitkit/fare-engine/internal/repository"
	"github.com/transitkit/fare-engine/internal/worker"
	"github.com/transitkit/fare-engine/pkg/health"
	"github.com/transitkit/fare-engine/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the background
// worker, and handles graceful shutdown. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, m *sdkapp.Telemetry, cfg *Config) error {
	lg.Info("initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.SetReady(true)

	// Repositories.
	couponRepo := repository.NewCouponRepository(pool)
	busRepo := repository.NewBusRepository(pool)
	jobRepo := repository.NewJobRepository(pool)

	// Pricing engine. Rule order is a contract: occupancy, then time
	// pressure, then coupon — the coupon discount compounds on the earlier
	// adjustments.
	engine := pricing.NewEngine(
		pricing.NewOccupancyRule(cfg.Pricing.Occupancy),
		pricing.NewTimePressureRule(cfg.Pricing.TimePressure),
		pricing.NewCouponRule(couponRepo),
	)

	// Background queue, dispatcher, and the single worker.
	queue := worker.NewQueue(cfg.Queue.Capacity)
	dispatcher := worker.NewDispatcher(jobRepo, queue)
	executor := worker.NewBulkPriceExecutor(busRepo, jobRepo)
	bgWorker := worker.New(queue, executor)

	if err := registerQueueDepthGauge(m, queue); err != nil {
		return errors.Wrap(err, "register queue depth gauge")
	}

	// Scheduled expired-coupon purge.
	purge := cron.New()
	if _, err := purge.AddFunc(cfg.CouponPurge.Schedule, func() {
		pctx := zctx.Base(context.Background(), lg.Named("coupon_purge"))
		removed, err := couponRepo.DeleteExpired(pctx, time.Now())
		if err != nil {
			zctx.From(pctx).Error("purging expired coupons", zap.Error(err))
			return
		}
		zctx.From(pctx).Info("expired coupons purged", zap.Int64("removed", removed))
	}); err != nil {
		return errors.Wrap(err, "schedule coupon purge")
	}
	purge.Start()
	defer purge.Stop()

	// HTTP surface.
	h := handler.New(engine, couponRepo, busRepo, jobRepo, dispatcher)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(
			httpmiddleware.Wrap(mux,
				httpmiddleware.Recovery(),
				httpmiddleware.CORS(httpmiddleware.CORSConfig{AllowOrigins: cfg.CORS.Origins}),
				httpmiddleware.InjectLogger(lg.Named("http")),
				httpmiddleware.RequestID(),
				httpmiddleware.LogRequests(),
			),
			"fare-engine",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bgWorker.Run(zctx.Base(gctx, lg.Named("worker")))
	})

	g.Go(func() error {
		lg.Info("server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("server shutdown error", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}

// registerQueueDepthGauge exposes the queue's backlog as an observable
// gauge.
func registerQueueDepthGauge(m *sdkapp.Telemetry, queue *worker.Queue) error {
	meter := m.MeterProvider().Meter("fare-engine")

	depth, err := meter.Int64ObservableGauge("task_queue.depth",
		metric.WithDescription("Number of tasks waiting in the background queue"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(depth, int64(queue.Len()))
		return nil
	}, depth)
	return err
}
