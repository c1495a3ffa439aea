// Package app wires the menu service together.
package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/wamenu/internal/domain/checkout"
	"github.com/xenking/wamenu/internal/domain/menu"
	"github.com/xenking/wamenu/internal/handler"
	"github.com/xenking/wamenu/internal/storage/fallback"
	"github.com/xenking/wamenu/internal/storage/postgres"
	"github.com/xenking/wamenu/internal/storage/snapshot"
	"github.com/xenking/wamenu/pkg/health"
	"github.com/xenking/wamenu/pkg/httpmiddleware"
)

const serviceName = "menu-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	apiHandler, err := newHandler(ctx, lg, cfg, pool, healthSvc, m.MeterProvider(), m.TracerProvider())
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           apiHandler,
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newHandler builds the services and middleware chain on top of an open pool.
func newHandler(
	ctx context.Context,
	lg *zap.Logger,
	cfg *Config,
	pool *pgxpool.Pool,
	healthSvc *health.Health,
	mp metric.MeterProvider,
	tp trace.TracerProvider,
) (http.Handler, error) {
	svc, err := newServices(lg, cfg, postgres.NewMenuRepository(pool))
	if err != nil {
		return nil, err
	}

	h, err := handler.New(
		handler.Config{
			ImageBaseURL: cfg.ImageBaseURL,
			APIKeyPepper: []byte(cfg.APIKeyPepper),
		},
		svc.menu,
		svc.admin,
		svc.checkout,
		postgres.NewAPIKeyRepository(pool),
		mp.Meter(serviceName),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create handler")
	}

	// Health endpoints and API routes share one server.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.Instrument(serviceName, routeFinder, mp, tp),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", handler.HeaderAPIKey},
			ExposeHeaders:    []string{httpmiddleware.HeaderRequestID},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Skip:   outsideAPI,
		}),
	), nil
}

// menuStore is the primary restaurant data store.
type menuStore interface {
	menu.Repository
	menu.Store
}

type services struct {
	menu     *menu.Service
	admin    *menu.Admin
	checkout *checkout.Service
}

// newServices builds the domain services over store. Browsing may be served
// from the fallback snapshot, checkout always reads store so an order never
// carries snapshot entries or prices.
func newServices(lg *zap.Logger, cfg *Config, store menuStore) (*services, error) {
	var browse menu.Repository = store
	if cfg.Fallback.Enabled {
		snap, err := loadSnapshot(cfg.Fallback.Snapshot)
		if err != nil {
			return nil, errors.Wrap(err, "load fallback snapshot")
		}
		browse = fallback.New(store, snap, fallback.Options{
			OnEmpty: cfg.Fallback.OnEmpty,
			Logger:  lg.Named("fallback"),
		})
		lg.Info("Fallback snapshot enabled", zap.String("restaurant", snap.Restaurant.Name))
	}

	composer := checkout.NewComposer(checkout.ComposerConfig{
		MessagingURL: cfg.Checkout.MessagingURL,
		CallingCode:  cfg.Checkout.CallingCode,
		DefaultPhone: cfg.Checkout.DefaultPhone,
		Currency:     cfg.Checkout.Currency,
	})
	return &services{
		menu:     menu.NewService(browse),
		admin:    menu.NewAdmin(store),
		checkout: checkout.NewService(store, composer, cfg.Checkout.MaxQuantity),
	}, nil
}

func loadSnapshot(path string) (*snapshot.Snapshot, error) {
	if path == "" {
		return snapshot.Default(), nil
	}
	return snapshot.Load(path)
}

// outsideAPI exempts health probes from rate limiting.
func outsideAPI(r *http.Request) bool {
	return !strings.HasPrefix(r.URL.Path, "/api/")
}
