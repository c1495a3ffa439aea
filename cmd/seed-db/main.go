package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/wamenu/internal/domain/auth"
	"github.com/xenking/wamenu/internal/storage/postgres"
	"github.com/xenking/wamenu/internal/storage/snapshot"
)

type config struct {
	DatabaseURL  string `usage:"PostgreSQL connection URL (or DATABASE_URL)" flag:"database-url"`
	Snapshot     string `default:"" usage:"Snapshot file (.json or .json.gz); empty seeds the built-in demo" flag:"snapshot"`
	APIKey       string `usage:"API key to seed (MENU_SEED_API_KEY)" env:"SEED_API_KEY" flag:"api-key"`
	APIKeyID     string `default:"default" usage:"Identifier of the seeded API key" env:"SEED_API_KEY_ID" flag:"api-key-id"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (MENU_API_KEY_PEPPER)" flag:"api-key-pepper"`
}

func main() {
	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	var cfg config
	if err := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:        "MENU",
		SkipFiles:        true,
		AllowUnknownEnvs: true, // shared with the server's MENU_ variables
	}).Load(); err != nil {
		lg.Fatal("Load config", zap.Error(err))
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	snap, err := readSnapshot(cfg.Snapshot)
	if err != nil {
		return errors.Wrap(err, "read snapshot")
	}
	if err := seedMenu(ctx, lg, postgres.NewMenuRepository(pool), snap); err != nil {
		return errors.Wrap(err, "seed menu")
	}

	if cfg.APIKey == "" {
		lg.Warn("No API key given, skipping key seeding")
		return nil
	}
	if err := seedAPIKey(ctx, lg, postgres.NewAPIKeyRepository(pool), cfg); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

func readSnapshot(path string) (*snapshot.Snapshot, error) {
	if path == "" {
		return snapshot.Default(), nil
	}
	return snapshot.Load(path)
}

func seedMenu(ctx context.Context, lg *zap.Logger, repo *postgres.MenuRepository, snap *snapshot.Snapshot) error {
	r := snap.Restaurant
	if err := repo.SaveRestaurant(ctx, r); err != nil {
		return errors.Wrapf(err, "upsert restaurant %s", r.ID)
	}
	lg.Info("Upserted restaurant", zap.String("id", r.ID), zap.String("name", r.Name))

	for _, e := range snap.Entries {
		if err := repo.UpsertEntry(ctx, r.ID, e); err != nil {
			return errors.Wrapf(err, "upsert entry %s", e.ID)
		}
		lg.Info("Upserted entry",
			zap.String("id", e.ID),
			zap.String("name", e.Name),
			zap.Stringer("price", e.Price),
		)
	}
	return nil
}

func seedAPIKey(ctx context.Context, lg *zap.Logger, repo *postgres.APIKeyRepository, cfg config) error {
	if err := repo.Upsert(ctx, auth.APIKeyInfo{
		ID:      cfg.APIKeyID,
		KeyHash: auth.HashKey(cfg.APIKey, []byte(cfg.APIKeyPepper)),
		Name:    "Restaurant owner",
		Scopes:  []string{auth.ScopeMenuWrite},
	}); err != nil {
		return errors.Wrapf(err, "upsert api key %s", cfg.APIKeyID)
	}
	lg.Info("Upserted API key", zap.String("id", cfg.APIKeyID))
	return nil
}
