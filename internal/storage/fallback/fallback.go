// Package fallback serves a snapshot menu when the primary store fails.
package fallback

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/wamenu/internal/domain/menu"
	"github.com/xenking/wamenu/internal/storage/snapshot"
)

// Options configures a Repository.
type Options struct {
	// OnEmpty also serves the snapshot menu when the primary store returns
	// no entries.
	OnEmpty bool
	Logger  *zap.Logger
}

var _ menu.Repository = (*Repository)(nil)

// Repository wraps a primary menu.Repository. Fetch failures other than a
// missing restaurant or a canceled context are answered from the snapshot.
//
// Snapshot data is for browsing only. Anything that sends an order must read
// the primary store.
type Repository struct {
	primary menu.Repository
	snap    *snapshot.Snapshot
	onEmpty bool
	lg      *zap.Logger
}

// New creates a Repository serving snap when primary fails.
func New(primary menu.Repository, snap *snapshot.Snapshot, opts Options) *Repository {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Repository{
		primary: primary,
		snap:    snap,
		onEmpty: opts.OnEmpty,
		lg:      opts.Logger,
	}
}

// FetchRestaurant returns the primary restaurant, or the snapshot restaurant
// under the requested ID when the primary store fails.
func (r *Repository) FetchRestaurant(ctx context.Context, id string) (*menu.Restaurant, error) {
	res, err := r.primary.FetchRestaurant(ctx, id)
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, menu.ErrRestaurantNotFound), ctx.Err() != nil:
		return nil, err
	}

	r.lg.Warn("Serving fallback restaurant",
		zap.String("restaurant_id", id),
		zap.Error(err),
	)
	fb := r.snap.Restaurant
	fb.ID = id
	return &fb, nil
}

// FetchMenu returns the primary menu, or the snapshot menu when the primary
// store fails.
func (r *Repository) FetchMenu(ctx context.Context, restaurantID string) ([]menu.Entry, error) {
	entries, err := r.primary.FetchMenu(ctx, restaurantID)
	if err != nil && ctx.Err() != nil {
		// The caller gave up; nobody will read the snapshot.
		return nil, err
	}
	if err != nil {
		r.lg.Warn("Serving fallback menu",
			zap.String("restaurant_id", restaurantID),
			zap.Error(err),
		)
		return r.snap.Menu(), nil
	}
	if len(entries) == 0 && r.onEmpty {
		r.lg.Info("Serving fallback menu for empty restaurant",
			zap.String("restaurant_id", restaurantID),
		)
		return r.snap.Menu(), nil
	}
	return entries, nil
}
