package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/wamenu/internal/domain/menu"
)

const (
	getRestaurantSQL = `SELECT id, name, description, address, phone, theme_color
		FROM restaurants WHERE id = $1`

	upsertRestaurantSQL = `INSERT INTO restaurants (id, name, description, address, phone, theme_color)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			theme_color = EXCLUDED.theme_color,
			updated_at = now()`

	restaurantExistsSQL = `SELECT EXISTS (SELECT 1 FROM restaurants WHERE id = $1)`
)

var (
	_ menu.Repository = (*MenuRepository)(nil)
	_ menu.Store      = (*MenuRepository)(nil)
)

// MenuRepository implements menu.Repository and menu.Store backed by
// PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// FetchRestaurant returns a restaurant profile by its identifier.
func (r *MenuRepository) FetchRestaurant(ctx context.Context, id string) (*menu.Restaurant, error) {
	rows, err := r.pool.Query(ctx, getRestaurantSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting restaurant %q: %w", id, err)
	}

	res, err := pgx.CollectExactlyOneRow(rows, scanRestaurant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("getting restaurant %q: %w", id, err)
	}
	return &res, nil
}

// SaveRestaurant inserts the restaurant or replaces its profile.
func (r *MenuRepository) SaveRestaurant(ctx context.Context, res menu.Restaurant) error {
	_, err := r.pool.Exec(ctx, upsertRestaurantSQL,
		res.ID, res.Name, res.Description, res.Address, res.Phone, res.ThemeColor,
	)
	if err != nil {
		return fmt.Errorf("saving restaurant %q: %w", res.ID, err)
	}
	return nil
}

func (r *MenuRepository) restaurantExists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, restaurantExistsSQL, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking restaurant %q: %w", id, err)
	}
	return ok, nil
}

func scanRestaurant(row pgx.CollectableRow) (menu.Restaurant, error) {
	var res menu.Restaurant
	err := row.Scan(&res.ID, &res.Name, &res.Description, &res.Address, &res.Phone, &res.ThemeColor)
	return res, err
}
