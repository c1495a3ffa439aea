package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/wamenu/internal/domain/menu"
)

const (
	entryColumns = `id, name, description, price, category, image_url, is_available`

	fetchMenuSQL = `SELECT ` + entryColumns + `
		FROM menu_items WHERE restaurant_id = $1 AND is_available
		ORDER BY category, created_at, id`

	listEntriesSQL = `SELECT ` + entryColumns + `
		FROM menu_items WHERE restaurant_id = $1
		ORDER BY category, created_at, id`

	insertEntrySQL = `INSERT INTO menu_items
		(id, restaurant_id, name, description, price, category, image_url, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	upsertEntrySQL = insertEntrySQL + `
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			is_available = EXCLUDED.is_available,
			updated_at = now()
		WHERE menu_items.restaurant_id = EXCLUDED.restaurant_id`

	updateEntrySQL = `UPDATE menu_items SET
			name = $3, description = $4, price = $5, category = $6,
			image_url = $7, is_available = $8, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2`

	deleteEntrySQL = `DELETE FROM menu_items WHERE id = $1 AND restaurant_id = $2`
)

// FetchMenu returns the available entries of a restaurant grouped by
// category, oldest first within a category.
func (r *MenuRepository) FetchMenu(ctx context.Context, restaurantID string) ([]menu.Entry, error) {
	rows, err := r.pool.Query(ctx, fetchMenuSQL, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("fetching menu of %q: %w", restaurantID, err)
	}
	return pgx.CollectRows(rows, scanEntry)
}

// ListEntries returns every entry of a restaurant, unavailable ones included.
func (r *MenuRepository) ListEntries(ctx context.Context, restaurantID string) ([]menu.Entry, error) {
	rows, err := r.pool.Query(ctx, listEntriesSQL, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("listing entries of %q: %w", restaurantID, err)
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("listing entries of %q: %w", restaurantID, err)
	}
	if len(entries) > 0 {
		return entries, nil
	}

	ok, err := r.restaurantExists(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, menu.ErrRestaurantNotFound
	}
	return entries, nil
}

// CreateEntry inserts a new entry. A missing restaurant yields
// menu.ErrRestaurantNotFound.
func (r *MenuRepository) CreateEntry(ctx context.Context, restaurantID string, e menu.Entry) error {
	return r.writeEntry(ctx, insertEntrySQL, restaurantID, e)
}

// UpsertEntry inserts the entry or replaces it when the ID is already used
// by the same restaurant.
func (r *MenuRepository) UpsertEntry(ctx context.Context, restaurantID string, e menu.Entry) error {
	return r.writeEntry(ctx, upsertEntrySQL, restaurantID, e)
}

func (r *MenuRepository) writeEntry(ctx context.Context, query, restaurantID string, e menu.Entry) error {
	_, err := r.pool.Exec(ctx, query,
		e.ID, restaurantID, e.Name, e.Description, e.Price, e.Category, e.ImageRef, e.Available,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return menu.ErrRestaurantNotFound
		}
		return fmt.Errorf("writing entry %q: %w", e.ID, err)
	}
	return nil
}

// UpdateEntry replaces an entry of the restaurant.
func (r *MenuRepository) UpdateEntry(ctx context.Context, restaurantID string, e menu.Entry) error {
	tag, err := r.pool.Exec(ctx, updateEntrySQL,
		e.ID, restaurantID, e.Name, e.Description, e.Price, e.Category, e.ImageRef, e.Available,
	)
	if err != nil {
		return fmt.Errorf("updating entry %q: %w", e.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrEntryNotFound
	}
	return nil
}

// DeleteEntry removes an entry of the restaurant.
func (r *MenuRepository) DeleteEntry(ctx context.Context, restaurantID, entryID string) error {
	tag, err := r.pool.Exec(ctx, deleteEntrySQL, entryID, restaurantID)
	if err != nil {
		return fmt.Errorf("deleting entry %q: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrEntryNotFound
	}
	return nil
}

func scanEntry(row pgx.CollectableRow) (menu.Entry, error) {
	var (
		e     menu.Entry
		price decimal.Decimal
	)
	err := row.Scan(&e.ID, &e.Name, &e.Description, &price, &e.Category, &e.ImageRef, &e.Available)
	e.Price = price
	return e, err
}
