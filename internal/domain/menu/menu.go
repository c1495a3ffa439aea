package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultThemeColor is used when a restaurant has not picked a theme color.
const DefaultThemeColor = "#ef4444"

var (
	// ErrRestaurantNotFound is returned when a restaurant does not exist.
	ErrRestaurantNotFound = errors.New("restaurant not found")
	// ErrEntryNotFound is returned when a menu entry does not exist.
	ErrEntryNotFound = errors.New("menu entry not found")
)

// Entry is a single menu item. Entries are read as immutable snapshots.
type Entry struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageRef    string
	Available   bool
}

// Restaurant holds the public profile of a restaurant.
type Restaurant struct {
	ID          string
	Name        string
	Description string
	Address     string
	// Phone is stored as typed by the owner, with arbitrary punctuation.
	Phone      string
	ThemeColor string
}

// EffectiveThemeColor returns the configured theme color or DefaultThemeColor.
func (r Restaurant) EffectiveThemeColor() string {
	if r.ThemeColor == "" {
		return DefaultThemeColor
	}
	return r.ThemeColor
}

// Repository is the read side of the restaurant data store.
type Repository interface {
	FetchRestaurant(ctx context.Context, id string) (*Restaurant, error)
	// FetchMenu returns the available entries of a restaurant ordered by
	// category.
	FetchMenu(ctx context.Context, restaurantID string) ([]Entry, error)
}

// Store is the write side of the restaurant data store used by Admin.
type Store interface {
	SaveRestaurant(ctx context.Context, r Restaurant) error
	ListEntries(ctx context.Context, restaurantID string) ([]Entry, error)
	CreateEntry(ctx context.Context, restaurantID string, e Entry) error
	UpdateEntry(ctx context.Context, restaurantID string, e Entry) error
	DeleteEntry(ctx context.Context, restaurantID, entryID string) error
}
