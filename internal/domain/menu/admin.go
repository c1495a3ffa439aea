package menu

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var themeColorRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidationError reports a field rejected by the admin editor.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Admin validates and applies owner edits to restaurants and their menus.
type Admin struct {
	store Store
	newID func() string
}

// NewAdmin creates an Admin backed by the given Store.
func NewAdmin(store Store) *Admin {
	return &Admin{
		store: store,
		newID: func() string { return uuid.New().String() },
	}
}

// SaveRestaurant creates or replaces the restaurant profile.
func (a *Admin) SaveRestaurant(ctx context.Context, r Restaurant) (*Restaurant, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.ThemeColor = strings.TrimSpace(r.ThemeColor)
	if r.ID == "" {
		return nil, &ValidationError{Field: "id", Reason: "required"}
	}
	if r.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if r.ThemeColor != "" && !themeColorRe.MatchString(r.ThemeColor) {
		return nil, &ValidationError{Field: "themeColor", Reason: "must be #rgb or #rrggbb"}
	}

	if err := a.store.SaveRestaurant(ctx, r); err != nil {
		return nil, errors.Wrap(err, "save restaurant")
	}
	return &r, nil
}

// ListEntries returns every entry of a restaurant, unavailable ones included.
func (a *Admin) ListEntries(ctx context.Context, restaurantID string) ([]Entry, error) {
	entries, err := a.store.ListEntries(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, errors.Wrap(err, "list entries")
	}
	return entries, nil
}

// CreateEntry adds a new entry with a freshly generated ID.
func (a *Admin) CreateEntry(ctx context.Context, restaurantID string, e Entry) (*Entry, error) {
	e, err := normalizeEntry(e)
	if err != nil {
		return nil, err
	}
	e.ID = a.newID()

	if err := a.store.CreateEntry(ctx, restaurantID, e); err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, errors.Wrap(err, "create entry")
	}
	return &e, nil
}

// UpdateEntry replaces an existing entry.
func (a *Admin) UpdateEntry(ctx context.Context, restaurantID string, e Entry) (*Entry, error) {
	if e.ID == "" {
		return nil, &ValidationError{Field: "id", Reason: "required"}
	}
	e, err := normalizeEntry(e)
	if err != nil {
		return nil, err
	}

	if err := a.store.UpdateEntry(ctx, restaurantID, e); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, errors.Wrap(err, "update entry")
	}
	return &e, nil
}

// DeleteEntry removes an entry.
func (a *Admin) DeleteEntry(ctx context.Context, restaurantID, entryID string) error {
	if err := a.store.DeleteEntry(ctx, restaurantID, entryID); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return ErrEntryNotFound
		}
		return errors.Wrap(err, "delete entry")
	}
	return nil
}

func normalizeEntry(e Entry) (Entry, error) {
	e.Name = strings.TrimSpace(e.Name)
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
	e.ImageRef = strings.TrimSpace(e.ImageRef)

	switch {
	case e.Name == "":
		return e, &ValidationError{Field: "name", Reason: "required"}
	case e.Category == "":
		return e, &ValidationError{Field: "category", Reason: "required"}
	case e.Price.IsNegative():
		return e, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return e, nil
}
