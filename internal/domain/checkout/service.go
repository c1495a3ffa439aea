package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/wamenu/internal/domain/cart"
	"github.com/xenking/wamenu/internal/domain/menu"
)

// DefaultMaxQuantity bounds the units of a single line in a request.
const DefaultMaxQuantity = 99

// UnknownEntryError indicates a requested entry is missing or unavailable.
type UnknownEntryError struct {
	EntryID string
}

func (e *UnknownEntryError) Error() string {
	return fmt.Sprintf("menu entry %s is not available", e.EntryID)
}

// InvalidQuantityError indicates a line quantity outside 1..max.
type InvalidQuantityError struct {
	EntryID  string
	Quantity int
	Max      int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity %d for entry %s must be between 1 and %d", e.Quantity, e.EntryID, e.Max)
}

// Item is a cart line as submitted by a client.
type Item struct {
	EntryID  string
	Quantity int
}

// Service rebuilds a session cart from submitted items and composes the
// checkout message for it.
type Service struct {
	repo        menu.Repository
	composer    *Composer
	maxQuantity int
}

// NewService creates a Service. A non-positive maxQuantity selects
// DefaultMaxQuantity.
func NewService(repo menu.Repository, composer *Composer, maxQuantity int) *Service {
	if maxQuantity <= 0 {
		maxQuantity = DefaultMaxQuantity
	}
	return &Service{
		repo:        repo,
		composer:    composer,
		maxQuantity: maxQuantity,
	}
}

// Checkout validates items against the restaurant's available menu, replays
// them into a fresh cart and composes the order. Repeated entry IDs
// accumulate.
func (s *Service) Checkout(ctx context.Context, restaurantID string, items []Item) (*Checkout, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > s.maxQuantity {
			return nil, &InvalidQuantityError{
				EntryID:  item.EntryID,
				Quantity: item.Quantity,
				Max:      s.maxQuantity,
			}
		}
	}

	restaurant, err := s.repo.FetchRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, menu.ErrRestaurantNotFound) {
			return nil, menu.ErrRestaurantNotFound
		}
		return nil, errors.Wrap(err, "fetch restaurant")
	}
	entries, err := s.repo.FetchMenu(ctx, restaurantID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch menu")
	}

	available := make(map[string]menu.Entry, len(entries))
	for _, e := range entries {
		if e.Available {
			available[e.ID] = e
		}
	}

	c := cart.New()
	for _, item := range items {
		e, ok := available[item.EntryID]
		if !ok {
			return nil, &UnknownEntryError{EntryID: item.EntryID}
		}
		for range item.Quantity {
			c.AddItem(e)
		}
	}

	return s.composer.Compose(c, *restaurant)
}
