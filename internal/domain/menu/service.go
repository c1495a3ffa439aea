package menu

import (
	"context"

	"github.com/go-faster/errors"
)

// View is what a visitor sees on a restaurant's public page.
type View struct {
	Restaurant *Restaurant
	Catalog    Catalog
	// Available is false when the restaurant has no available entries at
	// all, regardless of the search term.
	Available bool
}

// Service serves the public, read-only side of the menu.
type Service struct {
	repo Repository
}

// NewService creates a Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Restaurant returns the restaurant profile.
func (s *Service) Restaurant(ctx context.Context, id string) (*Restaurant, error) {
	r, err := s.repo.FetchRestaurant(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, errors.Wrap(err, "fetch restaurant")
	}
	return r, nil
}

// Catalog returns the restaurant with its menu filtered by term. The menu is
// only fetched once the restaurant is known to exist.
func (s *Service) Catalog(ctx context.Context, id, term string) (*View, error) {
	r, err := s.Restaurant(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.FetchMenu(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "fetch menu")
	}

	return &View{
		Restaurant: r,
		Catalog:    NewCatalog(entries, term),
		Available:  len(Filter(entries, "")) > 0,
	}, nil
}
