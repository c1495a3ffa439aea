// Package handler exposes the menu, checkout and admin operations over HTTP.
package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/wamenu/internal/domain/auth"
	"github.com/xenking/wamenu/internal/domain/checkout"
	"github.com/xenking/wamenu/internal/domain/menu"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image references. When empty,
	// references are returned as stored.
	ImageBaseURL string
	// APIKeyPepper is the HMAC key used to hash presented API keys.
	APIKeyPepper []byte
}

// Handler serves the public menu API and the owner admin API.
type Handler struct {
	menu     *menu.Service
	admin    *menu.Admin
	checkout *checkout.Service
	keys     auth.Repository

	imageBaseURL string
	pepper       []byte

	composed metric.Int64Counter
	rejected metric.Int64Counter
}

// New constructs a Handler. Checkout counters are registered on meter.
func New(
	cfg Config,
	menuService *menu.Service,
	admin *menu.Admin,
	checkoutService *checkout.Service,
	keys auth.Repository,
	meter metric.Meter,
) (*Handler, error) {
	composed, err := meter.Int64Counter("menu.checkout.composed",
		metric.WithDescription("Checkout messages composed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "composed counter")
	}
	rejected, err := meter.Int64Counter("menu.checkout.rejected",
		metric.WithDescription("Checkout requests rejected"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "rejected counter")
	}

	return &Handler{
		menu:         menuService,
		admin:        admin,
		checkout:     checkoutService,
		keys:         keys,
		imageBaseURL: cfg.ImageBaseURL,
		pepper:       cfg.APIKeyPepper,
		composed:     composed,
		rejected:     rejected,
	}, nil
}

// Register mounts all routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/restaurants/{id}", h.GetRestaurant)
	mux.HandleFunc("GET /api/restaurants/{id}/menu", h.GetMenu)
	mux.HandleFunc("POST /api/restaurants/{id}/checkout", h.Checkout)

	write := func(fn http.HandlerFunc) http.Handler {
		return h.RequireScope(auth.ScopeMenuWrite)(fn)
	}
	mux.Handle("PUT /api/admin/restaurants/{id}", write(h.SaveRestaurant))
	mux.Handle("GET /api/admin/restaurants/{id}/menu", write(h.ListEntries))
	mux.Handle("POST /api/admin/restaurants/{id}/menu", write(h.CreateEntry))
	mux.Handle("PUT /api/admin/restaurants/{id}/menu/{entryId}", write(h.UpdateEntry))
	mux.Handle("DELETE /api/admin/restaurants/{id}/menu/{entryId}", write(h.DeleteEntry))
}

func (h *Handler) imageURL(ref string) string {
	if ref == "" || h.imageBaseURL == "" {
		return ref
	}
	return h.imageBaseURL + ref
}
