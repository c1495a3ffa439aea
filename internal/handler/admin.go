package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/wamenu/internal/domain/menu"
)

// SaveRestaurant creates or replaces the restaurant profile.
func (h *Handler) SaveRestaurant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := menu.Restaurant{ID: r.PathValue("id")}
	if err := readBody(w, r, func(d *jx.Decoder, key string) error {
		return decodeRestaurantField(d, key, &res)
	}); err != nil {
		writeError(ctx, w, err)
		return
	}

	saved, err := h.admin.SaveRestaurant(ctx, res)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	zctx.From(ctx).Info("Restaurant saved", zap.String("restaurant_id", saved.ID))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeRestaurant(e, saved) })
}

// ListEntries lists every entry of the menu, unavailable ones included.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.admin.ListEntries(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeEntries(e, entries) })
}

// CreateEntry adds an entry. Entries are available unless stated otherwise.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry, ok := h.readEntry(w, r)
	if !ok {
		return
	}

	created, err := h.admin.CreateEntry(ctx, r.PathValue("id"), entry)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	zctx.From(ctx).Info("Menu entry created",
		zap.String("restaurant_id", r.PathValue("id")),
		zap.String("entry_id", created.ID),
	)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { h.encodeEntry(e, *created) })
}

// UpdateEntry replaces an entry.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry, ok := h.readEntry(w, r)
	if !ok {
		return
	}
	entry.ID = r.PathValue("entryId")

	updated, err := h.admin.UpdateEntry(ctx, r.PathValue("id"), entry)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeEntry(e, *updated) })
}

// DeleteEntry removes an entry.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.admin.DeleteEntry(ctx, r.PathValue("id"), r.PathValue("entryId")); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) readEntry(w http.ResponseWriter, r *http.Request) (menu.Entry, bool) {
	entry := menu.Entry{Available: true}
	if err := readBody(w, r, func(d *jx.Decoder, key string) error {
		return decodeEntryField(d, key, &entry)
	}); err != nil {
		writeError(r.Context(), w, err)
		return entry, false
	}
	return entry, true
}
