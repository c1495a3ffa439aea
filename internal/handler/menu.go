package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// GetRestaurant serves the public restaurant profile.
func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.menu.Restaurant(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeRestaurant(e, res) })
}

// GetMenu serves the restaurant's menu grouped by category, filtered by the
// optional q search term.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	term := r.URL.Query().Get("q")
	view, err := h.menu.Catalog(ctx, r.PathValue("id"), term)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("restaurant", func(e *jx.Encoder) { encodeRestaurant(e, view.Restaurant) })
			e.Field("available", func(e *jx.Encoder) { e.Bool(view.Available) })
			e.Field("query", func(e *jx.Encoder) { e.Str(term) })
			e.Field("categories", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, s := range view.Catalog.Sections() {
						e.Obj(func(e *jx.Encoder) {
							e.Field("name", func(e *jx.Encoder) { e.Str(s.Category) })
							e.Field("items", func(e *jx.Encoder) { h.encodeEntries(e, s.Entries) })
						})
					}
				})
			})
		})
	})
}
