package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/wamenu/internal/domain/checkout"
)

// Checkout rebuilds the visitor's cart from the submitted items and returns
// the order message with its deep link.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var items []checkout.Item
	err := readBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		var err error
		items, err = decodeItems(d)
		return err
	})
	if err != nil {
		h.reject(r, err)
		writeError(ctx, w, err)
		return
	}

	co, err := h.checkout.Checkout(ctx, r.PathValue("id"), items)
	if err != nil {
		h.reject(r, err)
		writeError(ctx, w, err)
		return
	}

	h.composed.Add(ctx, 1)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCheckout(e, co) })
}

func (h *Handler) reject(r *http.Request, err error) {
	h.rejected.Add(r.Context(), 1, metric.WithAttributes(
		attribute.Int("http.response.status_code", statusOf(err)),
	))
}
