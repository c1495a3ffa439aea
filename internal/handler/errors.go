package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/wamenu/internal/domain/checkout"
	"github.com/xenking/wamenu/internal/domain/menu"
	"github.com/xenking/wamenu/pkg/httpmiddleware"
)

// badRequestError reports a malformed request body or parameter.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return "bad request: " + e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &badRequestError{err: err}
}

// statusOf maps domain errors to HTTP status codes. Unknown errors map to
// 500.
func statusOf(err error) int {
	var (
		badReq     *badRequestError
		quantity   *checkout.InvalidQuantityError
		unknown    *checkout.UnknownEntryError
		validation *menu.ValidationError
	)
	switch {
	case errors.As(err, &badReq), errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, menu.ErrRestaurantNotFound), errors.Is(err, menu.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.As(err, &quantity), errors.As(err, &unknown), errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status of err. Internal errors are logged and
// their details withheld from the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		zctx.From(ctx).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, code, "internal error")
		return
	}
	httpmiddleware.WriteError(w, code, err.Error())
}
