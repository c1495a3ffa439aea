package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/wamenu/internal/domain/auth"
	"github.com/xenking/wamenu/pkg/httpmiddleware"
)

// HeaderAPIKey carries the owner API key. A bearer Authorization header is
// accepted too.
const HeaderAPIKey = "X-API-Key"

// RequireScope authenticates the request API key by its HMAC-SHA256 hash and
// rejects keys lacking scope.
func (h *Handler) RequireScope(scope string) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := presentedKey(r)
			if key == "" {
				httpmiddleware.WriteError(w, http.StatusUnauthorized, "missing api key")
				return
			}

			hash := auth.HashKey(key, h.pepper)
			info, err := h.keys.FindByHash(ctx, hash)
			if err != nil {
				if !errors.Is(err, auth.ErrKeyNotFound) {
					zctx.From(ctx).Warn("API key lookup failed", zap.Error(err))
				}
				httpmiddleware.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			want, _ := hex.DecodeString(hash)
			got, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(want, got) != 1 {
				httpmiddleware.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !info.HasScope(scope) {
				httpmiddleware.WriteError(w, http.StatusForbidden, "missing scope "+scope)
				return
			}

			ctx = zctx.With(auth.WithKey(ctx, info), zap.String("api_key_id", info.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func presentedKey(r *http.Request) string {
	if key := r.Header.Get(HeaderAPIKey); key != "" {
		return key
	}
	authz := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authz, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
