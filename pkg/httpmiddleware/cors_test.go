package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         CORSConfig
		method      string
		origin      string
		preflight   bool
		wantCode    int
		wantOrigin  string
		wantMethods string
		wantCreds   string
	}{
		{
			name:       "wildcard simple request",
			cfg:        CORSConfig{AllowOrigins: []string{"*"}},
			method:     http.MethodGet,
			origin:     "https://menu.example",
			wantCode:   http.StatusOK,
			wantOrigin: "*",
		},
		{
			name:        "wildcard preflight",
			cfg:         CORSConfig{MaxAge: 600},
			method:      http.MethodOptions,
			origin:      "https://menu.example",
			preflight:   true,
			wantCode:    http.StatusNoContent,
			wantOrigin:  "*",
			wantMethods: "GET, POST, PUT, DELETE, OPTIONS",
		},
		{
			name:       "listed origin is echoed",
			cfg:        CORSConfig{AllowOrigins: []string{"https://Menu.example"}},
			method:     http.MethodGet,
			origin:     "https://menu.example",
			wantCode:   http.StatusOK,
			wantOrigin: "https://menu.example",
		},
		{
			name:     "unlisted origin",
			cfg:      CORSConfig{AllowOrigins: []string{"https://menu.example"}},
			method:   http.MethodGet,
			origin:   "https://evil.example",
			wantCode: http.StatusOK,
		},
		{
			name:      "unlisted origin preflight",
			cfg:       CORSConfig{AllowOrigins: []string{"https://menu.example"}},
			method:    http.MethodOptions,
			origin:    "https://evil.example",
			preflight: true,
			wantCode:  http.StatusNoContent,
		},
		{
			name:       "credentials never use wildcard",
			cfg:        CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true},
			method:     http.MethodGet,
			origin:     "https://menu.example",
			wantCode:   http.StatusOK,
			wantOrigin: "https://menu.example",
			wantCreds:  "true",
		},
		{
			name:     "no origin",
			cfg:      CORSConfig{},
			method:   http.MethodGet,
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.cfg)(okHandler())
			req := httptest.NewRequest(tt.method, "/api/restaurants/r1", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantMethods, w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, tt.wantCreds, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORS_EchoesRequestedHeaders(t *testing.T) {
	h := CORS(CORSConfig{})(okHandler())
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://menu.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "X-API-Key")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "X-API-Key", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, w.Header().Values("Vary"), "Access-Control-Request-Method")
}
