package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (MENU_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (MENU_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL prepended to menu image references" flag:"image-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (MENU_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Checkout     CheckoutConfig
	Fallback     FallbackConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// CheckoutConfig controls how orders are addressed and rendered.
type CheckoutConfig struct {
	MessagingURL string `default:"https://wa.me" usage:"Messaging deep link base URL" flag:"messaging-url"`
	CallingCode  string `default:"212" usage:"Country calling code for phone normalization" flag:"calling-code"`
	DefaultPhone string `default:"" usage:"Phone used when a restaurant has none" flag:"default-phone"`
	Currency     string `default:"€" usage:"Suffix appended to order totals"`
	MaxQuantity  int    `default:"99" usage:"Maximum units per order line" flag:"max-quantity"`
}

// FallbackConfig controls serving the built-in snapshot when the database
// fails.
type FallbackConfig struct {
	Enabled  bool   `default:"true" usage:"Serve the snapshot menu when the database fails"`
	OnEmpty  bool   `default:"false" usage:"Also serve the snapshot for restaurants without entries" flag:"fallback-on-empty"`
	Snapshot string `default:"" usage:"Snapshot file (.json or .json.gz); empty uses the built-in one" flag:"fallback-snapshot"`
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files and flags, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "MENU",
		Files:     []string{"config.yaml", "/etc/menu/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set MENU_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Checkout.MaxQuantity < 1 {
		return nil, errors.Errorf("checkout max quantity must be positive, got %d", cfg.Checkout.MaxQuantity)
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided DATABASE_URL and PORT to the
// MENU_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
