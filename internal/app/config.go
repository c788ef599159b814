package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr     string `default:"127.0.0.1:8090" usage:"facade listen address"`
	DBPath   string `default:"storefront.db" usage:"path to the local record store" flag:"db-path"`
	Catalog  CatalogConfig
	Sync     SyncConfig
	CORS     CORSConfig
	Graceful GracefulConfig
}

// CatalogConfig points at the external product catalog service.
type CatalogConfig struct {
	BaseURL      string        `default:"https://dummyjson.com" usage:"catalog service base URL" flag:"catalog-url"`
	Timeout      time.Duration `default:"10s" usage:"catalog request timeout" flag:"catalog-timeout"`
	SnapshotPath string        `default:"" usage:"compressed product snapshot for offline fallback" flag:"catalog-snapshot"`
}

// SyncConfig controls cross-context change detection.
type SyncConfig struct {
	PollInterval time.Duration `default:"1s" usage:"storage change poll interval" flag:"poll-interval"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
	MaxAge  int      `default:"86400" usage:"Preflight cache duration in seconds" flag:"cors-max-age"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	return &cfg, nil
}

// applyPlatformDefaults maps standard platform environment variables (PORT)
// onto the STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "127.0.0.1:8090" {
		c.Addr = "127.0.0.1:" + port
	}
}
