// Package config holds the runtime configuration for the catalog server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CatalogConfig describes the catalog document served at the API root.
type CatalogConfig struct {
	ID          string
	Title       string
	Description string
	StacVersion string
	License     string
	Extensions  []string
	ConformsTo  []string
}

// ServerConfig is the listener-facing part of the configuration. The
// lifecycle controller snapshots it on start and the reconfigure command
// rewrites it.
type ServerConfig struct {
	// InternalAddress is the address the listener binds to.
	InternalAddress string
	// ExternalAddress is the address advertised in generated hyperlinks.
	ExternalAddress string
	Port            int
	// APIPath is the version prefix every route lives under, e.g. "/v1".
	APIPath string
}

type Config struct {
	Catalog CatalogConfig
	Server  ServerConfig

	RedisAddr string
	AssetsDir string

	LogLevel   string
	LogConsole bool

	MetricsEnabled bool
	MetricsAddr    string
	MetricsPath    string

	CleanupMaxAttempts  int
	CleanupRetryDelay   time.Duration
	CleanupFailureDelay time.Duration
	CleanupQueue        int
}

func FromEnv() Config {
	return Config{
		Catalog: CatalogConfig{
			ID:          getenv("GEOPOD_CATALOG_ID", "geopod-catalog"),
			Title:       getenv("GEOPOD_CATALOG_TITLE", "Geopod Catalog"),
			Description: getenv("GEOPOD_CATALOG_DESCRIPTION", "Self-hosted geospatial catalog for spatiotemporal assets."),
			StacVersion: "1.0.0",
			License:     getenv("GEOPOD_CATALOG_LICENSE", "CC-BY-4.0"),
			Extensions: []string{
				"https://stac-extensions.github.io/eo/v1.0.0/schema.json",
			},
			ConformsTo: []string{
				"https://api.stacspec.org/v1.0.0/core",
				"https://api.stacspec.org/v1.0.0/collections",
				"https://api.stacspec.org/v1.0.0/item-search",
				"https://api.stacspec.org/v1.0.0/ogcapi-features",
				"http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core",
				"http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/geojson",
			},
		},
		Server: ServerConfig{
			InternalAddress: getenv("GEOPOD_HOST", "127.0.0.1"),
			ExternalAddress: getenv("GEOPOD_EXTERNAL_HOST", "127.0.0.1"),
			Port:            getint("GEOPOD_PORT", 3000),
			APIPath:         getenv("GEOPOD_API_PATH", "/v1"),
		},
		RedisAddr:  getenv("GEOPOD_REDIS_ADDR", "localhost:6379"),
		AssetsDir:  getenv("GEOPOD_ASSETS_DIR", "data/assets"),
		LogLevel:   getenv("GEOPOD_LOG_LEVEL", "info"),
		LogConsole: getbool("GEOPOD_LOG_CONSOLE", false),

		MetricsEnabled: getbool("GEOPOD_METRICS_ENABLED", false),
		MetricsAddr:    getenv("GEOPOD_METRICS_ADDR", ":9090"),
		MetricsPath:    getenv("GEOPOD_METRICS_PATH", "/metrics"),

		CleanupMaxAttempts:  getint("GEOPOD_CLEANUP_MAX_ATTEMPTS", 5),
		CleanupRetryDelay:   getduration("GEOPOD_CLEANUP_RETRY_DELAY", 500*time.Millisecond),
		CleanupFailureDelay: getduration("GEOPOD_CLEANUP_FAILURE_DELAY", time.Second),
		CleanupQueue:        getint("GEOPOD_CLEANUP_QUEUE", 64),
	}
}

// BindAddr is the host:port the listener binds to.
func (s ServerConfig) BindAddr() string {
	return fmt.Sprintf("%s:%d", s.InternalAddress, s.Port)
}

// ExternalURL is the base for all generated hyperlinks, including the API
// version path. An external address that already carries a scheme is used
// as-is without the port.
func (s ServerConfig) ExternalURL() string {
	if strings.HasPrefix(s.ExternalAddress, "http://") || strings.HasPrefix(s.ExternalAddress, "https://") {
		return s.ExternalAddress + s.APIPath
	}
	return fmt.Sprintf("http://%s:%d%s", s.ExternalAddress, s.Port, s.APIPath)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
