// Package conf loads service settings from config.yaml, .env and LISTINGGUARD_* environment variables.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/estatehub/listingguard/internal/logger"
)

// ServerSettings contains settings for the HTTP API.
type ServerSettings struct {
	Listen          string        // host:port to listen on
	ReadTimeout     time.Duration // per-request read timeout
	WriteTimeout    time.Duration // per-request write timeout
	ShutdownTimeout time.Duration // grace period for in-flight requests on shutdown
	CORSOrigins     []string      // allowed CORS origins, empty disables CORS
}

// SecuritySettings contains bearer token verification settings.
type SecuritySettings struct {
	JWTSecret string // HS256 signing secret shared with the identity provider
	JWTIssuer string // expected "iss" claim, empty skips the check
}

// CatalogSettings contains settings for the verified project catalog client.
type CatalogSettings struct {
	BaseURL            string        // catalog API root, e.g. https://catalog.example.com/api
	APIKey             string        // sent as X-Api-Key when set
	SaleStatus         string        // optional saleStatus filter for marker listing
	Timeout            time.Duration // per-request timeout
	RateLimit          float64       // requests per second, 0 disables limiting
	Burst              int           // rate limiter burst
	MaxRetries         int           // attempts for retryable failures
	PageSize           int           // items requested per list page
	MaxPages           int           // hard cap on pages walked per marker rebuild
	DetailTTL          time.Duration // project detail cache freshness
	StaleRetention     time.Duration // how long expired entries stay usable as stale fallback
	ProjectURLTemplate string        // public project page, "%s" replaced by project id
}

// MarkerSettings contains settings for the marker index.
type MarkerSettings struct {
	Limit       int           // markers kept in the index
	TTL         time.Duration // rebuild interval
	WarmOnStart bool          // build the index when the server starts
}

// MatchingSettings contains duplicate matcher tuning.
type MatchingSettings struct {
	CandidateLimit      int // candidates scored per check
	Workers             int // concurrent detail fetches
	DetailNameThreshold int // name similarity needed to fetch detail
	DetailGeoThreshold  int // geo score needed to fetch detail
}

// SQLiteSettings contains settings for the SQLite database.
type SQLiteSettings struct {
	Path string // database file path
}

// MySQLSettings contains settings for the MySQL database.
type MySQLSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DatabaseSettings selects and configures the listing store.
type DatabaseSettings struct {
	Type          string // sqlite or mysql
	SQLite        SQLiteSettings
	MySQL         MySQLSettings
	SlowThreshold time.Duration // statements slower than this are logged at warn
}

// SentrySettings contains error telemetry settings.
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

// Settings contains all configuration options for the service.
type Settings struct {
	Debug    bool
	Server   ServerSettings
	Security SecuritySettings
	Catalog  CatalogSettings
	Markers  MarkerSettings
	Matching MatchingSettings
	Database DatabaseSettings
	Sentry   SentrySettings
	Logging  logger.LoggingConfig
}

// Load reads configuration in increasing precedence: defaults, config file, .env, environment.
// configFile may be empty, in which case config.yaml is searched in the default paths and
// its absence is not an error.
func Load(configFile string) (*Settings, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		return nil, err
	}

	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

func readConfigFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range defaultConfigPaths() {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// defaultConfigPaths lists config search directories, most specific first
func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "listingguard"))
	}
	return append(paths, "/etc/listingguard")
}

// ProjectURL renders the public page of a catalog project, or "" if no template is configured
func (c *CatalogSettings) ProjectURL(projectID string) string {
	if c.ProjectURLTemplate == "" || projectID == "" {
		return ""
	}
	return fmt.Sprintf(c.ProjectURLTemplate, projectID)
}
