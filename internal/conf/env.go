package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "LISTINGGUARD_DEBUG", validateEnvBool},

		{"server.listen", "LISTINGGUARD_SERVER_LISTEN", nil},
		{"security.jwtsecret", "LISTINGGUARD_JWT_SECRET", nil},
		{"security.jwtissuer", "LISTINGGUARD_JWT_ISSUER", nil},

		{"catalog.baseurl", "LISTINGGUARD_CATALOG_BASEURL", validateEnvURL},
		{"catalog.apikey", "LISTINGGUARD_CATALOG_APIKEY", nil},
		{"catalog.timeout", "LISTINGGUARD_CATALOG_TIMEOUT", validateEnvDuration},
		{"catalog.ratelimit", "LISTINGGUARD_CATALOG_RATELIMIT", validateEnvNonNegativeFloat},
		{"catalog.projecturltemplate", "LISTINGGUARD_CATALOG_PROJECTURLTEMPLATE", nil},

		{"markers.ttl", "LISTINGGUARD_MARKERS_TTL", validateEnvDuration},
		{"matching.workers", "LISTINGGUARD_MATCHING_WORKERS", validateEnvPositiveInt},

		{"database.type", "LISTINGGUARD_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.sqlite.path", "LISTINGGUARD_DATABASE_SQLITE_PATH", nil},
		{"database.mysql.host", "LISTINGGUARD_DATABASE_MYSQL_HOST", nil},
		{"database.mysql.port", "LISTINGGUARD_DATABASE_MYSQL_PORT", validateEnvPositiveInt},
		{"database.mysql.username", "LISTINGGUARD_DATABASE_MYSQL_USERNAME", nil},
		{"database.mysql.password", "LISTINGGUARD_DATABASE_MYSQL_PASSWORD", nil},
		{"database.mysql.database", "LISTINGGUARD_DATABASE_MYSQL_DATABASE", nil},

		{"sentry.enabled", "LISTINGGUARD_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "LISTINGGUARD_SENTRY_DSN", nil},

		{"logging.default_level", "LISTINGGUARD_LOG_LEVEL", validateEnvLogLevel},
	}
}

// bindEnvVars binds every variable and validates the ones that are set.
// All problems are collected so one run reports them together.
func bindEnvVars(v *viper.Viper) error {
	var problems []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			problems = append(problems, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if value, ok := os.LookupEnv(binding.EnvVar); ok && value != "" {
			if err := binding.Validate(value); err != nil {
				problems = append(problems, fmt.Sprintf("invalid %s value '%s': %v", binding.EnvVar, value, err))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return bindEnvVars(v)
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("must be true/false, 1/0, t/f")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func validateEnvNonNegativeFloat(value string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid number: %w", err)
	}
	if f < 0 {
		return fmt.Errorf("must not be negative, got %g", f)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch value {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	default:
		return fmt.Errorf("must be %q or %q", DatabaseSQLite, DatabaseMySQL)
	}
}

func validateEnvLogLevel(value string) error {
	switch value {
	case "trace", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("must be one of trace, debug, info, warn, error")
	}
}
