package conf

import (
	"fmt"
	"strings"
)

// Supported database types
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

const (
	maxMatchingWorkers = 64
	maxCandidateLimit  = 500
	maxScore           = 100
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings checks ranges and cross-field rules. Missing catalog URL or
// JWT secret is allowed here; the commands that need them check on their own.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}
	collect := func(errs []string) {
		ve.Errors = append(ve.Errors, errs...)
	}

	collect(validateCatalogSettings(&settings.Catalog))
	collect(validateMarkerSettings(&settings.Markers))
	collect(validateMatchingSettings(&settings.Matching))
	collect(validateDatabaseSettings(&settings.Database))
	collect(validateSentrySettings(&settings.Sentry))

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateCatalogSettings(c *CatalogSettings) []string {
	var errs []string
	if c.Timeout <= 0 {
		errs = append(errs, "catalog.timeout must be positive")
	}
	if c.RateLimit < 0 {
		errs = append(errs, "catalog.ratelimit must not be negative")
	}
	if c.RateLimit > 0 && c.Burst < 1 {
		errs = append(errs, "catalog.burst must be at least 1 when rate limiting is enabled")
	}
	if c.MaxRetries < 1 {
		errs = append(errs, "catalog.maxretries must be at least 1")
	}
	if c.PageSize < 1 {
		errs = append(errs, "catalog.pagesize must be at least 1")
	}
	if c.MaxPages < 1 {
		errs = append(errs, "catalog.maxpages must be at least 1")
	}
	if c.DetailTTL <= 0 {
		errs = append(errs, "catalog.detailttl must be positive")
	}
	if c.StaleRetention < c.DetailTTL {
		errs = append(errs, "catalog.staleretention must not be shorter than catalog.detailttl")
	}
	if c.ProjectURLTemplate != "" && strings.Count(c.ProjectURLTemplate, "%s") != 1 {
		errs = append(errs, "catalog.projecturltemplate must contain exactly one %s")
	}
	return errs
}

func validateMarkerSettings(m *MarkerSettings) []string {
	var errs []string
	if m.Limit < 1 {
		errs = append(errs, "markers.limit must be at least 1")
	}
	if m.TTL <= 0 {
		errs = append(errs, "markers.ttl must be positive")
	}
	return errs
}

func validateMatchingSettings(m *MatchingSettings) []string {
	var errs []string
	if m.Workers < 1 || m.Workers > maxMatchingWorkers {
		errs = append(errs, fmt.Sprintf("matching.workers must be between 1 and %d", maxMatchingWorkers))
	}
	if m.CandidateLimit < 1 || m.CandidateLimit > maxCandidateLimit {
		errs = append(errs, fmt.Sprintf("matching.candidatelimit must be between 1 and %d", maxCandidateLimit))
	}
	if m.DetailNameThreshold < 0 || m.DetailNameThreshold > maxScore {
		errs = append(errs, "matching.detailnamethreshold must be between 0 and 100")
	}
	if m.DetailGeoThreshold < 0 || m.DetailGeoThreshold > maxScore {
		errs = append(errs, "matching.detailgeothreshold must be between 0 and 100")
	}
	return errs
}

func validateDatabaseSettings(d *DatabaseSettings) []string {
	var errs []string
	switch d.Type {
	case DatabaseSQLite:
		if d.SQLite.Path == "" {
			errs = append(errs, "database.sqlite.path is required for sqlite")
		}
	case DatabaseMySQL:
		if d.MySQL.Host == "" || d.MySQL.Database == "" {
			errs = append(errs, "database.mysql.host and database.mysql.database are required for mysql")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.type must be %q or %q, got %q", DatabaseSQLite, DatabaseMySQL, d.Type))
	}
	return errs
}

func validateSentrySettings(s *SentrySettings) []string {
	if !s.Enabled {
		return nil
	}
	var errs []string
	if s.DSN == "" {
		errs = append(errs, "sentry.dsn is required when sentry is enabled")
	}
	if s.SampleRate < 0 || s.SampleRate > 1 {
		errs = append(errs, "sentry.samplerate must be between 0 and 1")
	}
	return errs
}
