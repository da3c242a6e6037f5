package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/estatehub/listingguard/internal/logger"
)

// setDefaultConfig registers default values for every setting
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.readtimeout", 15*time.Second)
	v.SetDefault("server.writetimeout", 30*time.Second)
	v.SetDefault("server.shutdowntimeout", 10*time.Second)
	v.SetDefault("server.corsorigins", []string{})

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.jwtissuer", "")

	v.SetDefault("catalog.baseurl", "")
	v.SetDefault("catalog.apikey", "")
	v.SetDefault("catalog.salestatus", "")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.ratelimit", 20.0)
	v.SetDefault("catalog.burst", 10)
	v.SetDefault("catalog.maxretries", 3)
	v.SetDefault("catalog.pagesize", 50)
	v.SetDefault("catalog.maxpages", 200)
	v.SetDefault("catalog.detailttl", 10*time.Minute)
	v.SetDefault("catalog.staleretention", 24*time.Hour)
	v.SetDefault("catalog.projecturltemplate", "")

	v.SetDefault("markers.limit", 500)
	v.SetDefault("markers.ttl", 10*time.Minute)
	v.SetDefault("markers.warmonstart", true)

	v.SetDefault("matching.candidatelimit", 40)
	v.SetDefault("matching.workers", 10)
	v.SetDefault("matching.detailnamethreshold", 45)
	v.SetDefault("matching.detailgeothreshold", 70)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.sqlite.path", "listingguard.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "listingguard")
	v.SetDefault("database.slowthreshold", 200*time.Millisecond)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.samplerate", 1.0)

	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.default_level", logger.DefaultLogLevel)
	v.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	v.SetDefault("logging.console.level", logger.DefaultLogLevel)
	v.SetDefault("logging.file.enabled", logger.DefaultFileEnabled)
	v.SetDefault("logging.file.path", logger.DefaultLogPath)
	v.SetDefault("logging.file.level", logger.DefaultLogLevel)
}
