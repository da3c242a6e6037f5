// Package datastore persists listings with GORM on SQLite or MySQL.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/estatehub/listingguard/internal/conf"
	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/logger"
)

const componentName = "datastore"

// dirPermissions for the SQLite database directory
const dirPermissions = 0o750

// Open connects to the configured database and migrates the schema.
func Open(settings *conf.DatabaseSettings, log logger.Logger) (*gorm.DB, error) {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelWarn, nil)
	}

	var (
		dialector gorm.Dialector
		info      string
	)
	switch settings.Type {
	case conf.DatabaseSQLite:
		path := settings.SQLite.Path
		if dir := filepath.Dir(path); dir != "." && !isMemoryPath(path) {
			if err := os.MkdirAll(dir, dirPermissions); err != nil {
				return nil, dbError(err, "create_directory").Context("path", dir).Build()
			}
		}
		dialector = sqlite.Open(sqliteDSN(path))
		info = path
	case conf.DatabaseMySQL:
		m := settings.MySQL
		dialector = mysql.Open(fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			m.Username, m.Password, m.Host, m.Port, m.Database))
		info = fmt.Sprintf("%s:%s/%s", m.Host, m.Port, m.Database)
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Type).
			Category(errors.CategoryConfiguration).
			Component(componentName).
			Build()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLoggerAdapter(log, settings.SlowThreshold),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, dbError(err, "open").Context("db_type", settings.Type).Build()
	}

	if settings.Type == conf.DatabaseSQLite {
		// SQLite allows a single writer; serialize through one connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, dbError(err, "open").Build()
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db, log); err != nil {
		_ = Close(db)
		return nil, err
	}

	log.Info("database ready",
		logger.String("db_type", settings.Type),
		logger.String("connection", info))
	return db, nil
}

// Migrate creates or updates the listing tables.
func Migrate(db *gorm.DB, log logger.Logger) error {
	start := time.Now()
	if err := db.AutoMigrate(allEntities()...); err != nil {
		return dbError(err, "auto_migrate").Build()
	}
	if log != nil {
		log.Debug("database migration completed",
			logger.Int("tables", len(allEntities())),
			logger.Duration("elapsed", time.Since(start)))
	}
	return nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "close").Build()
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close").Build()
	}
	return nil
}

func isMemoryPath(path string) bool {
	return strings.Contains(path, ":memory:") || strings.HasPrefix(path, "file:")
}

// sqliteDSN enables foreign keys and a busy timeout
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func dbError(err error, operation string) *errors.ErrorBuilder {
	return errors.New(err).
		Category(errors.CategoryDatabase).
		Component(componentName).
		Context("operation", operation)
}
