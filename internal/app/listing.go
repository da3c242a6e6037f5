package app

import (
	"gorm.io/gorm"

	"github.com/estatehub/listingguard/internal/audit"
	"github.com/estatehub/listingguard/internal/conf"
	"github.com/estatehub/listingguard/internal/datastore"
	"github.com/estatehub/listingguard/internal/listing"
	"github.com/estatehub/listingguard/internal/observability"
)

// OpenStore opens the listing database with the "datastore" module logger.
// Tables are migrated by datastore.Open.
func OpenStore(settings *conf.DatabaseSettings, log Loggers) (*gorm.DB, error) {
	return datastore.Open(settings, log.Module("datastore"))
}

// NewListingService builds the lifecycle service over a gorm store. checker may be
// nil, in which case submissions rely on stored duplicate annotations.
func NewListingService(db *gorm.DB, checker listing.DuplicateChecker, log Loggers, m *observability.Metrics) *listing.Service {
	opts := listing.ServiceOptions{
		Checker: checker,
		Audit:   audit.NewLogSink(log.Module("audit")),
		Logger:  log.Module("listing"),
	}
	if m != nil {
		opts.Metrics = m.Lifecycle
	}
	return listing.NewService(datastore.NewListingRepository(db), opts)
}
