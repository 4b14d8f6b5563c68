package docstore

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/config"
	"gorm.io/gorm"
)

const (
	DriverMemory    = "memory"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMongo     = "mongo"
	DriverFirestore = "firestore"
)

// Open connects the document store selected by DOCSTORE_DRIVER. The gorm
// handle is only used by the postgres driver and may be nil otherwise.
func Open(ctx context.Context, cfg *config.Config, db *gorm.DB) (Client, error) {
	switch cfg.DocstoreDriver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return asClient(OpenSQLite(ctx, cfg.SQLitePath))
	case DriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres docstore needs a database connection")
		}
		return asClient(OpenPostgres(ctx, db, cfg.DSN()))
	case DriverMongo:
		return asClient(OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase))
	case DriverFirestore:
		return asClient(OpenFirestore(ctx, cfg.FirebaseProject, cfg.FirebaseCreds))
	default:
		return nil, fmt.Errorf("unknown docstore driver %q", cfg.DocstoreDriver)
	}
}

// asClient keeps a failed open from returning a non-nil interface that
// wraps a nil driver pointer.
func asClient[C Client](c C, err error) (Client, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
