package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/vessel"

	"github.com/xraph/points/store"
	lvlstore "github.com/xraph/points/store/leveldb"
	"github.com/xraph/points/store/memory"
	mongostore "github.com/xraph/points/store/mongo"
	"github.com/xraph/points/store/postgres"
	"github.com/xraph/points/store/sqlite"
)

// resolveStore picks the store in order: programmatic, grove DB from the
// container, configured driver, memory.
func (e *Extension) resolveStore(ctx context.Context) (store.Store, string, error) {
	if e.store != nil {
		return e.store, "programmatic", nil
	}

	if e.useGrove || e.config.GroveDatabase != "" {
		db, err := e.groveDB()
		if err != nil {
			return nil, "", err
		}
		s, err := storeForGrove(db)
		if err != nil {
			return nil, "", err
		}
		return s, "grove:" + db.Driver().Name(), nil
	}

	s, err := OpenStore(ctx, e.config.Driver, e.config.DSN)
	if err != nil {
		return nil, "", err
	}
	return s, e.config.Driver, nil
}

func (e *Extension) groveDB() (*grove.DB, error) {
	c := e.App().Container()
	if name := e.config.GroveDatabase; name != "" {
		db, err := vessel.InjectNamed[*grove.DB](c, name)
		if err != nil {
			return nil, fmt.Errorf("points: resolve grove database %q: %w", name, err)
		}
		return db, nil
	}
	db, err := vessel.Inject[*grove.DB](c)
	if err != nil {
		return nil, fmt.Errorf("points: resolve grove database: %w", err)
	}
	return db, nil
}

// storeForGrove builds the backend matching the grove driver of db.
func storeForGrove(db *grove.DB) (store.Store, error) {
	switch name := db.Driver().Name(); name {
	case "pg":
		return postgres.New(db), nil
	case "sqlite":
		return sqlite.New(db), nil
	case "mongo":
		return mongostore.New(db), nil
	default:
		return nil, fmt.Errorf("points: unsupported grove driver %q", name)
	}
}

// OpenStore connects the named driver to dsn. An empty driver selects the
// memory store.
func OpenStore(ctx context.Context, driver, dsn string) (store.Store, error) {
	if driver == "" || driver == DriverMemory {
		return memory.New(), nil
	}
	if dsn == "" {
		return nil, fmt.Errorf("points: driver %q requires a dsn", driver)
	}

	switch driver {
	case DriverLevelDB:
		s, err := lvlstore.Open(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil

	case DriverSQLite:
		drv := sqlitedriver.New()
		if err := drv.Open(ctx, dsn); err != nil {
			return nil, fmt.Errorf("points: open sqlite: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("points: grove open: %w", err), drv.Close())
		}
		return sqlite.New(db), nil

	case DriverPostgres:
		drv := pgdriver.New()
		if err := drv.Open(ctx, dsn); err != nil {
			return nil, fmt.Errorf("points: open postgres: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("points: grove open: %w", err), drv.Close())
		}
		return postgres.New(db), nil

	case DriverMongo:
		drv := mongodriver.New()
		if err := drv.Open(ctx, dsn); err != nil {
			return nil, fmt.Errorf("points: open mongo: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("points: grove open: %w", err), drv.Close())
		}
		return mongostore.New(db), nil

	default:
		return nil, fmt.Errorf("points: unknown store driver %q", driver)
	}
}
