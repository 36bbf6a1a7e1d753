package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyang/role-master/internal/adapter/fsmirror"
	adaptermarket "github.com/alanyang/role-master/internal/adapter/market"
	"github.com/alanyang/role-master/internal/adapter/memory"
	mongoadapter "github.com/alanyang/role-master/internal/adapter/mongo"
	adapternotifier "github.com/alanyang/role-master/internal/adapter/notifier"
	pgdb "github.com/alanyang/role-master/internal/adapter/postgres"
	pgconfigstore "github.com/alanyang/role-master/internal/adapter/postgres/configstore"
	pgeventbus "github.com/alanyang/role-master/internal/adapter/postgres/eventbus"
	redisadapter "github.com/alanyang/role-master/internal/adapter/redis"
	sqliteadapter "github.com/alanyang/role-master/internal/adapter/sqlite"
	"github.com/alanyang/role-master/internal/config"
	"github.com/alanyang/role-master/internal/port/configstore"
	porteventbus "github.com/alanyang/role-master/internal/port/eventbus"
	catalogsvc "github.com/alanyang/role-master/internal/service/catalog"
	groupchatsvc "github.com/alanyang/role-master/internal/service/groupchat"
	marketsvc "github.com/alanyang/role-master/internal/service/market"
	rolesvc "github.com/alanyang/role-master/internal/service/role"
)

// Core is the service graph shared by the HTTP server and the CLI.
type Core struct {
	Config    *config.Config
	EventBus  porteventbus.EventBus
	Mirror    *fsmirror.Mirror
	RoleSvc   *rolesvc.Service
	GroupSvc  *groupchatsvc.Service
	MarketSvc *marketsvc.Service
	Catalog   *catalogsvc.Projection

	closers []func() error
}

// Close releases store connections in reverse order of acquisition.
func (c *Core) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// BuildCore wires storage, services and the catalog projection. sinks receive
// every user-facing notification after it is logged.
func BuildCore(ctx context.Context, cfg *config.Config, sinks ...adapternotifier.Sink) (*Core, error) {
	core := &Core{Config: cfg}

	store, bus, err := core.openStore(ctx)
	if err != nil {
		core.Close() //nolint:errcheck
		return nil, err
	}
	core.EventBus = bus

	notifier := adapternotifier.NewLogger(slog.Default(), sinks...)
	core.Mirror = fsmirror.New(cfg.Workspace.Root, fsmirror.WithRelPath(cfg.Workspace.RulePath))

	source := adaptermarket.NewFallbackSource(
		adaptermarket.NewHTTPSource(cfg.Market.URL, cfg.Market.Timeout),
		adaptermarket.Builtin{},
		notifier,
	)

	core.RoleSvc = rolesvc.NewService(store, bus, core.Mirror, notifier)
	core.GroupSvc = groupchatsvc.NewService(core.RoleSvc, notifier)
	core.MarketSvc = marketsvc.NewService(core.RoleSvc, source, notifier)
	core.Catalog = catalogsvc.NewProjection(core.RoleSvc)

	slog.Info("core wired", "store", cfg.Store.Driver, "workspace", cfg.Workspace.Root)
	return core, nil
}

// openStore selects the config store for store.driver. The Postgres driver
// also gets the LISTEN/NOTIFY bus so several processes see each other's
// changes; every other driver uses the in-process bus.
func (c *Core) openStore(ctx context.Context) (configstore.Store, porteventbus.EventBus, error) {
	cfg := c.Config.Store
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewConfigStore(), memory.NewEventBus(), nil

	case config.DriverSQLite:
		db, err := sqliteadapter.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		store, err := sqliteadapter.NewConfigStore(db)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, memory.NewEventBus(), nil

	case config.DriverPostgres:
		pool, err := pgdb.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		c.closers = append(c.closers, func() error { pool.Close(); return nil })
		if err := pgdb.Migrate(ctx, pool); err != nil {
			return nil, nil, fmt.Errorf("migrating database: %w", err)
		}
		bus := pgeventbus.New(pool)
		c.closers = append(c.closers, bus.Close)
		return pgconfigstore.New(pool), bus, nil

	case config.DriverRedis:
		client, err := redisadapter.Connect(ctx, redisadapter.Config{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		return redisadapter.NewConfigStore(client), memory.NewEventBus(), nil

	case config.DriverMongo:
		client, db, err := mongoadapter.Connect(ctx, mongoadapter.Config{URI: cfg.MongoURI, Database: cfg.MongoDB})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		c.closers = append(c.closers, func() error {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(dctx)
		})
		return mongoadapter.NewConfigStore(db), memory.NewEventBus(), nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
