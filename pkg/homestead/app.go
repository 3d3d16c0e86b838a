// Package homestead wires the HSS-cache/Diameter-Cx gateway's components
// together for embedding or standalone serving.
package homestead

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clearwater-ims/homestead/internal/cache"
	"github.com/clearwater-ims/homestead/internal/circuitbreaker"
	"github.com/clearwater-ims/homestead/internal/config"
	"github.com/clearwater-ims/homestead/internal/cx"
	"github.com/clearwater-ims/homestead/internal/dbpool"
	"github.com/clearwater-ims/homestead/internal/diameter"
	"github.com/clearwater-ims/homestead/internal/httpserver"
	"github.com/clearwater-ims/homestead/internal/lifecycle"
	"github.com/clearwater-ims/homestead/internal/logger"
	"github.com/clearwater-ims/homestead/internal/metrics"
	"github.com/clearwater-ims/homestead/internal/observability"
	"github.com/clearwater-ims/homestead/internal/orchestrator"
	"github.com/clearwater-ims/homestead/internal/realmmanager"
	"github.com/clearwater-ims/homestead/internal/sprout"
	"github.com/clearwater-ims/homestead/internal/store"
)

// App wires the cache request layer, Cx orchestrators, realm manager, and
// HTTP frontend for a single Homestead instance.
type App struct {
	Config *config.Config
	Store  store.Store
	Cache  *cache.Cache
	Tx     *diameter.Transactor
	Sprout *sprout.Client
	Realms *realmmanager.Manager
	Server *httpserver.Server

	resourceManager *lifecycle.Manager
	metrics         *metrics.Metrics
}

// Option configures App construction. A Diameter Stack and a realm-manager
// Resolver are never built in: the actual Diameter wire codec, peer table,
// and DNS/SRV resolution are non-goals of this module (see spec.md §1). The
// embedder must supply the Stack; without a Resolver no realm manager runs.
type Option func(*options)

type options struct {
	store    store.Store
	stack    diameter.Stack
	resolver realmmanager.Resolver
}

// WithStore overrides the backing store (useful for tests).
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// WithStack supplies the Diameter Stack implementation.
func WithStack(s diameter.Stack) Option {
	return func(o *options) { o.stack = s }
}

// WithResolver supplies the realm manager's peer resolver.
func WithResolver(r realmmanager.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// New assembles a Homestead App from cfg. WithStack is required: there is
// no built-in Diameter stack. WithResolver is optional; without it the App
// has no realm manager (Realms is nil).
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("homestead: config required")
	}

	optState := options{}
	for _, opt := range opts {
		opt(&optState)
	}
	if optState.stack == nil {
		return nil, errors.New("homestead: a diameter.Stack must be supplied via WithStack")
	}

	app := &App{
		Config:          cfg,
		resourceManager: lifecycle.NewManager(),
	}

	appLogger := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "homestead",
		Environment: cfg.Logging.Environment,
	})

	app.metrics = metrics.New(prometheus.DefaultRegisterer)

	registry := observability.NewRegistry(appLogger)
	promHook := observability.NewPrometheusHook(app.metrics)
	registry.RegisterCxTransactionHook(promHook)
	registry.RegisterCacheHook(promHook)
	registry.RegisterRealmHook(promHook)

	breakers := circuitbreaker.NewManagerFromConfig(cfg.CircuitBreaker)

	backingStore, pool, err := app.openStore(cfg.Cache, optState.store)
	if err != nil {
		return nil, err
	}
	app.Store = backingStore
	app.resourceManager.Register("store", backingStore)
	if pool != nil {
		app.resourceManager.Register("store-pool", pool)
	}

	app.Cache = cache.New(
		backingStore,
		breakers,
		cfg.Cache.ImpuCacheTTL.Duration,
		2*cfg.Cache.HSSReregistrationTime.Duration,
		cache.WithMetrics(app.metrics),
		cache.WithObservability(registry),
	)

	app.Tx = diameter.NewTransactor(optState.stack, breakers, app.metrics, registry)

	app.Sprout = sprout.New(cfg.Sprout.BaseURL, cfg.Sprout.Timeout.Duration, breakers, app.metrics)

	deps := orchestrator.Deps{
		Cache:    app.Cache,
		Tx:       app.Tx,
		Sprout:   app.Sprout,
		Breakers: breakers,
		Diameter: cfg.Diameter,
		CacheCfg: cfg.Cache,
		Logger:   appLogger,
	}

	pushProfile := orchestrator.NewPushProfileHandler(deps)
	regTermination := orchestrator.NewRegistrationTerminationHandler(deps)
	optState.stack.RegisterRequestHandler(cx.CommandCodePPR, pushProfile.Handle)
	optState.stack.RegisterRequestHandler(cx.CommandCodeRTR, regTermination.Handle)

	if optState.resolver != nil {
		app.Realms = realmmanager.New(
			cfg.RealmManager.Realm,
			cfg.RealmManager.Hostname,
			cfg.RealmManager.MaxPeers,
			cfg.RealmManager.ResolverFloor.Duration,
			optState.resolver,
			realmStackAdapter{optState.stack},
			realmmanager.WithMetrics(app.metrics),
			realmmanager.WithObservability(registry),
			realmmanager.WithLogger(appLogger),
		)
	}

	app.Server = httpserver.New(cfg, deps, app.Realms, app.metrics, appLogger)

	// Registered in the order resources should be closed LIFO: store first
	// (closed last), HTTP server next, realm manager last (closed first)
	// per spec.md §5's shutdown ordering.
	app.resourceManager.Register("http-server", app.Server)
	if app.Realms != nil {
		app.resourceManager.RegisterFunc("realm-manager", func() error {
			app.Realms.Stop()
			return nil
		})
	}

	return app, nil
}

// Start launches the realm manager (if configured) and the HTTP frontend.
// It blocks on ListenAndServe; run it in a goroutine and use Close for
// shutdown.
func (a *App) Start(ctx context.Context) error {
	if a.Realms != nil {
		a.Realms.Start(ctx)
	}
	return a.Server.ListenAndServe()
}

// Close shuts down every owned resource in LIFO order: the realm manager
// stops first (per spec.md §5), then the HTTP frontend drains, then the
// backing store connection closes. The Diameter stack itself is owned by
// the embedder and is stopped after this returns.
func (a *App) Close() error {
	return a.resourceManager.Close()
}

// openStore opens the configured backing store. For Postgres it goes
// through a dbpool.SharedPool rather than letting PostgresStore own the
// *sql.DB directly, so a future second Postgres-backed collaborator could
// share the same connection pool; PostgresStore's Close becomes a no-op in
// that case and the pool is closed separately.
func (a *App) openStore(cfg config.CacheConfig, override store.Store) (store.Store, *dbpool.SharedPool, error) {
	if override != nil {
		return override, nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.Backend {
	case "postgres":
		pool, err := dbpool.NewSharedPool(cfg.Postgres.DSN, cfg.Postgres.Pool)
		if err != nil {
			return nil, nil, err
		}
		s, err := store.NewPostgresStoreWithDB(ctx, pool.DB())
		if err != nil {
			_ = pool.Close()
			return nil, nil, err
		}
		return s, pool, nil
	default:
		s, err := store.NewMongoStore(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
		return s, nil, err
	}
}

// realmStackAdapter adapts a diameter.Stack's peer-facing surface, if it
// implements one, to realmmanager.Stack. Embedders whose Stack also manages
// its own peer table should have it satisfy realmmanager.Stack directly;
// this adapter is a thin pass-through placeholder wired for the common
// case where the Stack implementation embeds peer add/remove itself.
type realmStackAdapter struct {
	stack diameter.Stack
}

func (a realmStackAdapter) Add(peer *realmmanager.Peer) bool {
	if adder, ok := a.stack.(realmmanager.Stack); ok {
		return adder.Add(peer)
	}
	return false
}

func (a realmStackAdapter) Remove(peer *realmmanager.Peer) {
	if remover, ok := a.stack.(realmmanager.Stack); ok {
		remover.Remove(peer)
	}
}
