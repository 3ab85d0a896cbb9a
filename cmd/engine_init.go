package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/property-profile/internal/aggregate"
	"github.com/sells-group/property-profile/internal/cache"
	"github.com/sells-group/property-profile/internal/config"
	"github.com/sells-group/property-profile/internal/events"
	"github.com/sells-group/property-profile/internal/fetcher"
	"github.com/sells-group/property-profile/internal/metrics"
	"github.com/sells-group/property-profile/internal/profile"
	"github.com/sells-group/property-profile/internal/recommend"
	"github.com/sells-group/property-profile/internal/resilience"
	"github.com/sells-group/property-profile/internal/source"
	"github.com/sells-group/property-profile/internal/store"
	"github.com/sells-group/property-profile/pkg/cadastre"
	"github.com/sells-group/property-profile/pkg/geocode"
)

// engineEnv holds the engine and the resources the serve and profile
// commands share.
type engineEnv struct {
	Engine    *profile.Engine
	Store     store.Store // may be nil
	Cache     *cache.ProfileCache
	Breakers  *resilience.Breakers
	Metrics   *metrics.Metrics
	Publisher events.Publisher
}

// Close releases resources held by the environment.
func (e *engineEnv) Close() {
	if e.Publisher != nil {
		if err := e.Publisher.Close(); err != nil {
			zap.L().Warn("close publisher", zap.Error(err))
		}
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEngine wires the HTTP client, providers, coordinator, cache, store and
// publisher from c. Callers should defer env.Close().
func initEngine(ctx context.Context, c *config.Config, mode string) (*engineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	env := &engineEnv{
		Breakers:  resilience.NewBreakers(resilience.BreakerFrom(c.Resilience.BreakerThreshold, c.Resilience.BreakerCooldownSecs)),
		Metrics:   metrics.New(),
		Publisher: events.Noop{},
	}

	client := fetcher.New(fetcher.Options{
		UserAgent:     c.Providers.UserAgent,
		Timeout:       time.Duration(c.Providers.TimeoutSecs) * time.Second,
		RatePerSecond: c.Providers.RatePerSecond,
		Policy:        resilience.PolicyFrom(c.Resilience.MaxAttempts, c.Resilience.BaseDelayMs, c.Resilience.MaxDelayMs),
		Breakers:      env.Breakers,
	})

	cad := cadastre.New(client, c.Providers.Cadastre)
	tasks := source.Tasks(source.Deps{
		Getter:    client,
		Zones:     cad,
		Endpoints: c.Providers.Endpoints,
		Bounds:    c.Reconcile,
		Timeout:   time.Duration(c.Aggregate.AdapterTimeoutSecs) * time.Second,
	})
	coord := aggregate.New(tasks, cad,
		aggregate.WithBudget(time.Duration(c.Aggregate.BudgetSecs)*time.Second),
		aggregate.WithParcelTimeout(time.Duration(c.Aggregate.ParcelTimeoutSecs)*time.Second),
		aggregate.WithRecorder(env.Metrics),
	)
	resolver := geocode.NewResolver(geocode.NewBANProvider(client, geocode.WithBaseURL(c.Providers.Geocoder)))

	rules := recommend.DefaultRules()
	if c.Rules.Path != "" {
		r, err := recommend.LoadRules(c.Rules.Path)
		if err != nil {
			return nil, err
		}
		rules = r
	}

	opts := []profile.Option{
		profile.WithRules(rules),
		profile.WithObserver(env.Metrics),
	}
	if c.Cache.Enabled {
		env.Cache = cache.New(c.Cache.TTL(), time.Now)
		opts = append(opts, profile.WithCache(env.Cache))
	}

	st, err := initStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	if st != nil {
		env.Store = st
		opts = append(opts, profile.WithStore(st))
	}

	if c.Events.URL != "" {
		pub, err := events.NewRabbitMQ(c.Events)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Publisher = pub
		opts = append(opts, profile.WithPublisher(pub))
	}

	env.Engine = profile.New(resolver, coord, opts...)
	zap.L().Info("engine ready",
		zap.Strings("sections", coord.Sections()),
		zap.Bool("cache", env.Cache != nil),
		zap.String("store", c.Store.Driver),
		zap.Bool("events", c.Events.URL != ""),
	)
	return env, nil
}

// initStore opens and migrates the configured store. An empty driver
// returns a nil store.
func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch sc.Driver {
	case "":
		return nil, nil
	case "sqlite":
		st, err = store.NewSQLite(sc.SQLitePath)
	case "postgres":
		st, err = store.NewPostgres(ctx, sc.DatabaseURL, &sc.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
