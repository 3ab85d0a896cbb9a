// Package profile builds property profiles end to end: cache lookup,
// geocoding, aggregation, recommendations, persistence and notification.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/property-profile/internal/cache"
	"github.com/sells-group/property-profile/internal/events"
	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/recommend"
	"github.com/sells-group/property-profile/internal/source"
	"github.com/sells-group/property-profile/internal/store"
	"github.com/sells-group/property-profile/pkg/geocode"
)

// Geocoder resolves free-text addresses.
type Geocoder interface {
	Resolve(ctx context.Context, text string) (*geocode.Resolution, error)
}

// Aggregator fans out to the sources for a resolved location.
type Aggregator interface {
	Run(ctx context.Context, in source.Input) *model.PropertyProfile
}

// Observer receives engine-level observations. internal/metrics implements it.
type Observer interface {
	ObserveCache(hit bool)
	ObserveGeocodeFailure(reason string)
	ObserveProfile(warnings int)
}

type nopObserver struct{}

func (nopObserver) ObserveCache(bool)            {}
func (nopObserver) ObserveGeocodeFailure(string) {}
func (nopObserver) ObserveProfile(int)           {}

// Result is the outcome of a successful Build.
type Result struct {
	Profile  *model.PropertyProfile
	CacheHit bool
}

// Engine orchestrates one profile request.
type Engine struct {
	geocoder   Geocoder
	aggregator Aggregator
	cache      *cache.ProfileCache
	rules      recommend.Rules
	store      store.Store
	publisher  events.Publisher
	observer   Observer
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache enables the response cache.
func WithCache(c *cache.ProfileCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithRules overrides the recommendation thresholds.
func WithRules(r recommend.Rules) Option {
	return func(e *Engine) { e.rules = r }
}

// WithStore persists every freshly built profile.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithPublisher emits a ProfileGenerated event for every freshly built profile.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// New creates an Engine.
func New(g Geocoder, a Aggregator, opts ...Option) *Engine {
	e := &Engine{
		geocoder:   g,
		aggregator: a,
		rules:      recommend.DefaultRules(),
		publisher:  events.Noop{},
		observer:   nopObserver{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build returns the profile for q. Errors are a *ValidationError,
// geocode.ErrAddressNotFound, geocode.ErrGeocoderUnavailable or a context
// error; every other failure is absorbed into the profile's warnings. A
// profile whose aggregation was cut short by ctx is discarded: it is never
// persisted, cached or published.
func (e *Engine) Build(ctx context.Context, q model.AddressQuery) (*Result, error) {
	start := e.now()
	q, err := Normalize(q)
	if err != nil {
		return nil, err
	}

	if e.cache != nil && !q.BypassCache {
		if p, ok := e.cache.Get(q.Text, q.Radius); ok {
			e.observer.ObserveCache(true)
			p.Recommendations = recommend.Compose(p, e.rules, q.Language)
			return &Result{Profile: p, CacheHit: true}, nil
		}
		e.observer.ObserveCache(false)
	}

	res, err := e.geocoder.Resolve(ctx, q.Text)
	if err != nil {
		e.observer.ObserveGeocodeFailure(geocodeReason(err))
		zap.L().Info("profile: geocoding failed",
			zap.String("address", q.Text),
			zap.Error(err),
		)
		return nil, err
	}
	zap.L().Debug("profile: address resolved",
		zap.String("address", q.Text),
		zap.String("label", res.Location.Label),
		zap.String("provider", res.Source),
		zap.String("strategy", res.Strategy),
		zap.Int("attempts", len(res.Attempts)),
	)

	p := e.aggregator.Run(ctx, source.Input{
		Location: res.Location,
		Radius:   q.Radius,
		Language: q.Language,
	})
	if err := ctx.Err(); err != nil {
		zap.L().Info("profile: request ended during aggregation",
			zap.String("address", q.Text),
			zap.Error(err),
		)
		return nil, eris.Wrap(err, "profile: aggregate")
	}
	p.Meta.GeneratedAt = e.now().UTC()
	p.Meta.DurationMS = e.now().Sub(start).Milliseconds()
	p.Recommendations = recommend.Compose(p, e.rules, q.Language)
	e.observer.ObserveProfile(len(p.Warnings))

	id := e.persist(ctx, q, p)

	if e.cache != nil {
		if err := e.cache.Put(q.Text, q.Radius, p); err != nil {
			zap.L().Warn("profile: cache put failed", zap.Error(err))
		}
	}

	e.publish(ctx, id, q, p)
	return &Result{Profile: p}, nil
}

func (e *Engine) persist(ctx context.Context, q model.AddressQuery, p *model.PropertyProfile) string {
	if e.store == nil {
		return ""
	}
	id, err := e.store.SaveProfile(ctx, q.Text, q.Radius, p)
	if err != nil {
		zap.L().Warn("profile: persist failed",
			zap.String("address", q.Text),
			zap.Error(err),
		)
		return ""
	}
	p.Meta.ID = id
	return id
}

func (e *Engine) publish(ctx context.Context, id string, q model.AddressQuery, p *model.PropertyProfile) {
	ev := events.NewProfileGenerated(id, q.Text, q.Radius, p)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := e.publisher.Publish(pubCtx, ev); err != nil {
		zap.L().Warn("profile: publish failed",
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

func geocodeReason(err error) string {
	switch {
	case errors.Is(err, geocode.ErrAddressNotFound):
		return "not_found"
	case errors.Is(err, geocode.ErrGeocoderUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
