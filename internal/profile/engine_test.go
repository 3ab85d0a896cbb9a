package profile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/property-profile/internal/aggregate"
	"github.com/sells-group/property-profile/internal/cache"
	"github.com/sells-group/property-profile/internal/events"
	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/recommend"
	"github.com/sells-group/property-profile/internal/source"
	"github.com/sells-group/property-profile/internal/store"
	"github.com/sells-group/property-profile/pkg/geocode"
)

type fakeGeocoder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeGeocoder) Resolve(_ context.Context, text string) (*geocode.Resolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &geocode.Resolution{
		Location: model.ResolvedLocation{Label: "12 Rue Exemple 75001 Paris", CommuneCode: "75101"},
		Source:   "ban",
		Strategy: geocode.StrategyAsTyped,
	}, nil
}

type fakeAggregator struct {
	mu    sync.Mutex
	calls int
	last  source.Input
}

func (f *fakeAggregator) Run(_ context.Context, in source.Input) *model.PropertyProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = in
	p := model.NewProfile(in.Location)
	p.Energy.Status = model.StatusOK
	p.Energy.Rating = "G"
	p.Warnings = append(p.Warnings, "safety: no endpoint configured (not_configured)")
	return p
}

type fakeStore struct {
	store.Store
	saved []string
	err   error
}

func (f *fakeStore) SaveProfile(_ context.Context, address string, _ int, _ *model.PropertyProfile) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, address)
	return "id-" + address, nil
}

type fakePublisher struct {
	events []events.ProfileGenerated
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev events.ProfileGenerated) error {
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

type fakeObserver struct {
	hits, misses int
	failures     []string
	profiles     int
}

func (f *fakeObserver) ObserveCache(hit bool) {
	if hit {
		f.hits++
	} else {
		f.misses++
	}
}
func (f *fakeObserver) ObserveGeocodeFailure(reason string) { f.failures = append(f.failures, reason) }
func (f *fakeObserver) ObserveProfile(int)                  { f.profiles++ }

func query(text string) model.AddressQuery {
	return model.AddressQuery{Text: text, Radius: model.DefaultRadius}
}

func newCache() *cache.ProfileCache {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return cache.New(cache.DefaultTTL, func() time.Time { return now })
}

func TestEngine_BuildMissThenHit(t *testing.T) {
	geo := &fakeGeocoder{}
	agg := &fakeAggregator{}
	obs := &fakeObserver{}
	e := New(geo, agg, WithCache(newCache()), WithObserver(obs))

	first, err := e.Build(context.Background(), query("12 rue Exemple, Paris"))
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 1500, agg.last.Radius)
	assert.Equal(t, "fr", agg.last.Language)
	require.Len(t, first.Profile.Recommendations, 1)
	assert.Equal(t, recommend.CodeEnergyPoor, first.Profile.Recommendations[0].Code)

	second, err := e.Build(context.Background(), query("  12 RUE exemple  paris "))
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, 1, agg.calls)
	assert.Equal(t, first.Profile.Warnings, second.Profile.Warnings)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
	assert.Equal(t, 1, obs.profiles)
}

func TestEngine_CacheHitRecomposesLanguage(t *testing.T) {
	e := New(&fakeGeocoder{}, &fakeAggregator{}, WithCache(newCache()))

	fr, err := e.Build(context.Background(), query("12 rue Exemple, Paris"))
	require.NoError(t, err)

	q := query("12 rue Exemple, Paris")
	q.Language = "EN"
	en, err := e.Build(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, en.CacheHit)
	require.Len(t, en.Profile.Recommendations, 1)
	assert.NotEqual(t, fr.Profile.Recommendations[0].Message, en.Profile.Recommendations[0].Message)
}

func TestEngine_BypassCache(t *testing.T) {
	geo := &fakeGeocoder{}
	c := newCache()
	e := New(geo, &fakeAggregator{}, WithCache(c))

	_, err := e.Build(context.Background(), query("12 rue Exemple, Paris"))
	require.NoError(t, err)

	q := query("12 rue Exemple, Paris")
	q.BypassCache = true
	res, err := e.Build(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, 2, geo.calls)
	assert.Equal(t, 1, c.Len())
}

func TestEngine_InvalidQuery(t *testing.T) {
	geo := &fakeGeocoder{}
	e := New(geo, &fakeAggregator{})

	_, err := e.Build(context.Background(), model.AddressQuery{Text: "  ", Radius: 1500})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "address", verr.Field)

	_, err = e.Build(context.Background(), model.AddressQuery{Text: "12 rue Exemple", Radius: 50})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "radius", verr.Field)
	assert.Equal(t, "radius must be at least 100", verr.Message)

	assert.Zero(t, geo.calls)
}

func TestEngine_AddressNotFound(t *testing.T) {
	geo := &fakeGeocoder{err: eris.Wrapf(geocode.ErrAddressNotFound, "%q", "nowhere")}
	agg := &fakeAggregator{}
	c := newCache()
	obs := &fakeObserver{}
	e := New(geo, agg, WithCache(c), WithObserver(obs))

	_, err := e.Build(context.Background(), query("nowhere"))
	require.Error(t, err)
	assert.ErrorIs(t, err, geocode.ErrAddressNotFound)
	assert.Zero(t, agg.calls)
	assert.Zero(t, c.Len())
	assert.Equal(t, []string{"not_found"}, obs.failures)
}

func TestEngine_PersistAndPublish(t *testing.T) {
	st := &fakeStore{}
	pub := &fakePublisher{}
	e := New(&fakeGeocoder{}, &fakeAggregator{}, WithStore(st), WithPublisher(pub))

	res, err := e.Build(context.Background(), query("12 rue Exemple, Paris"))
	require.NoError(t, err)
	assert.Equal(t, "id-12 rue Exemple, Paris", res.Profile.Meta.ID)
	require.Len(t, pub.events, 1)
	assert.Equal(t, res.Profile.Meta.ID, pub.events[0].ID)
	assert.Equal(t, 1, pub.events[0].WarningCount)
}

func TestEngine_SideEffectFailuresDoNotFailRequest(t *testing.T) {
	st := &fakeStore{err: errors.New("disk full")}
	pub := &fakePublisher{err: errors.New("broker down")}
	e := New(&fakeGeocoder{}, &fakeAggregator{}, WithStore(st), WithPublisher(pub))

	res, err := e.Build(context.Background(), query("12 rue Exemple, Paris"))
	require.NoError(t, err)
	assert.Empty(t, res.Profile.Meta.ID)
	require.Len(t, pub.events, 1)
	assert.Empty(t, pub.events[0].ID)
}

func blockingEnergy() source.Task {
	return source.Task{
		Section: model.SectionEnergy,
		Source:  "ademe_dpe",
		Run: func(ctx context.Context, _ source.Input) source.Result {
			<-ctx.Done()
			return source.Result{
				Section: model.SectionEnergy,
				Source:  "ademe_dpe",
				Failure: &model.Failure{Cause: source.CauseTimeout, Message: "ademe_dpe did not answer in time"},
			}
		},
	}
}

func TestEngine_CanceledBuildHasNoSideEffects(t *testing.T) {
	c := newCache()
	st := &fakeStore{}
	pub := &fakePublisher{}
	obs := &fakeObserver{}
	agg := aggregate.New([]source.Task{blockingEnergy()}, nil, aggregate.WithBudget(200*time.Millisecond))
	e := New(&fakeGeocoder{}, agg, WithCache(c), WithStore(st), WithPublisher(pub), WithObserver(obs))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)
	res, err := e.Build(ctx, query("12 rue Exemple, Paris"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
	assert.Zero(t, c.Len())
	assert.Empty(t, st.saved)
	assert.Empty(t, pub.events)
	assert.Zero(t, obs.profiles)

	again, err := e.Build(context.Background(), query("12 rue Exemple, Paris"))
	require.NoError(t, err)
	assert.False(t, again.CacheHit)
	require.Len(t, again.Profile.Warnings, 1)
	assert.Contains(t, again.Profile.Warnings[0], "(timeout)")
	assert.Equal(t, 1, c.Len())
}

func TestEngine_CanceledBeforeAggregationEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newCache()
	e := New(&fakeGeocoder{}, &fakeAggregator{}, WithCache(c))

	_, err := e.Build(ctx, query("12 rue Exemple, Paris"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, c.Len())
}

type slowGeocoder struct {
	fakeGeocoder
	clock *time.Time
}

func (g *slowGeocoder) Resolve(ctx context.Context, text string) (*geocode.Resolution, error) {
	*g.clock = g.clock.Add(400 * time.Millisecond)
	return g.fakeGeocoder.Resolve(ctx, text)
}

func TestEngine_MetaCoversWholeRequest(t *testing.T) {
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e := New(&slowGeocoder{clock: &clock}, &fakeAggregator{})
	e.now = func() time.Time { return clock }

	res, err := e.Build(context.Background(), query("12 rue Exemple, Paris"))
	require.NoError(t, err)
	assert.Equal(t, int64(400), res.Profile.Meta.DurationMS)
	assert.Equal(t, clock, res.Profile.Meta.GeneratedAt)
}

func TestGeocodeReason(t *testing.T) {
	assert.Equal(t, "not_found", geocodeReason(eris.Wrap(geocode.ErrAddressNotFound, "x")))
	assert.Equal(t, "unavailable", geocodeReason(eris.Wrap(geocode.ErrGeocoderUnavailable, "x")))
	assert.Equal(t, "canceled", geocodeReason(context.Canceled))
	assert.Equal(t, "error", geocodeReason(errors.New("other")))
}
