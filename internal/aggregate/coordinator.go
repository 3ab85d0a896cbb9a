// Package aggregate fans a resolved location out to every source adapter
// and the parcel resolver, then folds the outcomes into one profile.
package aggregate

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/source"
)

// Defaults for the coordinator budgets.
const (
	DefaultBudget        = 30 * time.Second
	DefaultParcelTimeout = 10 * time.Second
)

// ParcelSection is the warning prefix of a failed parcel lookup.
const ParcelSection = "parcel"

var errParcelPanic = eris.New("aggregate: parcel lookup panicked")

// ParcelLookup resolves the cadastral section containing a point.
type ParcelLookup interface {
	Parcel(ctx context.Context, lat, lon float64) (*model.CadastralParcel, error)
}

// Recorder receives per-source observations. internal/metrics implements it.
type Recorder interface {
	ObserveSource(section, source, status string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSource(string, string, string, time.Duration) {}

// Coordinator runs one fan-out per profile.
type Coordinator struct {
	tasks         []source.Task
	parcels       ParcelLookup
	budget        time.Duration
	parcelTimeout time.Duration
	recorder      Recorder
	now           func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBudget sets the overall wall-clock budget of a fan-out.
func WithBudget(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.budget = d
		}
	}
}

// WithParcelTimeout bounds the parcel lookup.
func WithParcelTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.parcelTimeout = d
		}
	}
}

// WithRecorder sets the observation sink.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// New creates a Coordinator. parcels may be nil, in which case every
// request runs in neighborhood-only mode.
func New(tasks []source.Task, parcels ParcelLookup, opts ...Option) *Coordinator {
	c := &Coordinator{
		tasks:         tasks,
		parcels:       parcels,
		budget:        DefaultBudget,
		parcelTimeout: DefaultParcelTimeout,
		recorder:      nopRecorder{},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sections returns the section keys of the configured tasks.
func (c *Coordinator) Sections() []string {
	out := make([]string, len(c.tasks))
	for i, t := range c.tasks {
		out[i] = t.Section
	}
	return out
}

// Run fans out to every task and the parcel resolver and returns the
// merged profile. It never fails: every adapter failure, including a task
// still running when the budget expires, becomes a warning and leaves its
// section typed-empty. Tasks cut short because the caller's ctx ended are
// reported as canceled rather than timed out.
func (c *Coordinator) Run(parent context.Context, in source.Input) *model.PropertyProfile {
	start := c.now()
	ctx, cancel := context.WithTimeout(parent, c.budget)
	defer cancel()

	parcel := c.startParcel(ctx, in.Location)
	in.Parcel = parcel.Get

	var (
		mu      sync.Mutex
		closed  bool
		results = make([]*source.Result, len(c.tasks))
	)

	var g errgroup.Group
	for i, task := range c.tasks {
		i, task := i, task
		g.Go(func() error {
			res := task.Run(ctx, in)
			mu.Lock()
			defer mu.Unlock()
			if !closed {
				results[i] = &res
			}
			return nil
		})
	}

	settled := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(settled)
	}()

	select {
	case <-settled:
	case <-ctx.Done():
	}
	select {
	case <-parcel.done:
	case <-ctx.Done():
	}

	canceled := parent.Err() != nil

	mu.Lock()
	closed = true
	final := make([]source.Result, len(c.tasks))
	for i, task := range c.tasks {
		switch {
		case results[i] != nil:
			final[i] = *results[i]
		case canceled:
			final[i] = task.Canceled(c.now().Sub(start))
		default:
			final[i] = task.TimedOut(c.now().Sub(start))
		}
	}
	mu.Unlock()

	p := model.NewProfile(in.Location)
	p.Parcel, p.Warnings = parcel.settle(p.Warnings, canceled)

	failed := 0
	for _, res := range final {
		status := "ok"
		if res.Failure != nil {
			failed++
			status = res.Failure.Cause
			p.Warnings = append(p.Warnings, res.Failure.Warning(res.Section))
		} else {
			res.Merge(p)
			p.Provenance = append(p.Provenance, res.Provenance)
		}
		c.recorder.ObserveSource(res.Section, res.Source, status, res.Duration)
	}

	elapsed := c.now().Sub(start)
	p.Meta = model.Meta{GeneratedAt: c.now().UTC(), DurationMS: elapsed.Milliseconds()}

	zap.L().Info("aggregate: profile assembled",
		zap.String("address", in.Location.Label),
		zap.Int("sources", len(final)),
		zap.Int("failed", failed),
		zap.Bool("parcel", p.Parcel != nil),
		zap.Bool("canceled", canceled),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return p
}

// parcelFuture is the parcel lookup running alongside the adapters.
type parcelFuture struct {
	done   chan struct{}
	parcel *model.CadastralParcel
	err    error
}

func (c *Coordinator) startParcel(ctx context.Context, loc model.ResolvedLocation) *parcelFuture {
	f := &parcelFuture{done: make(chan struct{})}
	if c.parcels == nil {
		close(f.done)
		return f
	}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("aggregate: parcel lookup panic", zap.Any("panic", r))
				f.parcel, f.err = nil, errParcelPanic
			}
		}()
		pctx, cancel := context.WithTimeout(ctx, c.parcelTimeout)
		defer cancel()
		f.parcel, f.err = c.parcels.Parcel(pctx, loc.Latitude, loc.Longitude)
	}()
	return f
}

// Get blocks until the lookup settles or ctx is done.
func (f *parcelFuture) Get(ctx context.Context) (*model.CadastralParcel, error) {
	select {
	case <-f.done:
		return f.parcel, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settle returns the parcel and appends a warning when the lookup failed
// or had not finished. It must be called after the budget wait.
func (f *parcelFuture) settle(warnings []string, canceled bool) (*model.CadastralParcel, []string) {
	select {
	case <-f.done:
	default:
		fail := model.Failure{Cause: source.CauseTimeout, Message: "cadastre exceeded the request budget"}
		if canceled {
			fail = model.Failure{Cause: source.CauseCanceled, Message: "request canceled before cadastre answered"}
		}
		return nil, append(warnings, fail.Warning(ParcelSection))
	}
	if f.err != nil {
		fail := source.Classify("cadastre", f.err)
		return nil, append(warnings, fail.Warning(ParcelSection))
	}
	return f.parcel, warnings
}
