package source

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/property-profile/internal/model"
)

// Adapter fetches one profile section from one provider.
type Adapter[T any] interface {
	Section() string
	Source() string
	Fetch(ctx context.Context, in Input) Outcome[T]
}

// ParcelWaiter is implemented by adapters that need the cadastral section
// before they can query their provider. The parcel wait is bounded by the
// overall budget only; the adapter timeout starts once the parcel settles.
type ParcelWaiter interface {
	WaitsForParcel() bool
}

// Result is the type-erased outcome of a Task.
type Result struct {
	Section    string
	Source     string
	Provenance model.Provenance
	Failure    *model.Failure
	Duration   time.Duration
	apply      func(*model.PropertyProfile)
}

// Merge writes a successful result into p. Failed results leave the
// section in its typed-empty shape.
func (r Result) Merge(p *model.PropertyProfile) {
	if r.Failure == nil && r.apply != nil {
		r.apply(p)
	}
}

// Task is an adapter bound to the profile section it fills.
type Task struct {
	Section string
	Source  string
	Run     func(ctx context.Context, in Input) Result
}

// TimedOut returns the result recorded for a task that had not settled
// when the overall budget expired.
func (t Task) TimedOut(elapsed time.Duration) Result {
	return Result{
		Section:  t.Section,
		Source:   t.Source,
		Failure:  &model.Failure{Cause: CauseTimeout, Message: t.Source + " exceeded the request budget"},
		Duration: elapsed,
	}
}

// Canceled returns the result recorded for a task that had not settled
// when the caller abandoned the request.
func (t Task) Canceled(elapsed time.Duration) Result {
	return Result{
		Section:  t.Section,
		Source:   t.Source,
		Failure:  &model.Failure{Cause: CauseCanceled, Message: "request canceled before " + t.Source + " answered"},
		Duration: elapsed,
	}
}

// Bind erases the adapter's type. The returned task applies timeout to each
// call, recovers panics and converts them into failures, and merges a
// success through set.
func Bind[T any](a Adapter[T], timeout time.Duration, set func(*model.PropertyProfile, T)) Task {
	section, src := a.Section(), a.Source()
	pw, waits := any(a).(ParcelWaiter)
	waits = waits && pw.WaitsForParcel()
	return Task{
		Section: section,
		Source:  src,
		Run: func(ctx context.Context, in Input) (res Result) {
			start := time.Now()
			res = Result{Section: section, Source: src}

			defer func() {
				if r := recover(); r != nil {
					zap.L().Error("source: adapter panic",
						zap.String("section", section),
						zap.String("source", src),
						zap.String("panic", fmt.Sprint(r)),
					)
					res.Failure = &model.Failure{Cause: CausePanic, Message: src + " failed unexpectedly"}
					res.apply = nil
				}
				res.Duration = time.Since(start)
			}()

			if waits && in.Parcel != nil {
				parcel, err := in.Parcel(ctx)
				in.Parcel = func(context.Context) (*model.CadastralParcel, error) { return parcel, err }
			}

			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			out := a.Fetch(ctx, in)
			if out.Failure != nil {
				if ctx.Err() == context.DeadlineExceeded && out.Failure.Cause != CauseTimeout {
					out.Failure = &model.Failure{Cause: CauseTimeout, Message: src + " did not answer in time"}
				}
				res.Failure = out.Failure
				return res
			}

			prov := out.Provenance
			prov.Section = section
			if prov.Source == "" {
				prov.Source = src
			}
			if prov.Timestamp.IsZero() {
				prov.Timestamp = time.Now().UTC()
			}
			res.Provenance = prov
			value := out.Value
			res.apply = func(p *model.PropertyProfile) { set(p, value) }
			return res
		},
	}
}
