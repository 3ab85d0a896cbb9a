package geocode

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/resilience"
)

// Attempt is the tagged result of one strategy.
type Attempt struct {
	Strategy   Strategy      `json:"strategy"`
	Candidates int           `json:"candidates"`
	Err        error         `json:"-"`
	Duration   time.Duration `json:"duration"`
}

// Resolution is the outcome of Resolve. Source is the provider name and
// Strategy the name of the strategy whose first candidate was kept.
type Resolution struct {
	Location model.ResolvedLocation
	Source   string
	Strategy string
	Attempts []Attempt
}

// Resolver walks the strategy list against a Provider until one yields a
// candidate.
type Resolver struct {
	provider Provider
}

// NewResolver creates a Resolver.
func NewResolver(p Provider) *Resolver {
	return &Resolver{provider: p}
}

// Resolve geocodes text. The next strategy is tried only when the previous
// one returned zero candidates. A provider error stops the walk: a 4xx
// rejection of the query is ErrAddressNotFound, anything else is
// ErrGeocoderUnavailable. The first candidate is authoritative.
func (r *Resolver) Resolve(ctx context.Context, text string) (*Resolution, error) {
	res := &Resolution{Source: r.provider.Name()}

	for _, s := range Strategies(text) {
		start := time.Now()
		cands, err := r.provider.Search(ctx, s.Query)
		res.Attempts = append(res.Attempts, Attempt{
			Strategy:   s,
			Candidates: len(cands),
			Err:        err,
			Duration:   time.Since(start),
		})

		if err != nil {
			if ctx.Err() != nil {
				return res, eris.Wrap(ctx.Err(), "geocode: resolve")
			}
			if rejected(err) {
				zap.L().Info("geocode: query rejected",
					zap.String("provider", r.provider.Name()),
					zap.String("strategy", s.Name),
					zap.Error(err),
				)
				return res, eris.Wrapf(ErrAddressNotFound, "%q: %v", text, err)
			}
			zap.L().Warn("geocode: provider error",
				zap.String("provider", r.provider.Name()),
				zap.String("strategy", s.Name),
				zap.Error(err),
			)
			return res, eris.Wrapf(ErrGeocoderUnavailable, "%s: %v", r.provider.Name(), err)
		}
		if len(cands) == 0 {
			zap.L().Debug("geocode: no candidates",
				zap.String("strategy", s.Name),
				zap.String("query", s.Query),
			)
			continue
		}

		res.Location = toLocation(cands[0])
		res.Strategy = s.Name
		return res, nil
	}

	return res, eris.Wrapf(ErrAddressNotFound, "%q", text)
}

// rejected reports whether the provider refused the query itself, as
// opposed to failing to serve it.
func rejected(err error) bool {
	var se *resilience.StatusError
	if !errors.As(err, &se) || se.Transient() {
		return false
	}
	return se.StatusCode >= http.StatusBadRequest && se.StatusCode < http.StatusInternalServerError
}

func toLocation(c Candidate) model.ResolvedLocation {
	return model.ResolvedLocation{
		Label:       c.Label,
		HouseNumber: c.HouseNumber,
		Street:      c.Street,
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
		CommuneCode: c.CommuneCode,
		PostalCode:  c.PostalCode,
		City:        c.City,
		Department:  c.Department,
		Region:      c.Region,
		Score:       c.Score,
	}
}
