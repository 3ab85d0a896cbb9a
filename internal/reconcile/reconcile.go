// Package reconcile separates a property's own sale history from the
// neighborhood sample of its cadastral section.
//
// There is no canonical street identifier shared between the geocoder and
// the sales registry, so street equality is a heuristic: normalized street
// tokens match when either contains the other. It tolerates abbreviated or
// partial names and can produce false positives on streets whose names
// nest ("rue de paris" / "rue de parisot").
package reconcile

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/normalize"
)

// Bounds are the plausibility filters applied to raw transactions. The
// defaults are empirical and meant to be overridden through configuration.
type Bounds struct {
	MinPricePerArea float64 `yaml:"min_price_per_area" mapstructure:"min_price_per_area"`
	MaxPricePerArea float64 `yaml:"max_price_per_area" mapstructure:"max_price_per_area"`
	MinSurface      float64 `yaml:"min_surface" mapstructure:"min_surface"`
}

// DefaultBounds returns the default plausibility bounds.
func DefaultBounds() Bounds {
	return Bounds{
		MinPricePerArea: 500,
		MaxPricePerArea: 30000,
		MinSurface:      9,
	}
}

// Plausible reports whether t is an ordinary sale with a positive price, a
// living surface above MinSurface and a price per area within bounds.
func (b Bounds) Plausible(t model.TransactionRecord) bool {
	if !strings.EqualFold(strings.TrimSpace(t.Nature), model.NatureSale) {
		return false
	}
	if t.Price <= 0 || t.Surface <= b.MinSurface {
		return false
	}
	ppa := t.PricePerArea()
	return ppa >= b.MinPricePerArea && ppa <= b.MaxPricePerArea
}

// Filter returns the plausible records in their original order. Filtering an
// already filtered slice returns an identical slice.
func (b Bounds) Filter(records []model.TransactionRecord) []model.TransactionRecord {
	out := make([]model.TransactionRecord, 0, len(records))
	for _, r := range records {
		if b.Plausible(r) {
			out = append(out, r)
		}
	}
	return out
}

// Query describes the queried property for matching.
type Query struct {
	HouseNumber    int
	HasHouseNumber bool
	StreetToken    string
	// ExactEnabled is false when the cadastral section could not be
	// resolved; every record is then a neighborhood sample.
	ExactEnabled bool
}

// NewQuery builds a Query from a resolved location.
func NewQuery(loc model.ResolvedLocation, sectionResolved bool) Query {
	n, ok := ParseHouseNumber(loc.HouseNumber)
	return Query{
		HouseNumber:    n,
		HasHouseNumber: ok,
		StreetToken:    normalize.StreetToken(loc.Street),
		ExactEnabled:   sectionResolved,
	}
}

// ParseHouseNumber returns the leading integer of s ("12bis" -> 12).
func ParseHouseNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// StreetMatches reports whether two normalized street tokens refer to the
// same street: either one contains the other. Empty tokens never match.
func StreetMatches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Classify labels a plausible record relative to q.
func Classify(q Query, t model.TransactionRecord) model.MatchKind {
	if !q.ExactEnabled {
		return model.MatchNeighborhood
	}
	if !StreetMatches(q.StreetToken, normalize.StreetToken(t.StreetName)) {
		return model.MatchNeighborhood
	}
	if !q.HasHouseNumber {
		return model.MatchSameStreet
	}
	n, ok := ParseHouseNumber(t.StreetNumber)
	if ok && n == q.HouseNumber {
		return model.MatchExact
	}
	return model.MatchNeighborhood
}

// Reconcile filters, classifies and summarizes raw transactions for q.
func Reconcile(records []model.TransactionRecord, q Query, b Bounds) model.MarketSummary {
	filtered := b.Filter(records)

	all := make([]model.ClassifiedTransaction, 0, len(filtered))
	exact := make([]model.ClassifiedTransaction, 0)
	var sum float64
	for _, r := range filtered {
		ct := model.ClassifiedTransaction{
			TransactionRecord: r,
			Match:             Classify(q, r),
			PricePerArea:      math.Round(r.PricePerArea()),
		}
		sum += r.PricePerArea()
		all = append(all, ct)
		if ct.Match == model.MatchExact {
			exact = append(exact, ct)
		}
	}

	byDateDesc(all)
	byDateDesc(exact)

	summary := model.MarketSummary{
		SectionState: model.SectionState{Status: model.StatusFor(len(all))},
		Scope:        model.ScopeNeighborhood,
		Count:        len(all),
		ExactMatches: exact,
		Transactions: all,
		Excluded:     len(records) - len(filtered),
	}
	if q.ExactEnabled {
		summary.Scope = model.ScopeSection
	}
	if len(all) > 0 {
		summary.AveragePricePerArea = math.Round(sum / float64(len(all)))
	}
	summary.LastSale = LastSale(exact, all)
	return summary
}

// LastSale picks the representative sale: the most recent exact match,
// otherwise the most recent neighborhood record, otherwise nil. Both slices
// must already be sorted by date descending.
func LastSale(exact, all []model.ClassifiedTransaction) *model.ClassifiedTransaction {
	var pick model.ClassifiedTransaction
	switch {
	case len(exact) > 0:
		pick = exact[0]
	case len(all) > 0:
		pick = all[0]
	default:
		return nil
	}
	return &pick
}

func byDateDesc(ts []model.ClassifiedTransaction) {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].Date.After(ts[j].Date)
	})
}
