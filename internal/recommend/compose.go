// Package recommend derives human-readable flags from a profile. Compose is
// pure: it reads only the profile and the rules.
package recommend

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/normalize"
)

// Compose returns the recommendations for p in language. Unavailable
// sections contribute nothing; a profile with every section unavailable
// yields an empty, non-nil list.
func Compose(p *model.PropertyProfile, rules Rules, language string) []model.Recommendation {
	out := make([]model.Recommendation, 0)
	if p == nil {
		return out
	}
	add := func(code, severity string, args ...any) {
		out = append(out, model.Recommendation{
			Code:     code,
			Severity: severity,
			Message:  message(code, language, args...),
		})
	}

	if p.Energy.Available() && p.Energy.Rating != "" {
		rating := strings.ToUpper(p.Energy.Rating)
		switch {
		case slices.Contains(rules.PoorEnergyRatings, rating):
			add(CodeEnergyPoor, model.SeverityWarning, rating)
		case slices.Contains(rules.GoodEnergyRatings, rating):
			add(CodeEnergyGood, model.SeverityPositive, rating)
		}
	}

	if p.Risks.Available() {
		for _, code := range hazardCodes(p.Risks.Hazards, rules.Hazards) {
			add(code, model.SeverityWarning)
		}
	}

	if p.AirQuality.Status == model.StatusOK && p.AirQuality.Index > rules.PoorAirQualityIndex {
		add(CodeAirQualityPoor, model.SeverityWarning, p.AirQuality.Index)
	}

	if p.Market.Available() {
		if n := len(p.Market.ExactMatches); n > 0 {
			add(CodeMarketOwnHistory, model.SeverityInfo, n)
		}
		if p.Market.Scope == model.ScopeNeighborhood {
			add(CodeMarketNeighborhood, model.SeverityInfo)
		}
		if p.Market.Count < rules.MinMarketSample {
			add(CodeMarketSmallSample, model.SeverityInfo, p.Market.Count)
		}
	}

	if p.Education.Available() {
		near := 0
		for _, s := range p.Education.Schools {
			if s.Distance <= rules.SchoolDistance {
				near++
			}
		}
		switch {
		case near > 0:
			add(CodeSchoolsNearby, model.SeverityPositive, near, rules.SchoolDistance)
		case len(p.Education.Schools) == 0:
			add(CodeSchoolsNone, model.SeverityInfo)
		}
	}

	if p.Amenities.Available() && p.Amenities.Total < rules.MinAmenities {
		add(CodeAmenitiesFew, model.SeverityInfo, p.Amenities.Total)
	}

	if p.Safety.Available() {
		if worst, ok := highestRate(p.Safety.Indicators); ok && worst.RatePerThousand > rules.HighCrimeRate {
			add(CodeCrimeHigh, model.SeverityWarning, worst.Category, worst.RatePerThousand)
		}
	}

	if p.Urbanism.Available() {
		for _, z := range p.Urbanism.Zones {
			if isRestrictedZone(z.Kind) {
				add(CodeZoneNotConstructible, model.SeverityWarning, z.Label)
				break
			}
		}
	}

	if p.Ownership.Available() {
		n := 0
		for _, c := range p.Ownership.Companies {
			if c.RealEstate && c.Distance <= rules.NearbyCompany {
				n++
			}
		}
		if n > 0 {
			add(CodeRealEstateCompany, model.SeverityInfo, n)
		}
	}

	return out
}

// hazardCodes returns each matching rule code once, in rule order.
func hazardCodes(hazards []model.Hazard, rules []HazardRule) []string {
	labels := make([]string, len(hazards))
	for i, h := range hazards {
		labels[i] = normalize.Fold(h.Label)
	}
	var codes []string
	for _, r := range rules {
		if matchesAny(labels, r.Keywords) {
			codes = append(codes, r.Code)
		}
	}
	return codes
}

func matchesAny(labels, keywords []string) bool {
	for _, l := range labels {
		for _, k := range keywords {
			if strings.Contains(l, normalize.Fold(k)) {
				return true
			}
		}
	}
	return false
}

func highestRate(indicators []model.CrimeIndicator) (model.CrimeIndicator, bool) {
	var worst model.CrimeIndicator
	found := false
	for _, ind := range indicators {
		if !found || ind.RatePerThousand > worst.RatePerThousand {
			worst, found = ind, true
		}
	}
	return worst, found
}

// isRestrictedZone reports agricultural ("A") and natural ("N") plan zones,
// including their sub-zones ("Ah", "Nzh").
func isRestrictedZone(kind string) bool {
	k := strings.ToUpper(strings.TrimSpace(kind))
	return (strings.HasPrefix(k, "A") && !strings.HasPrefix(k, "AU")) || strings.HasPrefix(k, "N")
}

func message(code, language string, args ...any) string {
	byLang := messages[code]
	tmpl, ok := byLang[language]
	if !ok {
		tmpl = byLang[LangFR]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
