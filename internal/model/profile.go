package model

import "time"

// Recommendation is one human-readable flag derived from a profile.
type Recommendation struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Severity levels used by recommendations.
const (
	SeverityInfo     = "info"
	SeverityPositive = "positive"
	SeverityWarning  = "warning"
)

// Meta holds generation metadata.
type Meta struct {
	ID          string    `json:"id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// PropertyProfile is the aggregate result for one address.
type PropertyProfile struct {
	Location        ResolvedLocation  `json:"location"`
	Parcel          *CadastralParcel  `json:"parcel"`
	Risks           RiskSection       `json:"risks"`
	Energy          EnergySection     `json:"energy"`
	Market          MarketSummary     `json:"market"`
	Education       EducationSection  `json:"education"`
	AirQuality      AirQualitySection `json:"air_quality"`
	Amenities       AmenitiesSection  `json:"amenities"`
	Safety          SafetySection     `json:"safety"`
	Ownership       OwnershipSection  `json:"ownership"`
	Urbanism        UrbanismSection   `json:"urbanism"`
	Recommendations []Recommendation  `json:"recommendations"`
	Warnings        []string          `json:"warnings"`
	Provenance      []Provenance      `json:"provenance"`
	Meta            Meta              `json:"meta"`
}

// NewProfile returns a profile for loc with every section in its
// unavailable, typed-empty shape.
func NewProfile(loc ResolvedLocation) *PropertyProfile {
	unavailable := SectionState{Status: StatusUnavailable}
	return &PropertyProfile{
		Location:  loc,
		Risks:     RiskSection{SectionState: unavailable, Hazards: []Hazard{}},
		Energy:    EnergySection{SectionState: unavailable, Diagnostics: []EnergyDiagnostic{}},
		Market:    EmptyMarket(),
		Education: EducationSection{SectionState: unavailable, Schools: []School{}},
		AirQuality: AirQualitySection{
			SectionState: unavailable,
		},
		Amenities: AmenitiesSection{
			SectionState: unavailable,
			ByCategory:   map[string]int{},
			Nearest:      []PointOfInterest{},
		},
		Safety:          SafetySection{SectionState: unavailable, Indicators: []CrimeIndicator{}},
		Ownership:       OwnershipSection{SectionState: unavailable, Companies: []Company{}},
		Urbanism:        UrbanismSection{SectionState: unavailable, Zones: []Zone{}},
		Recommendations: []Recommendation{},
		Warnings:        []string{},
		Provenance:      []Provenance{},
	}
}

// EmptyMarket returns the unavailable market summary.
func EmptyMarket() MarketSummary {
	return MarketSummary{
		SectionState: SectionState{Status: StatusUnavailable},
		Scope:        ScopeNeighborhood,
		ExactMatches: []ClassifiedTransaction{},
		Transactions: []ClassifiedTransaction{},
	}
}

// SectionStatuses returns the status of every section keyed by section name.
func (p *PropertyProfile) SectionStatuses() map[string]Status {
	return map[string]Status{
		SectionRisks:      p.Risks.Status,
		SectionEnergy:     p.Energy.Status,
		SectionMarket:     p.Market.Status,
		SectionEducation:  p.Education.Status,
		SectionAirQuality: p.AirQuality.Status,
		SectionAmenities:  p.Amenities.Status,
		SectionSafety:     p.Safety.Status,
		SectionOwnership:  p.Ownership.Status,
		SectionUrbanism:   p.Urbanism.Status,
	}
}
