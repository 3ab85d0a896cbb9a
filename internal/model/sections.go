package model

// Status tells consumers whether a section carries data.
type Status string

const (
	// StatusOK means the provider answered with data.
	StatusOK Status = "ok"
	// StatusEmpty means the provider answered but had nothing for this location.
	StatusEmpty Status = "empty"
	// StatusUnavailable means the provider could not be reached or decoded.
	StatusUnavailable Status = "unavailable"
)

// Section keys, in the order the coordinator merges them.
const (
	SectionRisks      = "risks"
	SectionEnergy     = "energy"
	SectionMarket     = "market"
	SectionEducation  = "education"
	SectionAirQuality = "air_quality"
	SectionAmenities  = "amenities"
	SectionSafety     = "safety"
	SectionOwnership  = "ownership"
	SectionUrbanism   = "urbanism"
)

// SectionNames lists every section key of a PropertyProfile.
var SectionNames = []string{
	SectionRisks,
	SectionEnergy,
	SectionMarket,
	SectionEducation,
	SectionAirQuality,
	SectionAmenities,
	SectionSafety,
	SectionOwnership,
	SectionUrbanism,
}

// SectionState is embedded in every section.
type SectionState struct {
	Status Status `json:"status"`
}

// Available reports whether the section was retrieved (possibly empty).
func (s SectionState) Available() bool { return s.Status == StatusOK || s.Status == StatusEmpty }

// StatusFor returns StatusOK when n > 0, StatusEmpty otherwise.
func StatusFor(n int) Status {
	if n > 0 {
		return StatusOK
	}
	return StatusEmpty
}

// Hazard is one natural or technological risk registered for the commune.
type Hazard struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// RiskSection lists registered hazards.
type RiskSection struct {
	SectionState
	Hazards []Hazard `json:"hazards"`
}

// EnergyDiagnostic is one energy performance certificate near the address.
type EnergyDiagnostic struct {
	ID             string  `json:"id"`
	Address        string  `json:"address"`
	EnergyRating   string  `json:"energy_rating"`
	ClimateRating  string  `json:"climate_rating"`
	ConsumptionKWh float64 `json:"consumption_kwh_m2"`
	Date           string  `json:"date"`
	Distance       float64 `json:"distance_m"`
}

// EnergySection lists diagnostics, nearest first.
type EnergySection struct {
	SectionState
	Diagnostics []EnergyDiagnostic `json:"diagnostics"`
	// Rating is the rating of the nearest diagnostic, empty when none.
	Rating string `json:"rating"`
}

// School is one entry of the schools directory.
type School struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Sector   string  `json:"sector"`
	Address  string  `json:"address"`
	Distance float64 `json:"distance_m"`
}

// EducationSection lists nearby schools, nearest first.
type EducationSection struct {
	SectionState
	Schools []School `json:"schools"`
}

// AirQualitySection holds the current air quality index and pollutants.
type AirQualitySection struct {
	SectionState
	Index int     `json:"index"`
	Level string  `json:"level"`
	PM10  float64 `json:"pm10"`
	PM25  float64 `json:"pm2_5"`
	NO2   float64 `json:"no2"`
	Ozone float64 `json:"o3"`
	AsOf  string  `json:"as_of"`
}

// PointOfInterest is one amenity near the address.
type PointOfInterest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Distance float64 `json:"distance_m"`
}

// AmenitiesSection summarizes points of interest within the radius.
type AmenitiesSection struct {
	SectionState
	Total      int               `json:"total"`
	ByCategory map[string]int    `json:"by_category"`
	Nearest    []PointOfInterest `json:"nearest"`
}

// CrimeIndicator is one recorded-offence statistic for the commune.
type CrimeIndicator struct {
	Category        string  `json:"category"`
	Year            int     `json:"year"`
	Facts           int     `json:"facts"`
	RatePerThousand float64 `json:"rate_per_thousand"`
}

// SafetySection lists the latest crime indicators for the commune.
type SafetySection struct {
	SectionState
	Indicators []CrimeIndicator `json:"indicators"`
}

// Company is one registered legal entity at or next to the address.
type Company struct {
	SIREN      string  `json:"siren"`
	Name       string  `json:"name"`
	LegalForm  string  `json:"legal_form"`
	Activity   string  `json:"activity"`
	Address    string  `json:"address"`
	Distance   float64 `json:"distance_m,omitempty"`
	RealEstate bool    `json:"real_estate"`
}

// OwnershipSection lists companies registered around the address.
type OwnershipSection struct {
	SectionState
	Companies []Company `json:"companies"`
}

// Zone is one urbanism plan zone covering the address.
type Zone struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Document    string `json:"document"`
}

// UrbanismSection lists plan zones covering the address.
type UrbanismSection struct {
	SectionState
	Zones []Zone `json:"zones"`
}
