package recommend

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules are the thresholds the composer applies.
type Rules struct {
	PoorEnergyRatings   []string     `yaml:"poor_energy_ratings"`
	GoodEnergyRatings   []string     `yaml:"good_energy_ratings"`
	PoorAirQualityIndex int          `yaml:"poor_air_quality_index"`
	MinMarketSample     int          `yaml:"min_market_sample"`
	SchoolDistance      float64      `yaml:"school_distance_m"`
	MinAmenities        int          `yaml:"min_amenities"`
	HighCrimeRate       float64      `yaml:"high_crime_rate_per_thousand"`
	NearbyCompany       float64      `yaml:"nearby_company_m"`
	Hazards             []HazardRule `yaml:"hazards"`
}

// HazardRule flags a registered hazard whose folded label contains one of
// Keywords.
type HazardRule struct {
	Code     string   `yaml:"code"`
	Keywords []string `yaml:"keywords"`
}

// DefaultRules returns the built-in thresholds.
func DefaultRules() Rules {
	return Rules{
		PoorEnergyRatings:   []string{"F", "G"},
		GoodEnergyRatings:   []string{"A", "B"},
		PoorAirQualityIndex: 60,
		MinMarketSample:     5,
		SchoolDistance:      500,
		MinAmenities:        5,
		HighCrimeRate:       10,
		NearbyCompany:       25,
		Hazards: []HazardRule{
			{Code: CodeRiskFlood, Keywords: []string{"inondation", "submersion", "crue"}},
			{Code: CodeRiskSeismic, Keywords: []string{"seisme"}},
			{Code: CodeRiskGround, Keywords: []string{"mouvement de terrain", "retrait-gonflement", "cavite", "affaissement"}},
			{Code: CodeRiskIndustrial, Keywords: []string{"industriel", "nucleaire", "rupture de barrage", "matieres dangereuses", "marchandises dangereuses"}},
			{Code: CodeRiskRadon, Keywords: []string{"radon"}},
		},
	}
}

// LoadRules reads rules from a YAML file with a top-level
// "recommendations" key. Fields absent from the file keep their defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, eris.Wrapf(err, "recommend: read rules %s", path)
	}

	wrapper := struct {
		Recommendations *Rules `yaml:"recommendations"`
	}{Recommendations: &rules}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return DefaultRules(), eris.Wrap(err, "recommend: parse rules")
	}
	return rules, nil
}
