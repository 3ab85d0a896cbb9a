// Package source wraps each external data provider behind a uniform
// contract: given a resolved location, return a typed section or a typed
// failure. Nothing escapes an adapter as a panic or an error.
package source

import (
	"context"

	"github.com/sells-group/property-profile/internal/model"
)

// ParcelFunc returns the cadastral section of the request location. It
// blocks until the parcel lookup settles; a nil parcel means no section.
type ParcelFunc func(ctx context.Context) (*model.CadastralParcel, error)

// Input is what every adapter receives.
type Input struct {
	Location model.ResolvedLocation
	Radius   int
	Language string
	Parcel   ParcelFunc
}

// ParcelOrNil resolves the parcel, treating a missing ParcelFunc or a
// lookup error as "no section".
func (in Input) ParcelOrNil(ctx context.Context) *model.CadastralParcel {
	if in.Parcel == nil {
		return nil
	}
	p, err := in.Parcel(ctx)
	if err != nil {
		return nil
	}
	return p
}

// JSONGetter fetches and decodes a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, dst any) error
}

// Endpoints holds the base URL of every provider.
type Endpoints struct {
	Georisques string `yaml:"georisques" mapstructure:"georisques"`
	Energy     string `yaml:"energy" mapstructure:"energy"`
	Sales      string `yaml:"sales" mapstructure:"sales"`
	Education  string `yaml:"education" mapstructure:"education"`
	AirQuality string `yaml:"air_quality" mapstructure:"air_quality"`
	Overpass   string `yaml:"overpass" mapstructure:"overpass"`
	Safety     string `yaml:"safety" mapstructure:"safety"`
	Companies  string `yaml:"companies" mapstructure:"companies"`
}

// DefaultEndpoints returns the public production endpoints. Safety has no
// default: the crime statistics resource changes with every yearly release.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Georisques: "https://georisques.gouv.fr/api/v1",
		Energy:     "https://data.ademe.fr/data-fair/api/v1/datasets/dpe03existant",
		Sales:      "https://api.cquest.org/dvf",
		Education:  "https://data.education.gouv.fr/api/explore/v2.1/catalog/datasets/fr-en-annuaire-education",
		AirQuality: "https://air-quality-api.open-meteo.com/v1/air-quality",
		Overpass:   "https://overpass-api.de/api/interpreter",
		Companies:  "https://recherche-entreprises.api.gouv.fr",
	}
}

// withDefaults fills empty endpoints from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	pick := func(v, def string) string {
		if v != "" {
			return v
		}
		return def
	}
	return Endpoints{
		Georisques: pick(e.Georisques, d.Georisques),
		Energy:     pick(e.Energy, d.Energy),
		Sales:      pick(e.Sales, d.Sales),
		Education:  pick(e.Education, d.Education),
		AirQuality: pick(e.AirQuality, d.AirQuality),
		Overpass:   pick(e.Overpass, d.Overpass),
		Safety:     e.Safety,
		Companies:  pick(e.Companies, d.Companies),
	}
}
