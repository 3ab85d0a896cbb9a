package source

import (
	"context"

	"github.com/sells-group/property-profile/internal/model"
)

// ZoneLookup is the part of the cadastre client the urbanism adapter uses.
type ZoneLookup interface {
	Zones(ctx context.Context, lat, lon float64) ([]model.Zone, error)
	ZonesURL(lat, lon float64) (string, error)
}

// Urbanism lists the urbanism plan zones covering the address.
type Urbanism struct {
	zones ZoneLookup
}

// NewUrbanism creates the urbanism adapter.
func NewUrbanism(zones ZoneLookup) *Urbanism {
	return &Urbanism{zones: zones}
}

// Section implements Adapter.
func (a *Urbanism) Section() string { return model.SectionUrbanism }

// Source implements Adapter.
func (a *Urbanism) Source() string { return "gpu" }

// Fetch implements Adapter.
func (a *Urbanism) Fetch(ctx context.Context, in Input) Outcome[model.UrbanismSection] {
	loc := in.Location
	zones, err := a.zones.Zones(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return FailErr[model.UrbanismSection](a.Source(), err)
	}
	if zones == nil {
		zones = []model.Zone{}
	}
	reqURL, _ := a.zones.ZonesURL(loc.Latitude, loc.Longitude)
	return Success(model.UrbanismSection{
		SectionState: model.SectionState{Status: model.StatusFor(len(zones))},
		Zones:        zones,
	}, a.Source(), reqURL)
}
