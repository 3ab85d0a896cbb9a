package source

import (
	"time"

	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/reconcile"
)

// Deps are the shared collaborators of the adapters.
type Deps struct {
	Getter    JSONGetter
	Zones     ZoneLookup
	Endpoints Endpoints
	Bounds    reconcile.Bounds
	// Timeout bounds each adapter call.
	Timeout time.Duration
}

// Tasks returns one task per profile section, in section order.
func Tasks(d Deps) []Task {
	e := d.Endpoints.withDefaults()
	return []Task{
		Bind(NewRisks(d.Getter, e.Georisques), d.Timeout, func(p *model.PropertyProfile, v model.RiskSection) { p.Risks = v }),
		Bind(NewEnergy(d.Getter, e.Energy), d.Timeout, func(p *model.PropertyProfile, v model.EnergySection) { p.Energy = v }),
		Bind(NewMarket(d.Getter, e.Sales, d.Bounds), d.Timeout, func(p *model.PropertyProfile, v model.MarketSummary) { p.Market = v }),
		Bind(NewEducation(d.Getter, e.Education), d.Timeout, func(p *model.PropertyProfile, v model.EducationSection) { p.Education = v }),
		Bind(NewAirQuality(d.Getter, e.AirQuality), d.Timeout, func(p *model.PropertyProfile, v model.AirQualitySection) { p.AirQuality = v }),
		Bind(NewAmenities(d.Getter, e.Overpass), d.Timeout, func(p *model.PropertyProfile, v model.AmenitiesSection) { p.Amenities = v }),
		Bind(NewSafety(d.Getter, e.Safety), d.Timeout, func(p *model.PropertyProfile, v model.SafetySection) { p.Safety = v }),
		Bind(NewOwnership(d.Getter, e.Companies), d.Timeout, func(p *model.PropertyProfile, v model.OwnershipSection) { p.Ownership = v }),
		Bind(NewUrbanism(d.Zones), d.Timeout, func(p *model.PropertyProfile, v model.UrbanismSection) { p.Urbanism = v }),
	}
}
