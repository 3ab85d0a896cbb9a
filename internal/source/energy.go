package source

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/sells-group/property-profile/internal/fetcher"
	"github.com/sells-group/property-profile/internal/model"
)

// energyRadius caps the diagnostic search: certificates further away say
// little about the queried building.
const energyRadius = 300

type dpeResponse struct {
	Total   int `json:"total"`
	Results []struct {
		NumeroDPE    string    `json:"numero_dpe"`
		AdresseBan   string    `json:"adresse_ban"`
		EtiquetteDPE string    `json:"etiquette_dpe"`
		EtiquetteGES string    `json:"etiquette_ges"`
		Conso        flexFloat `json:"conso_5_usages_par_m2_ep"`
		Date         string    `json:"date_etablissement_dpe"`
		GeoDistance  flexFloat `json:"_geo_distance"`
	} `json:"results"`
}

// Energy lists energy performance certificates near the address.
type Energy struct {
	getter  JSONGetter
	baseURL string
	limit   int
}

// NewEnergy creates the energy adapter.
func NewEnergy(getter JSONGetter, baseURL string) *Energy {
	return &Energy{getter: getter, baseURL: baseURL, limit: 20}
}

// Section implements Adapter.
func (a *Energy) Section() string { return model.SectionEnergy }

// Source implements Adapter.
func (a *Energy) Source() string { return "ademe_dpe" }

// Fetch implements Adapter.
func (a *Energy) Fetch(ctx context.Context, in Input) Outcome[model.EnergySection] {
	radius := min(in.Radius, energyRadius)
	loc := in.Location
	reqURL := fetcher.BuildURL(a.baseURL, "/lines", url.Values{
		"geo_distance": {fmt.Sprintf("%f,%f,%dm", loc.Longitude, loc.Latitude, radius)},
		"size":         {strconv.Itoa(a.limit)},
		"select":       {"numero_dpe,adresse_ban,etiquette_dpe,etiquette_ges,conso_5_usages_par_m2_ep,date_etablissement_dpe,_geo_distance"},
	})

	var resp dpeResponse
	if err := a.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return FailErr[model.EnergySection](a.Source(), err)
	}

	diags := make([]model.EnergyDiagnostic, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.EtiquetteDPE == "" {
			continue
		}
		diags = append(diags, model.EnergyDiagnostic{
			ID:             r.NumeroDPE,
			Address:        r.AdresseBan,
			EnergyRating:   r.EtiquetteDPE,
			ClimateRating:  r.EtiquetteGES,
			ConsumptionKWh: float64(r.Conso),
			Date:           r.Date,
			Distance:       float64(r.GeoDistance),
		})
	}
	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Distance < diags[j].Distance })

	section := model.EnergySection{
		SectionState: model.SectionState{Status: model.StatusFor(len(diags))},
		Diagnostics:  diags,
	}
	if len(diags) > 0 {
		section.Rating = diags[0].EnergyRating
	}
	return Success(section, a.Source(), reqURL)
}
