package source

import (
	"context"
	"net/url"
	"sort"

	"github.com/sells-group/property-profile/internal/fetcher"
	"github.com/sells-group/property-profile/internal/model"
)

// communeColumn is the commune code column of the SSMSI communal dataset.
const communeColumn = "CODGEO_2024"

type tabularResponse struct {
	Data []struct {
		Year       int       `json:"annee"`
		Indicator  string    `json:"indicateur"`
		Count      flexFloat `json:"nombre"`
		RatePerMil flexFloat `json:"taux_pour_mille"`
	} `json:"data"`
}

// Safety reads recorded-offence statistics for the commune from the
// data.gouv.fr tabular API.
type Safety struct {
	getter      JSONGetter
	resourceURL string
}

// NewSafety creates the safety adapter. resourceURL points at the
// tabular API data endpoint of the communal crime statistics resource.
func NewSafety(getter JSONGetter, resourceURL string) *Safety {
	return &Safety{getter: getter, resourceURL: resourceURL}
}

// Section implements Adapter.
func (a *Safety) Section() string { return model.SectionSafety }

// Source implements Adapter.
func (a *Safety) Source() string { return "ssmsi" }

// Fetch implements Adapter.
func (a *Safety) Fetch(ctx context.Context, in Input) Outcome[model.SafetySection] {
	if a.resourceURL == "" {
		return Fail[model.SafetySection](CauseNotConfigured, "no crime statistics resource configured")
	}
	if in.Location.CommuneCode == "" {
		return Fail[model.SafetySection](CauseNoLocation, "no commune code to query crime statistics")
	}
	reqURL := fetcher.BuildURL(a.resourceURL, "", url.Values{
		communeColumn + "__exact": {in.Location.CommuneCode},
		"page_size":               {"200"},
	})

	var resp tabularResponse
	if err := a.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return FailErr[model.SafetySection](a.Source(), err)
	}

	latest := make(map[string]model.CrimeIndicator)
	for _, r := range resp.Data {
		if r.Indicator == "" {
			continue
		}
		year := r.Year
		if year > 0 && year < 100 {
			year += 2000
		}
		if cur, ok := latest[r.Indicator]; ok && cur.Year >= year {
			continue
		}
		latest[r.Indicator] = model.CrimeIndicator{
			Category:        r.Indicator,
			Year:            year,
			Facts:           int(r.Count),
			RatePerThousand: float64(r.RatePerMil),
		}
	}

	indicators := make([]model.CrimeIndicator, 0, len(latest))
	for _, ind := range latest {
		indicators = append(indicators, ind)
	}
	sort.Slice(indicators, func(i, j int) bool { return indicators[i].Category < indicators[j].Category })

	return Success(model.SafetySection{
		SectionState: model.SectionState{Status: model.StatusFor(len(indicators))},
		Indicators:   indicators,
	}, a.Source(), reqURL)
}
