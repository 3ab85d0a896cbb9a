package source

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/sells-group/property-profile/internal/fetcher"
	"github.com/sells-group/property-profile/internal/model"
)

// ownershipRadiusKm keeps the search to the building and its neighbors.
const ownershipRadiusKm = 0.05

// legalFormSCI is the INSEE legal category of a real-estate holding company.
const legalFormSCI = "6540"

type companiesResponse struct {
	Results []struct {
		SIREN     string `json:"siren"`
		Name      string `json:"nom_complet"`
		LegalForm string `json:"nature_juridique"`
		Activity  string `json:"activite_principale"`
		Siege     struct {
			Address   string    `json:"adresse"`
			Latitude  flexFloat `json:"latitude"`
			Longitude flexFloat `json:"longitude"`
		} `json:"siege"`
		Matching []struct {
			Address   string    `json:"adresse"`
			Latitude  flexFloat `json:"latitude"`
			Longitude flexFloat `json:"longitude"`
		} `json:"matching_etablissements"`
	} `json:"results"`
}

// Ownership lists companies registered at or next to the address.
type Ownership struct {
	getter  JSONGetter
	baseURL string
}

// NewOwnership creates the ownership adapter.
func NewOwnership(getter JSONGetter, baseURL string) *Ownership {
	return &Ownership{getter: getter, baseURL: baseURL}
}

// Section implements Adapter.
func (a *Ownership) Section() string { return model.SectionOwnership }

// Source implements Adapter.
func (a *Ownership) Source() string { return "recherche_entreprises" }

// Fetch implements Adapter.
func (a *Ownership) Fetch(ctx context.Context, in Input) Outcome[model.OwnershipSection] {
	loc := in.Location
	reqURL := fetcher.BuildURL(a.baseURL, "/near_point", url.Values{
		"lat":      {strconv.FormatFloat(loc.Latitude, 'f', 6, 64)},
		"long":     {strconv.FormatFloat(loc.Longitude, 'f', 6, 64)},
		"radius":   {strconv.FormatFloat(ownershipRadiusKm, 'f', -1, 64)},
		"per_page": {"25"},
	})

	var resp companiesResponse
	if err := a.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return FailErr[model.OwnershipSection](a.Source(), err)
	}

	companies := make([]model.Company, 0, len(resp.Results))
	for _, r := range resp.Results {
		addr, lat, lon := r.Siege.Address, float64(r.Siege.Latitude), float64(r.Siege.Longitude)
		if len(r.Matching) > 0 {
			m := r.Matching[0]
			addr, lat, lon = m.Address, float64(m.Latitude), float64(m.Longitude)
		}
		c := model.Company{
			SIREN:      r.SIREN,
			Name:       r.Name,
			LegalForm:  r.LegalForm,
			Activity:   r.Activity,
			Address:    addr,
			RealEstate: r.LegalForm == legalFormSCI || strings.HasPrefix(r.Activity, "68."),
		}
		if lat != 0 || lon != 0 {
			c.Distance = distanceMeters(loc.Latitude, loc.Longitude, lat, lon)
		}
		companies = append(companies, c)
	}

	return Success(model.OwnershipSection{
		SectionState: model.SectionState{Status: model.StatusFor(len(companies))},
		Companies:    companies,
	}, a.Source(), reqURL)
}
