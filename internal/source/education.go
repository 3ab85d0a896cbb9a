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

type educationResponse struct {
	TotalCount int `json:"total_count"`
	Results    []struct {
		ID       string `json:"identifiant_de_l_etablissement"`
		Name     string `json:"nom_etablissement"`
		Kind     string `json:"type_etablissement"`
		Sector   string `json:"statut_public_prive"`
		Address  string `json:"adresse_1"`
		Position *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
	} `json:"results"`
}

// Education lists schools from the national education directory.
type Education struct {
	getter  JSONGetter
	baseURL string
	limit   int
}

// NewEducation creates the education adapter.
func NewEducation(getter JSONGetter, baseURL string) *Education {
	return &Education{getter: getter, baseURL: baseURL, limit: 50}
}

// Section implements Adapter.
func (a *Education) Section() string { return model.SectionEducation }

// Source implements Adapter.
func (a *Education) Source() string { return "annuaire_education" }

// Fetch implements Adapter.
func (a *Education) Fetch(ctx context.Context, in Input) Outcome[model.EducationSection] {
	loc := in.Location
	reqURL := fetcher.BuildURL(a.baseURL, "/records", url.Values{
		"where": {fmt.Sprintf("within_distance(position, geom'POINT(%f %f)', %dm)", loc.Longitude, loc.Latitude, in.Radius)},
		"limit": {strconv.Itoa(a.limit)},
	})

	var resp educationResponse
	if err := a.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return FailErr[model.EducationSection](a.Source(), err)
	}

	schools := make([]model.School, 0, len(resp.Results))
	for _, r := range resp.Results {
		s := model.School{
			ID:      r.ID,
			Name:    r.Name,
			Kind:    r.Kind,
			Sector:  r.Sector,
			Address: r.Address,
		}
		if r.Position != nil {
			s.Distance = distanceMeters(loc.Latitude, loc.Longitude, r.Position.Lat, r.Position.Lon)
		}
		schools = append(schools, s)
	}
	sort.SliceStable(schools, func(i, j int) bool { return schools[i].Distance < schools[j].Distance })

	return Success(model.EducationSection{
		SectionState: model.SectionState{Status: model.StatusFor(len(schools))},
		Schools:      schools,
	}, a.Source(), reqURL)
}
