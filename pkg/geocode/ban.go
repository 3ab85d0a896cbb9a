package geocode

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/property-profile/internal/fetcher"
)

// DefaultBANURL is the national address base search API.
const DefaultBANURL = "https://api-adresse.data.gouv.fr"

// banResponse is the GeoJSON FeatureCollection returned by /search.
type banResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lon, lat
		} `json:"geometry"`
		Properties struct {
			Label       string  `json:"label"`
			Score       float64 `json:"score"`
			HouseNumber string  `json:"housenumber"`
			Street      string  `json:"street"`
			Name        string  `json:"name"`
			PostCode    string  `json:"postcode"`
			CityCode    string  `json:"citycode"`
			City        string  `json:"city"`
			Context     string  `json:"context"`
			Type        string  `json:"type"`
		} `json:"properties"`
	} `json:"features"`
}

// BANProvider geocodes against the Base Adresse Nationale.
type BANProvider struct {
	getter  JSONGetter
	baseURL string
	limit   int
}

// BANOption configures a BANProvider.
type BANOption func(*BANProvider)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) BANOption {
	return func(p *BANProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithLimit sets the maximum number of candidates requested.
func WithLimit(n int) BANOption {
	return func(p *BANProvider) {
		if n > 0 {
			p.limit = n
		}
	}
}

// NewBANProvider creates a BANProvider.
func NewBANProvider(getter JSONGetter, opts ...BANOption) *BANProvider {
	p := &BANProvider{getter: getter, baseURL: DefaultBANURL, limit: 5}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *BANProvider) Name() string { return "ban" }

// Search implements Provider.
func (p *BANProvider) Search(ctx context.Context, text string) ([]Candidate, error) {
	reqURL := fetcher.BuildURL(p.baseURL, "/search/", url.Values{
		"q":     {text},
		"limit": {strconv.Itoa(p.limit)},
	})

	var resp banResponse
	if err := p.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return nil, eris.Wrap(err, "geocode: ban search")
	}

	out := make([]Candidate, 0, len(resp.Features))
	for _, f := range resp.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		props := f.Properties
		street := props.Street
		if street == "" && props.Type == "street" {
			street = props.Name
		}
		dept, region := parseContext(props.Context)
		out = append(out, Candidate{
			Label:       props.Label,
			HouseNumber: props.HouseNumber,
			Street:      street,
			PostalCode:  props.PostCode,
			CommuneCode: props.CityCode,
			City:        props.City,
			Department:  dept,
			Region:      region,
			Kind:        props.Type,
			Longitude:   f.Geometry.Coordinates[0],
			Latitude:    f.Geometry.Coordinates[1],
			Score:       props.Score,
		})
	}
	return out, nil
}

// parseContext splits "75, Paris, Île-de-France" into the department code
// and the region name.
func parseContext(ctx string) (department, region string) {
	parts := strings.Split(ctx, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) == 0 || parts[0] == "" {
		return "", ""
	}
	department = parts[0]
	if len(parts) > 1 {
		region = parts[len(parts)-1]
	}
	return department, region
}
