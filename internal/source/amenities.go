package source

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/sells-group/property-profile/internal/fetcher"
	"github.com/sells-group/property-profile/internal/model"
)

// nearestLimit is how many points of interest the section keeps.
const nearestLimit = 10

type overpassResponse struct {
	Elements []struct {
		Type   string            `json:"type"`
		Lat    float64           `json:"lat"`
		Lon    float64           `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// amenityCategories maps OSM tag values to profile categories.
var amenityCategories = map[string]map[string]string{
	"amenity": {
		"pharmacy": "health", "doctors": "health", "hospital": "health", "clinic": "health", "dentist": "health",
		"restaurant": "food", "cafe": "food", "fast_food": "food", "bar": "food",
		"bank": "services", "post_office": "services", "townhall": "services", "library": "services",
		"kindergarten": "childcare", "childcare": "childcare",
	},
	"shop": {
		"supermarket": "shopping", "convenience": "shopping", "bakery": "shopping", "butcher": "shopping", "greengrocer": "shopping",
	},
	"highway": {"bus_stop": "transport"},
	"railway": {"station": "transport", "tram_stop": "transport", "halt": "transport"},
	"leisure": {"park": "leisure", "sports_centre": "leisure", "playground": "leisure", "swimming_pool": "leisure"},
}

// Amenities counts points of interest around the address via Overpass.
type Amenities struct {
	getter  JSONGetter
	baseURL string
}

// NewAmenities creates the amenities adapter.
func NewAmenities(getter JSONGetter, baseURL string) *Amenities {
	return &Amenities{getter: getter, baseURL: baseURL}
}

// Section implements Adapter.
func (a *Amenities) Section() string { return model.SectionAmenities }

// Source implements Adapter.
func (a *Amenities) Source() string { return "overpass" }

// Fetch implements Adapter.
func (a *Amenities) Fetch(ctx context.Context, in Input) Outcome[model.AmenitiesSection] {
	loc := in.Location
	reqURL := fetcher.BuildURL(a.baseURL, "", url.Values{"data": {overpassQuery(loc.Latitude, loc.Longitude, in.Radius)}})

	var resp overpassResponse
	if err := a.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return FailErr[model.AmenitiesSection](a.Source(), err)
	}

	byCategory := make(map[string]int)
	pois := make([]model.PointOfInterest, 0, len(resp.Elements))
	for _, e := range resp.Elements {
		category := categorize(e.Tags)
		if category == "" {
			continue
		}
		lat, lon := e.Lat, e.Lon
		if e.Center != nil {
			lat, lon = e.Center.Lat, e.Center.Lon
		}
		byCategory[category]++
		pois = append(pois, model.PointOfInterest{
			Name:     e.Tags["name"],
			Category: category,
			Distance: distanceMeters(loc.Latitude, loc.Longitude, lat, lon),
		})
	}
	sort.SliceStable(pois, func(i, j int) bool { return pois[i].Distance < pois[j].Distance })

	total := len(pois)
	if len(pois) > nearestLimit {
		pois = pois[:nearestLimit]
	}
	return Success(model.AmenitiesSection{
		SectionState: model.SectionState{Status: model.StatusFor(total)},
		Total:        total,
		ByCategory:   byCategory,
		Nearest:      pois,
	}, a.Source(), reqURL)
}

func overpassQuery(lat, lon float64, radius int) string {
	around := fmt.Sprintf("(around:%d,%f,%f)", radius, lat, lon)
	q := "[out:json][timeout:20];("
	for _, key := range []string{"amenity", "shop", "highway", "railway", "leisure"} {
		values := make([]string, 0, len(amenityCategories[key]))
		for v := range amenityCategories[key] {
			values = append(values, v)
		}
		sort.Strings(values)
		pattern := "^(" + strings.Join(values, "|") + ")$"
		q += fmt.Sprintf(`nwr%s["%s"~"%s"];`, around, key, pattern)
	}
	return q + ");out center;"
}

func categorize(tags map[string]string) string {
	for _, key := range []string{"amenity", "shop", "highway", "railway", "leisure"} {
		if c, ok := amenityCategories[key][tags[key]]; ok {
			return c
		}
	}
	return ""
}
