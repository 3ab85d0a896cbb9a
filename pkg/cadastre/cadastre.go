// Package cadastre queries the IGN API Carto for the cadastral section and
// the urbanism plan zones containing a point.
package cadastre

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/property-profile/internal/fetcher"
	"github.com/sells-group/property-profile/internal/model"
)

// DefaultBaseURL is the API Carto root.
const DefaultBaseURL = "https://apicarto.ign.fr/api"

// JSONGetter fetches and decodes a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, dst any) error
}

type divisionResponse struct {
	Features []struct {
		Geometry   *geojson.Geometry `json:"geometry"`
		Properties struct {
			CodeDep  string `json:"code_dep"`
			CodeCom  string `json:"code_com"`
			CodeInse string `json:"code_insee"`
			ComAbs   string `json:"com_abs"`
			Section  string `json:"section"`
			Feuille  int    `json:"feuille"`
		} `json:"properties"`
	} `json:"features"`
}

type zoneResponse struct {
	Features []struct {
		Properties struct {
			Libelle   string `json:"libelle"`
			Libelong  string `json:"libelong"`
			TypeZone  string `json:"typezone"`
			Partition string `json:"partition"`
			NomFic    string `json:"nomfic"`
		} `json:"properties"`
	} `json:"features"`
}

// Client is an API Carto client.
type Client struct {
	getter  JSONGetter
	baseURL string
}

// New creates a Client. An empty baseURL selects DefaultBaseURL.
func New(getter JSONGetter, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{getter: getter, baseURL: baseURL}
}

// DivisionURL returns the cadastral division query URL for a point.
func (c *Client) DivisionURL(lat, lon float64) (string, error) {
	return c.pointURL("/cadastre/division", lat, lon)
}

// ZonesURL returns the urbanism zone query URL for a point.
func (c *Client) ZonesURL(lat, lon float64) (string, error) {
	return c.pointURL("/gpu/zone-urba", lat, lon)
}

// Parcel returns the cadastral section containing the point, or nil when
// the point falls outside every section.
func (c *Client) Parcel(ctx context.Context, lat, lon float64) (*model.CadastralParcel, error) {
	reqURL, err := c.DivisionURL(lat, lon)
	if err != nil {
		return nil, err
	}

	var resp divisionResponse
	if err := c.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return nil, eris.Wrap(err, "cadastre: division")
	}
	if len(resp.Features) == 0 {
		return nil, nil
	}

	pick := 0
	if len(resp.Features) > 1 {
		for i, f := range resp.Features {
			if covers(f.Geometry, lat, lon) {
				pick = i
				break
			}
		}
	}

	p := resp.Features[pick].Properties
	commune := p.CodeInse
	if commune == "" {
		commune = p.CodeDep + p.CodeCom
	}
	if commune == "" || p.Section == "" {
		zap.L().Debug("cadastre: division without section", zap.Float64("lat", lat), zap.Float64("lon", lon))
		return nil, nil
	}
	return &model.CadastralParcel{
		CommuneCode: commune,
		Prefix:      p.ComAbs,
		Section:     p.Section,
	}, nil
}

// Zones returns the urbanism plan zones covering the point.
func (c *Client) Zones(ctx context.Context, lat, lon float64) ([]model.Zone, error) {
	reqURL, err := c.ZonesURL(lat, lon)
	if err != nil {
		return nil, err
	}

	var resp zoneResponse
	if err := c.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return nil, eris.Wrap(err, "cadastre: zone-urba")
	}

	zones := make([]model.Zone, 0, len(resp.Features))
	for _, f := range resp.Features {
		p := f.Properties
		zones = append(zones, model.Zone{
			Label:       p.Libelle,
			Description: p.Libelong,
			Kind:        p.TypeZone,
			Document:    p.Partition,
		})
	}
	return zones, nil
}

func (c *Client) pointURL(path string, lat, lon float64) (string, error) {
	pt := geom.NewPointFlat(geom.XY, []float64{lon, lat})
	data, err := geojson.Marshal(pt)
	if err != nil {
		return "", eris.Wrap(err, "cadastre: encode point")
	}
	return fetcher.BuildURL(c.baseURL, path, url.Values{"geom": {string(data)}}), nil
}

// covers reports whether the feature's bounding box contains the point.
func covers(g *geojson.Geometry, lat, lon float64) bool {
	if g == nil {
		return false
	}
	t, err := g.Decode()
	if err != nil {
		return false
	}
	return t.Bounds().OverlapsPoint(geom.XY, geom.Coord{lon, lat})
}
