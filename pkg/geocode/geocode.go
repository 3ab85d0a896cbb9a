// Package geocode resolves free-text French addresses into coordinates and
// administrative codes.
package geocode

import (
	"context"

	"github.com/rotisserie/eris"
)

var (
	// ErrAddressNotFound is returned when no strategy yields a candidate.
	ErrAddressNotFound = eris.New("geocode: address not found")
	// ErrGeocoderUnavailable is returned when the provider cannot be reached.
	ErrGeocoderUnavailable = eris.New("geocode: provider unavailable")
)

// Candidate is one geocoding match, best first.
type Candidate struct {
	Label       string
	HouseNumber string
	Street      string
	PostalCode  string
	CommuneCode string
	City        string
	Department  string
	Region      string
	Kind        string // "housenumber", "street", "locality", "municipality"
	Latitude    float64
	Longitude   float64
	Score       float64
}

// Provider represents a single geocoding backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, text string) ([]Candidate, error)
}

// JSONGetter fetches and decodes a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, dst any) error
}
