// Package model defines the data types shared by the property profile engine.
package model

// Default request parameters.
const (
	DefaultRadius   = 1500
	MinRadius       = 100
	MaxRadius       = 10000
	DefaultLanguage = "fr"
)

// AddressQuery is the immutable input of a profile request.
type AddressQuery struct {
	Text        string `json:"address" validate:"required,min=3,max=200"`
	Radius      int    `json:"radius" validate:"min=100,max=10000"`
	Language    string `json:"language" validate:"oneof=fr en"`
	BypassCache bool   `json:"bypass_cache"`
}

// ResolvedLocation is the authoritative geocoding result for a request.
type ResolvedLocation struct {
	Label       string  `json:"label"`
	HouseNumber string  `json:"house_number,omitempty"`
	Street      string  `json:"street,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CommuneCode string  `json:"commune_code"`
	PostalCode  string  `json:"postal_code"`
	City        string  `json:"city"`
	Department  string  `json:"department"`
	Region      string  `json:"region"`
	Score       float64 `json:"score,omitempty"`
}

// CadastralParcel identifies the cadastral section containing a point.
type CadastralParcel struct {
	CommuneCode string `json:"commune_code"`
	Prefix      string `json:"prefix"`
	Section     string `json:"section"`
}

// ID returns the registry key for the section: commune code, 3-digit prefix
// and 2-character section code (single letters are left-padded with "0").
func (p CadastralParcel) ID() string {
	prefix := p.Prefix
	if prefix == "" {
		prefix = "000"
	}
	section := p.Section
	if len(section) == 1 {
		section = "0" + section
	}
	return p.CommuneCode + prefix + section
}
