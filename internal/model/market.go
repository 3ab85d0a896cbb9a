package model

import "time"

// NatureSale is the registry nature code of an ordinary sale.
const NatureSale = "Vente"

// TransactionRecord is one raw sale registry entry.
type TransactionRecord struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Nature       string    `json:"nature"`
	Price        float64   `json:"price"`
	Surface      float64   `json:"surface_m2"`
	StreetNumber string    `json:"street_number"`
	StreetName   string    `json:"street_name"`
	PropertyType string    `json:"property_type,omitempty"`
	Source       string    `json:"source"`
}

// PricePerArea returns price divided by surface, or 0 without a surface.
func (t TransactionRecord) PricePerArea() float64 {
	if t.Surface <= 0 {
		return 0
	}
	return t.Price / t.Surface
}

// MatchKind labels a transaction relative to the queried address.
type MatchKind string

const (
	// MatchExact means the sale belongs to the queried property.
	MatchExact MatchKind = "exact"
	// MatchSameStreet means the street matches but the query has no house
	// number, so the unit cannot be determined.
	MatchSameStreet MatchKind = "same_street"
	// MatchNeighborhood means a different unit in the same section.
	MatchNeighborhood MatchKind = "neighborhood"
)

// ClassifiedTransaction is a plausibility-filtered record with its label.
type ClassifiedTransaction struct {
	TransactionRecord
	Match        MatchKind `json:"match"`
	PricePerArea float64   `json:"price_per_m2"`
}

// Market scope modes.
const (
	ScopeSection      = "section"
	ScopeNeighborhood = "neighborhood_only"
)

// MarketSummary is the reconciled view of the sales registry.
type MarketSummary struct {
	SectionState
	// Scope is ScopeSection when the cadastral section was resolved and
	// ScopeNeighborhood when exact matching was impossible.
	Scope               string                  `json:"scope"`
	SectionID           string                  `json:"section_id,omitempty"`
	Count               int                     `json:"count"`
	AveragePricePerArea float64                 `json:"average_price_per_m2"`
	LastSale            *ClassifiedTransaction  `json:"last_sale"`
	ExactMatches        []ClassifiedTransaction `json:"exact_matches"`
	Transactions        []ClassifiedTransaction `json:"transactions"`
	Excluded            int                     `json:"excluded"`
}
