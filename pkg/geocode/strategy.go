package geocode

import (
	"regexp"
	"strings"

	"github.com/sells-group/property-profile/internal/normalize"
)

// Strategy is one rewrite of the raw address text submitted to the provider.
type Strategy struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// Strategy names, in the order they are tried.
const (
	StrategyAsTyped        = "as_typed"
	StrategyNormalized     = "normalized"
	StrategyWithoutUnit    = "without_unit"
	StrategyStreetPostcode = "street_postcode"
)

var (
	unitRe     = regexp.MustCompile(`(?i)(?:^|[,\s]+)(?:apt|appt|appartement|appart|bat|bât|batiment|bâtiment|etage|étage|esc|escalier)(?:\.|\s)+[\p{L}\d-]+`)
	postcodeRe = regexp.MustCompile(`\b\d{5}\b`)
	commaRe    = regexp.MustCompile(`\s*,\s*`)
)

// Strategies returns the ordered, de-duplicated list of queries to try for
// text. The first entry is always the text as typed.
func Strategies(text string) []Strategy {
	typed := strings.TrimSpace(text)
	if typed == "" {
		return nil
	}

	normalized := commaRe.ReplaceAllString(normalize.Whitespace(typed), ", ")
	normalized = strings.Trim(normalized, ", ")

	withoutUnit := normalize.Whitespace(unitRe.ReplaceAllString(normalized, ""))
	withoutUnit = strings.Trim(commaRe.ReplaceAllString(withoutUnit, ", "), ", ")

	candidates := []Strategy{
		{Name: StrategyAsTyped, Query: typed},
		{Name: StrategyNormalized, Query: normalized},
		{Name: StrategyWithoutUnit, Query: withoutUnit},
	}
	if sp := streetPostcode(withoutUnit); sp != "" {
		candidates = append(candidates, Strategy{Name: StrategyStreetPostcode, Query: sp})
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]Strategy, 0, len(candidates))
	for _, s := range candidates {
		if s.Query == "" || seen[s.Query] {
			continue
		}
		seen[s.Query] = true
		out = append(out, s)
	}
	return out
}

// streetPostcode keeps the first comma-separated part and the postcode.
func streetPostcode(s string) string {
	pc := postcodeRe.FindString(s)
	if pc == "" {
		return ""
	}
	street := strings.TrimSpace(strings.SplitN(s, ",", 2)[0])
	street = strings.TrimSpace(strings.Replace(street, pc, "", 1))
	if street == "" {
		return ""
	}
	return street + " " + pc
}
