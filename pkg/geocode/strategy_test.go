package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func queries(ss []Strategy) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Query
	}
	return out
}

func names(ss []Strategy) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Name
	}
	return out
}

func TestStrategies(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantNames []string
		wantQuery []string
	}{
		{
			name:      "messy whitespace",
			in:        "  12  rue Exemple ,75001 Paris ",
			wantNames: []string{StrategyAsTyped, StrategyNormalized, StrategyStreetPostcode},
			wantQuery: []string{"12  rue Exemple ,75001 Paris", "12 rue Exemple, 75001 Paris", "12 rue Exemple 75001"},
		},
		{
			name:      "apartment suffix",
			in:        "12 rue Exemple, Apt 4, 75001 Paris",
			wantNames: []string{StrategyAsTyped, StrategyWithoutUnit, StrategyStreetPostcode},
			wantQuery: []string{"12 rue Exemple, Apt 4, 75001 Paris", "12 rue Exemple, 75001 Paris", "12 rue Exemple 75001"},
		},
		{
			name:      "building and floor",
			in:        "3 allée des Pins Bât. B étage 2, 69003 Lyon",
			wantNames: []string{StrategyAsTyped, StrategyWithoutUnit, StrategyStreetPostcode},
			wantQuery: []string{"3 allée des Pins Bât. B étage 2, 69003 Lyon", "3 allée des Pins, 69003 Lyon", "3 allée des Pins 69003"},
		},
		{
			name:      "no postcode",
			in:        "Paris",
			wantNames: []string{StrategyAsTyped},
			wantQuery: []string{"Paris"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Strategies(tt.in)
			assert.Equal(t, tt.wantNames, names(got))
			assert.Equal(t, tt.wantQuery, queries(got))
		})
	}
}

func TestStrategies_Empty(t *testing.T) {
	assert.Empty(t, Strategies(""))
	assert.Empty(t, Strategies("   "))
}

func TestStrategies_Deterministic(t *testing.T) {
	in := "12 rue Exemple, Apt 4, 75001 Paris"
	assert.Equal(t, Strategies(in), Strategies(in))
}

func TestStrategies_StreetNamesKept(t *testing.T) {
	got := Strategies("5 rue du Combat, 75019 Paris")
	assert.Equal(t, "5 rue du Combat, 75019 Paris", got[0].Query)
	assert.Equal(t, "5 rue du Combat 75019", got[len(got)-1].Query)
	assert.NotContains(t, names(got), StrategyWithoutUnit)
}
