package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/property-profile/internal/model"
)

func sale(id, date, number, street string, price, surface float64) model.TransactionRecord {
	d, _ := time.Parse("2006-01-02", date)
	return model.TransactionRecord{
		ID:           id,
		Date:         d,
		Nature:       model.NatureSale,
		Price:        price,
		Surface:      surface,
		StreetNumber: number,
		StreetName:   street,
		Source:       "dvf",
	}
}

func exampleQuery(t *testing.T) Query {
	t.Helper()
	return NewQuery(model.ResolvedLocation{HouseNumber: "12", Street: "Rue Exemple"}, true)
}

func TestBounds_Plausible(t *testing.T) {
	b := DefaultBounds()
	tests := []struct {
		name string
		rec  model.TransactionRecord
		want bool
	}{
		{"ordinary sale", sale("1", "2021-01-01", "1", "RUE A", 300000, 60), true},
		{"donation", func() model.TransactionRecord {
			r := sale("2", "2021-01-01", "1", "RUE A", 300000, 60)
			r.Nature = "Echange"
			return r
		}(), false},
		{"zero price", sale("3", "2021-01-01", "1", "RUE A", 0, 60), false},
		{"surface at minimum", sale("4", "2021-01-01", "1", "RUE A", 50000, 9), false},
		{"no surface", sale("5", "2021-01-01", "1", "RUE A", 50000, 0), false},
		{"too cheap", sale("6", "2021-01-01", "1", "RUE A", 10000, 60), false},
		{"too expensive", sale("7", "2021-01-01", "1", "RUE A", 2000000, 60), false},
		{"lower bound inclusive", sale("8", "2021-01-01", "1", "RUE A", 30000, 60), true},
		{"upper bound inclusive", sale("9", "2021-01-01", "1", "RUE A", 1800000, 60), true},
		{"nature case-insensitive", func() model.TransactionRecord {
			r := sale("10", "2021-01-01", "1", "RUE A", 300000, 60)
			r.Nature = "VENTE"
			return r
		}(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Plausible(tt.rec))
		})
	}
}

func TestBounds_FilterIdempotent(t *testing.T) {
	b := DefaultBounds()
	records := []model.TransactionRecord{
		sale("1", "2021-01-01", "14", "RUE EXEMPLE", 300000, 60),
		sale("2", "2021-02-01", "14", "RUE EXEMPLE", 0, 60),
		sale("3", "2022-01-01", "12", "RUE EXEMPLE", 350000, 70),
		sale("4", "2022-03-01", "12", "RUE EXEMPLE", 350000, 5),
	}
	once := b.Filter(records)
	twice := b.Filter(once)
	require.Len(t, once, 2)
	assert.Equal(t, once, twice)
}

func TestBounds_Configurable(t *testing.T) {
	b := Bounds{MinPricePerArea: 100, MaxPricePerArea: 1000, MinSurface: 20}
	assert.True(t, b.Plausible(sale("1", "2021-01-01", "1", "RUE A", 30000, 60)))
	assert.False(t, b.Plausible(sale("2", "2021-01-01", "1", "RUE A", 300000, 60)))
	assert.False(t, b.Plausible(sale("3", "2021-01-01", "1", "RUE A", 3000, 15)))
}

func TestParseHouseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"12", 12, true},
		{"12bis", 12, true},
		{" 7 B", 7, true},
		{"", 0, false},
		{"bis", 0, false},
		{"0", 0, false},
	}
	for _, tt := range tests {
		n, ok := ParseHouseNumber(tt.in)
		assert.Equal(t, tt.want, n, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestStreetMatches(t *testing.T) {
	assert.True(t, StreetMatches("rueexemple", "rueexemple"))
	assert.True(t, StreetMatches("ruedelexemple", "exemple"))
	assert.True(t, StreetMatches("exemple", "ruedelexemple"))
	assert.False(t, StreetMatches("rueexemple", "rueautre"))
	assert.False(t, StreetMatches("", "rueexemple"))
	assert.False(t, StreetMatches("rueexemple", ""))
}

func TestClassify_HouseNumbers(t *testing.T) {
	q := exampleQuery(t)
	assert.Equal(t, model.MatchExact, Classify(q, sale("1", "2022-01-01", "12", "RUE EXEMPLE", 1, 1)))
	assert.Equal(t, model.MatchNeighborhood, Classify(q, sale("2", "2022-01-01", "14", "RUE EXEMPLE", 1, 1)))
	assert.Equal(t, model.MatchNeighborhood, Classify(q, sale("3", "2022-01-01", "12", "RUE AUTRE", 1, 1)))
	assert.Equal(t, model.MatchExact, Classify(q, sale("4", "2022-01-01", "12B", "R EXEMPLE", 1, 1)))
}

func TestClassify_NoSectionMeansNeighborhoodOnly(t *testing.T) {
	q := NewQuery(model.ResolvedLocation{HouseNumber: "12", Street: "Rue Exemple"}, false)
	assert.Equal(t, model.MatchNeighborhood, Classify(q, sale("1", "2022-01-01", "12", "RUE EXEMPLE", 1, 1)))
}

func TestReconcile_SectionExample(t *testing.T) {
	records := []model.TransactionRecord{
		sale("a", "2021-06-15", "14", "RUE EXEMPLE", 300000, 60),
		sale("b", "2022-04-02", "12", "RUE EXEMPLE", 350000, 70),
	}

	summary := Reconcile(records, exampleQuery(t), DefaultBounds())

	assert.Equal(t, model.StatusOK, summary.Status)
	assert.Equal(t, model.ScopeSection, summary.Scope)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 5000, summary.AveragePricePerArea, 0.001)
	require.NotNil(t, summary.LastSale)
	assert.Equal(t, "b", summary.LastSale.ID)
	assert.Equal(t, 2022, summary.LastSale.Date.Year())
	assert.Equal(t, model.MatchExact, summary.LastSale.Match)
	require.Len(t, summary.ExactMatches, 1)
	require.Len(t, summary.Transactions, 2)
	assert.Equal(t, "b", summary.Transactions[0].ID)
	assert.Equal(t, model.MatchNeighborhood, summary.Transactions[1].Match)
}

func TestReconcile_ExactMatchPreferredOverMoreRecentNeighbor(t *testing.T) {
	records := []model.TransactionRecord{
		sale("own", "2019-01-01", "12", "RUE EXEMPLE", 250000, 60),
		sale("neighbor", "2023-01-01", "14", "RUE EXEMPLE", 320000, 60),
	}
	summary := Reconcile(records, exampleQuery(t), DefaultBounds())
	require.NotNil(t, summary.LastSale)
	assert.Equal(t, "own", summary.LastSale.ID)
	assert.Equal(t, "neighbor", summary.Transactions[0].ID)
}

func TestReconcile_NoHouseNumberNeverExact(t *testing.T) {
	q := NewQuery(model.ResolvedLocation{Street: "Rue Exemple"}, true)
	records := []model.TransactionRecord{
		sale("old", "2020-01-01", "12", "RUE EXEMPLE", 300000, 60),
		sale("new", "2023-05-01", "14", "RUE EXEMPLE", 310000, 60),
		sale("other", "2021-05-01", "3", "RUE AUTRE", 200000, 50),
	}

	summary := Reconcile(records, q, DefaultBounds())

	assert.Empty(t, summary.ExactMatches)
	require.NotNil(t, summary.LastSale)
	assert.Equal(t, "new", summary.LastSale.ID)
	for _, tr := range summary.Transactions {
		assert.NotEqual(t, model.MatchExact, tr.Match)
	}
	assert.Equal(t, model.MatchSameStreet, summary.Transactions[0].Match)
	assert.Equal(t, model.MatchNeighborhood, summary.Transactions[1].Match)
}

func TestReconcile_MultipleExactMatchesKeptAsHistory(t *testing.T) {
	records := []model.TransactionRecord{
		sale("first", "2015-01-01", "12", "RUE EXEMPLE", 200000, 60),
		sale("resale", "2021-01-01", "12", "RUE EXEMPLE", 300000, 60),
		sale("unit2", "2018-01-01", "12", "RUE EXEMPLE", 150000, 30),
	}
	summary := Reconcile(records, exampleQuery(t), DefaultBounds())
	require.Len(t, summary.ExactMatches, 3)
	assert.Equal(t, "resale", summary.ExactMatches[0].ID)
	assert.Equal(t, "unit2", summary.ExactMatches[1].ID)
	assert.Equal(t, "first", summary.ExactMatches[2].ID)
}

func TestReconcile_EmptyAndExcluded(t *testing.T) {
	summary := Reconcile(nil, exampleQuery(t), DefaultBounds())
	assert.Equal(t, model.StatusEmpty, summary.Status)
	assert.Nil(t, summary.LastSale)
	assert.NotNil(t, summary.Transactions)
	assert.NotNil(t, summary.ExactMatches)
	assert.Zero(t, summary.AveragePricePerArea)

	bad := []model.TransactionRecord{sale("x", "2022-01-01", "12", "RUE EXEMPLE", 0, 60)}
	summary = Reconcile(bad, exampleQuery(t), DefaultBounds())
	assert.Equal(t, 0, summary.Count)
	assert.Equal(t, 1, summary.Excluded)
}

func TestLastSale(t *testing.T) {
	assert.Nil(t, LastSale(nil, nil))
	all := []model.ClassifiedTransaction{{TransactionRecord: model.TransactionRecord{ID: "n"}}}
	got := LastSale(nil, all)
	require.NotNil(t, got)
	assert.Equal(t, "n", got.ID)
	got.ID = "mutated"
	assert.Equal(t, "n", all[0].ID)
}
