package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/property-profile/internal/fetcher"
	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/reconcile"
	"github.com/sells-group/property-profile/internal/resilience"
)

var testLocation = model.ResolvedLocation{
	Label:       "12 Rue Exemple 75001 Paris",
	HouseNumber: "12",
	Street:      "Rue Exemple",
	Latitude:    48.8602,
	Longitude:   2.3417,
	CommuneCode: "75101",
	PostalCode:  "75001",
	City:        "Paris",
}

func testInput() Input {
	return Input{Location: testLocation, Radius: 1500, Language: "fr"}
}

func newTestGetter(srv *httptest.Server) *fetcher.Client {
	return fetcher.New(fetcher.Options{
		RatePerSecond: 1000,
		Policy:        resilience.Policy{Attempts: 1},
		HTTPClient:    srv.Client(),
	})
}

func serveJSON(t *testing.T, path, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if path != "" && r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRisks(t *testing.T) {
	srv := serveJSON(t, "/gaspar/risques", `{"data":[{"code_insee":"75101","risques_detail":[
		{"num_risque":"11","libelle_risque_long":"Inondation"},
		{"num_risque":"13","libelle_risque_long":"Séisme"},
		{"num_risque":"11","libelle_risque_long":"Inondation"},
		{"num_risque":"215","libelle_risque_long":"Risque industriel"}]}]}`,
		func(r *http.Request) { assert.Equal(t, "75101", r.URL.Query().Get("code_insee")) })

	out := NewRisks(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	assert.Equal(t, model.StatusOK, out.Value.Status)
	require.Len(t, out.Value.Hazards, 3)
	assert.Equal(t, "natural", out.Value.Hazards[0].Category)
	assert.Equal(t, "technological", out.Value.Hazards[2].Category)
	assert.Contains(t, out.Provenance.URL, "code_insee=75101")
}

func TestRisks_EmptyIsNotFailure(t *testing.T) {
	srv := serveJSON(t, "", `{"data":[]}`, nil)
	out := NewRisks(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	assert.Equal(t, model.StatusEmpty, out.Value.Status)
	assert.NotNil(t, out.Value.Hazards)
}

func TestRisks_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out := NewRisks(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.False(t, out.OK())
	assert.Equal(t, CauseHTTPStatus, out.Failure.Cause)
}

func TestRisks_MalformedPayload(t *testing.T) {
	srv := serveJSON(t, "", `{"data": "nope"`, nil)
	out := NewRisks(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.False(t, out.OK())
	assert.Equal(t, CauseDecode, out.Failure.Cause)
}

func TestEnergy(t *testing.T) {
	srv := serveJSON(t, "/lines", `{"total":2,"results":[
		{"numero_dpe":"B","adresse_ban":"14 Rue Exemple","etiquette_dpe":"C","etiquette_ges":"B","conso_5_usages_par_m2_ep":140.2,"date_etablissement_dpe":"2023-02-01","_geo_distance":42.5},
		{"numero_dpe":"A","adresse_ban":"12 Rue Exemple","etiquette_dpe":"F","etiquette_ges":"F","conso_5_usages_par_m2_ep":"390","date_etablissement_dpe":"2022-05-01","_geo_distance":3.1},
		{"numero_dpe":"X","etiquette_dpe":""}]}`,
		func(r *http.Request) { assert.Contains(t, r.URL.Query().Get("geo_distance"), ",300m") })

	out := NewEnergy(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	require.Len(t, out.Value.Diagnostics, 2)
	assert.Equal(t, "A", out.Value.Diagnostics[0].ID)
	assert.Equal(t, "F", out.Value.Rating)
	assert.InDelta(t, 390, out.Value.Diagnostics[0].ConsumptionKWh, 1e-9)
}

const dvfBody = `{"resultats":[
	{"id_mutation":"m1","date_mutation":"2021-06-15","nature_mutation":"Vente","valeur_fonciere":300000,"adresse_numero":14,"adresse_nom_voie":"RUE EXEMPLE","type_local":"Appartement","surface_reelle_bati":60},
	{"id_mutation":"m1","date_mutation":"2021-06-15","nature_mutation":"Vente","valeur_fonciere":300000,"adresse_numero":14,"adresse_nom_voie":"RUE EXEMPLE","type_local":"Dépendance","surface_reelle_bati":null},
	{"id_mutation":"m2","date_mutation":"2022-04-02","nature_mutation":"Vente","valeur_fonciere":"350000","adresse_numero":"12","adresse_nom_voie":"RUE EXEMPLE","type_local":"Appartement","surface_reelle_bati":70},
	{"id_mutation":"m3","date_mutation":"2023-01-10","nature_mutation":"Echange","valeur_fonciere":200000,"adresse_numero":3,"adresse_nom_voie":"RUE AUTRE","type_local":"Maison","surface_reelle_bati":80}]}`

func TestMarket_BySection(t *testing.T) {
	srv := serveJSON(t, "", dvfBody, func(r *http.Request) {
		assert.Equal(t, "75101000AB", r.URL.Query().Get("section"))
	})
	in := testInput()
	in.Parcel = func(context.Context) (*model.CadastralParcel, error) {
		return &model.CadastralParcel{CommuneCode: "75101", Prefix: "000", Section: "AB"}, nil
	}

	out := NewMarket(newTestGetter(srv), srv.URL, reconcile.DefaultBounds()).Fetch(context.Background(), in)
	require.True(t, out.OK())
	m := out.Value
	assert.Equal(t, model.ScopeSection, m.Scope)
	assert.Equal(t, "75101000AB", m.SectionID)
	assert.Equal(t, 2, m.Count)
	assert.Equal(t, 1, m.Excluded)
	assert.InDelta(t, 5000, m.AveragePricePerArea, 0.001)
	require.NotNil(t, m.LastSale)
	assert.Equal(t, "m2", m.LastSale.ID)
	assert.Equal(t, model.MatchExact, m.LastSale.Match)
}

func TestMarket_NeighborhoodOnlyWithoutParcel(t *testing.T) {
	srv := serveJSON(t, "", dvfBody, func(r *http.Request) {
		assert.Equal(t, "75101", r.URL.Query().Get("code_commune"))
		assert.Empty(t, r.URL.Query().Get("section"))
	})
	in := testInput()
	in.Parcel = func(context.Context) (*model.CadastralParcel, error) { return nil, nil }

	out := NewMarket(newTestGetter(srv), srv.URL, reconcile.DefaultBounds()).Fetch(context.Background(), in)
	require.True(t, out.OK())
	assert.Equal(t, model.ScopeNeighborhood, out.Value.Scope)
	assert.Empty(t, out.Value.ExactMatches)
	require.NotNil(t, out.Value.LastSale)
	assert.Equal(t, "m2", out.Value.LastSale.ID)
	assert.Equal(t, model.MatchNeighborhood, out.Value.LastSale.Match)
}

func TestMutations_FoldsOutbuildings(t *testing.T) {
	rows := []dvfRow{
		{IDMutation: "m", DateMutation: "2020-01-01", NatureMutation: "Vente", ValeurFonciere: 400000, AdresseNumero: "5", AdresseSuffixe: "B", TypeLocal: "Maison", SurfaceReelleBa: 90},
		{IDMutation: "m", DateMutation: "2020-01-01", NatureMutation: "Vente", ValeurFonciere: 400000, TypeLocal: "Appartement", SurfaceReelleBa: 30},
		{IDMutation: "m", DateMutation: "2020-01-01", NatureMutation: "Vente", ValeurFonciere: 400000, TypeLocal: "Local industriel. commercial ou assimilé", SurfaceReelleBa: 200},
		{IDMutation: "bad", DateMutation: "not a date", TypeLocal: "Maison"},
	}
	recs := mutations(rows)
	require.Len(t, recs, 1)
	assert.InDelta(t, 120, recs[0].Surface, 1e-9)
	assert.InDelta(t, 400000, recs[0].Price, 1e-9)
	assert.Equal(t, "5B", recs[0].StreetNumber)
}

func TestEducation(t *testing.T) {
	srv := serveJSON(t, "/records", `{"total_count":2,"results":[
		{"identifiant_de_l_etablissement":"0750001A","nom_etablissement":"Collège Far","type_etablissement":"Collège","statut_public_prive":"Public","position":{"lat":48.87,"lon":2.35}},
		{"identifiant_de_l_etablissement":"0750002B","nom_etablissement":"École Near","type_etablissement":"Ecole","statut_public_prive":"Public","position":{"lat":48.8605,"lon":2.3420}}]}`,
		func(r *http.Request) { assert.Contains(t, r.URL.Query().Get("where"), "1500m") })

	out := NewEducation(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	require.Len(t, out.Value.Schools, 2)
	assert.Equal(t, "École Near", out.Value.Schools[0].Name)
	assert.Less(t, out.Value.Schools[0].Distance, out.Value.Schools[1].Distance)
}

func TestAirQuality(t *testing.T) {
	srv := serveJSON(t, "", `{"current":{"time":"2024-05-01T10:00","european_aqi":47.4,"pm10":18.2,"pm2_5":9.1,"nitrogen_dioxide":21,"ozone":60}}`, nil)
	out := NewAirQuality(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	assert.Equal(t, 47, out.Value.Index)
	assert.Equal(t, "moderate", out.Value.Level)
	assert.Equal(t, model.StatusOK, out.Value.Status)
}

func TestAirQuality_NoIndex(t *testing.T) {
	srv := serveJSON(t, "", `{"current":{"time":"2024-05-01T10:00","european_aqi":null}}`, nil)
	out := NewAirQuality(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	assert.Equal(t, model.StatusEmpty, out.Value.Status)
}

func TestAQILevel(t *testing.T) {
	assert.Equal(t, "good", AQILevel(10))
	assert.Equal(t, "fair", AQILevel(40))
	assert.Equal(t, "poor", AQILevel(75))
	assert.Equal(t, "extremely_poor", AQILevel(130))
}

func TestAmenities(t *testing.T) {
	srv := serveJSON(t, "", `{"elements":[
		{"type":"node","lat":48.8603,"lon":2.3418,"tags":{"amenity":"pharmacy","name":"Pharmacie"}},
		{"type":"node","lat":48.8610,"lon":2.3430,"tags":{"shop":"bakery","name":"Boulangerie"}},
		{"type":"way","center":{"lat":48.8620,"lon":2.3440},"tags":{"leisure":"park","name":"Jardin"}},
		{"type":"node","lat":48.8602,"lon":2.3417,"tags":{"amenity":"bench"}}]}`,
		func(r *http.Request) { assert.Contains(t, r.URL.Query().Get("data"), "around:1500") })

	out := NewAmenities(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	a := out.Value
	assert.Equal(t, 3, a.Total)
	assert.Equal(t, 1, a.ByCategory["health"])
	assert.Equal(t, 1, a.ByCategory["shopping"])
	assert.Equal(t, 1, a.ByCategory["leisure"])
	require.Len(t, a.Nearest, 3)
	assert.Equal(t, "Pharmacie", a.Nearest[0].Name)
}

func TestSafety(t *testing.T) {
	srv := serveJSON(t, "", `{"data":[
		{"annee":22,"indicateur":"Cambriolages de logement","nombre":100,"taux_pour_mille":"4,1"},
		{"annee":23,"indicateur":"Cambriolages de logement","nombre":120,"taux_pour_mille":"4,9"},
		{"annee":2023,"indicateur":"Vols de véhicules","nombre":null,"taux_pour_mille":null}]}`,
		func(r *http.Request) { assert.Equal(t, "75101", r.URL.Query().Get("CODGEO_2024__exact")) })

	out := NewSafety(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	require.Len(t, out.Value.Indicators, 2)
	burglary := out.Value.Indicators[0]
	assert.Equal(t, "Cambriolages de logement", burglary.Category)
	assert.Equal(t, 2023, burglary.Year)
	assert.Equal(t, 120, burglary.Facts)
	assert.InDelta(t, 4.9, burglary.RatePerThousand, 1e-9)
}

func TestSafety_NotConfigured(t *testing.T) {
	out := NewSafety(nil, "").Fetch(context.Background(), testInput())
	require.False(t, out.OK())
	assert.Equal(t, CauseNotConfigured, out.Failure.Cause)
}

func TestOwnership(t *testing.T) {
	srv := serveJSON(t, "/near_point", `{"results":[
		{"siren":"123456789","nom_complet":"SCI EXEMPLE","nature_juridique":"6540","activite_principale":"68.20B",
		 "siege":{"adresse":"12 RUE EXEMPLE 75001 PARIS","latitude":"48.8602","longitude":"2.3417"}},
		{"siren":"987654321","nom_complet":"BOULANGERIE","nature_juridique":"5499","activite_principale":"10.71C",
		 "siege":{"adresse":"ailleurs"},"matching_etablissements":[{"adresse":"14 RUE EXEMPLE","latitude":48.8604,"longitude":2.3419}]}]}`,
		func(r *http.Request) { assert.Equal(t, "0.05", r.URL.Query().Get("radius")) })

	out := NewOwnership(newTestGetter(srv), srv.URL).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	require.Len(t, out.Value.Companies, 2)
	assert.True(t, out.Value.Companies[0].RealEstate)
	assert.False(t, out.Value.Companies[1].RealEstate)
	assert.Equal(t, "14 RUE EXEMPLE", out.Value.Companies[1].Address)
	assert.Greater(t, out.Value.Companies[1].Distance, 0.0)
}

type stubZones struct {
	zones []model.Zone
	err   error
}

func (s stubZones) Zones(context.Context, float64, float64) ([]model.Zone, error) {
	return s.zones, s.err
}

func (s stubZones) ZonesURL(float64, float64) (string, error) { return "https://gpu.test/zone-urba", nil }

func TestUrbanism(t *testing.T) {
	out := NewUrbanism(stubZones{zones: []model.Zone{{Label: "UG", Kind: "U"}}}).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	assert.Equal(t, model.StatusOK, out.Value.Status)
	assert.Equal(t, "https://gpu.test/zone-urba", out.Provenance.URL)

	out = NewUrbanism(stubZones{}).Fetch(context.Background(), testInput())
	require.True(t, out.OK())
	assert.Equal(t, model.StatusEmpty, out.Value.Status)
	assert.NotNil(t, out.Value.Zones)
}

func TestTasks_SectionOrder(t *testing.T) {
	tasks := Tasks(Deps{Zones: stubZones{}, Bounds: reconcile.DefaultBounds(), Timeout: time.Second})
	require.Len(t, tasks, len(model.SectionNames))
	for i, task := range tasks {
		assert.Equal(t, model.SectionNames[i], task.Section)
	}
}
