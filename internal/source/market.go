package source

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/sells-group/property-profile/internal/fetcher"
	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/reconcile"
)

type dvfResponse struct {
	Resultats []dvfRow `json:"resultats"`
}

type dvfRow struct {
	IDMutation      string     `json:"id_mutation"`
	DateMutation    string     `json:"date_mutation"`
	NatureMutation  string     `json:"nature_mutation"`
	ValeurFonciere  flexFloat  `json:"valeur_fonciere"`
	AdresseNumero   flexString `json:"adresse_numero"`
	AdresseSuffixe  string     `json:"adresse_suffixe"`
	AdresseNomVoie  string     `json:"adresse_nom_voie"`
	TypeLocal       string     `json:"type_local"`
	SurfaceReelleBa flexFloat  `json:"surface_reelle_bati"`
}

// Market fetches sale records for the cadastral section (or the whole
// commune when the section is unknown) and reconciles them against the
// queried address.
type Market struct {
	getter  JSONGetter
	baseURL string
	bounds  reconcile.Bounds
}

// NewMarket creates the market adapter.
func NewMarket(getter JSONGetter, baseURL string, bounds reconcile.Bounds) *Market {
	return &Market{getter: getter, baseURL: baseURL, bounds: bounds}
}

// Section implements Adapter.
func (a *Market) Section() string { return model.SectionMarket }

// Source implements Adapter.
func (a *Market) Source() string { return "dvf" }

// WaitsForParcel implements ParcelWaiter.
func (a *Market) WaitsForParcel() bool { return true }

// Fetch implements Adapter.
func (a *Market) Fetch(ctx context.Context, in Input) Outcome[model.MarketSummary] {
	parcel := in.ParcelOrNil(ctx)

	params := url.Values{}
	switch {
	case parcel != nil:
		params.Set("section", parcel.ID())
	case in.Location.CommuneCode != "":
		params.Set("code_commune", in.Location.CommuneCode)
	default:
		return Fail[model.MarketSummary](CauseNoLocation, "no commune code to query the sales registry")
	}
	reqURL := fetcher.BuildURL(a.baseURL, "", params)

	var resp dvfResponse
	if err := a.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return FailErr[model.MarketSummary](a.Source(), err)
	}

	records := mutations(resp.Resultats)
	summary := reconcile.Reconcile(records, reconcile.NewQuery(in.Location, parcel != nil), a.bounds)
	if parcel != nil {
		summary.SectionID = parcel.ID()
	}
	return Success(summary, a.Source(), reqURL)
}

// mutations folds registry rows into one record per mutation. A mutation
// spans several rows when it sells a dwelling with its outbuildings: the
// price is repeated on every row and only dwelling surfaces count.
func mutations(rows []dvfRow) []model.TransactionRecord {
	byID := make(map[string]int)
	out := make([]model.TransactionRecord, 0, len(rows))
	for _, r := range rows {
		if !isDwelling(r.TypeLocal) {
			continue
		}
		if i, ok := byID[r.IDMutation]; ok && r.IDMutation != "" {
			out[i].Surface += float64(r.SurfaceReelleBa)
			continue
		}
		date, err := time.Parse("2006-01-02", r.DateMutation)
		if err != nil {
			continue
		}
		number := strings.TrimSpace(string(r.AdresseNumero) + r.AdresseSuffixe)
		byID[r.IDMutation] = len(out)
		out = append(out, model.TransactionRecord{
			ID:           r.IDMutation,
			Date:         date,
			Nature:       r.NatureMutation,
			Price:        float64(r.ValeurFonciere),
			Surface:      float64(r.SurfaceReelleBa),
			StreetNumber: number,
			StreetName:   r.AdresseNomVoie,
			PropertyType: r.TypeLocal,
			Source:       "dvf",
		})
	}
	return out
}

func isDwelling(typeLocal string) bool {
	return typeLocal == "Appartement" || typeLocal == "Maison"
}
