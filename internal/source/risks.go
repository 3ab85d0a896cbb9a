package source

import (
	"context"
	"net/url"
	"strings"

	"github.com/sells-group/property-profile/internal/fetcher"
	"github.com/sells-group/property-profile/internal/model"
)

type gasparResponse struct {
	Data []struct {
		CodeInsee     string `json:"code_insee"`
		RisquesDetail []struct {
			NumRisque        string `json:"num_risque"`
			LibelleRisqueLon string `json:"libelle_risque_long"`
		} `json:"risques_detail"`
	} `json:"data"`
}

// Risks lists the hazards registered for the commune in GASPAR.
type Risks struct {
	getter  JSONGetter
	baseURL string
}

// NewRisks creates the risks adapter.
func NewRisks(getter JSONGetter, baseURL string) *Risks {
	return &Risks{getter: getter, baseURL: baseURL}
}

// Section implements Adapter.
func (a *Risks) Section() string { return model.SectionRisks }

// Source implements Adapter.
func (a *Risks) Source() string { return "georisques" }

// Fetch implements Adapter.
func (a *Risks) Fetch(ctx context.Context, in Input) Outcome[model.RiskSection] {
	if in.Location.CommuneCode == "" {
		return Fail[model.RiskSection](CauseNoLocation, "no commune code to query the risk registry")
	}
	reqURL := fetcher.BuildURL(a.baseURL, "/gaspar/risques", url.Values{"code_insee": {in.Location.CommuneCode}})

	var resp gasparResponse
	if err := a.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return FailErr[model.RiskSection](a.Source(), err)
	}

	hazards := make([]model.Hazard, 0)
	seen := make(map[string]bool)
	for _, d := range resp.Data {
		for _, r := range d.RisquesDetail {
			if r.NumRisque == "" || seen[r.NumRisque] {
				continue
			}
			seen[r.NumRisque] = true
			hazards = append(hazards, model.Hazard{
				Code:     r.NumRisque,
				Label:    strings.TrimSpace(r.LibelleRisqueLon),
				Category: hazardCategory(r.NumRisque),
			})
		}
	}

	return Success(model.RiskSection{
		SectionState: model.SectionState{Status: model.StatusFor(len(hazards))},
		Hazards:      hazards,
	}, a.Source(), reqURL)
}

// hazardCategory maps GASPAR risk numbers: 1xx natural, 2xx technological,
// 3xx mining.
func hazardCategory(code string) string {
	switch {
	case strings.HasPrefix(code, "1"):
		return "natural"
	case strings.HasPrefix(code, "2"):
		return "technological"
	case strings.HasPrefix(code, "3"):
		return "mining"
	default:
		return "other"
	}
}
