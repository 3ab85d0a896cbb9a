package recommend

// Recommendation codes.
const (
	CodeEnergyPoor           = "energy_poor"
	CodeEnergyGood           = "energy_good"
	CodeRiskFlood            = "risk_flood"
	CodeRiskSeismic          = "risk_seismic"
	CodeRiskGround           = "risk_ground_movement"
	CodeRiskIndustrial       = "risk_industrial"
	CodeRiskRadon            = "risk_radon"
	CodeAirQualityPoor       = "air_quality_poor"
	CodeMarketOwnHistory     = "market_own_history"
	CodeMarketNeighborhood   = "market_neighborhood_only"
	CodeMarketSmallSample    = "market_small_sample"
	CodeSchoolsNearby        = "schools_nearby"
	CodeSchoolsNone          = "schools_none"
	CodeAmenitiesFew         = "amenities_few"
	CodeCrimeHigh            = "crime_high"
	CodeZoneNotConstructible = "zone_not_constructible"
	CodeRealEstateCompany    = "real_estate_company"
)

// Supported languages. Anything else falls back to French.
const (
	LangFR = "fr"
	LangEN = "en"
)

// messages are fmt templates keyed by code then language.
var messages = map[string]map[string]string{
	CodeEnergyPoor: {
		LangFR: "Étiquette énergie %s : logement énergivore, prévoir des travaux de rénovation.",
		LangEN: "Energy rating %s: energy-inefficient dwelling, plan for renovation work.",
	},
	CodeEnergyGood: {
		LangFR: "Étiquette énergie %s : bonne performance énergétique.",
		LangEN: "Energy rating %s: good energy performance.",
	},
	CodeRiskFlood: {
		LangFR: "La commune est exposée au risque d'inondation.",
		LangEN: "The commune is exposed to flood risk.",
	},
	CodeRiskSeismic: {
		LangFR: "La commune est exposée au risque sismique.",
		LangEN: "The commune is exposed to seismic risk.",
	},
	CodeRiskGround: {
		LangFR: "La commune est exposée aux mouvements de terrain.",
		LangEN: "The commune is exposed to ground movement.",
	},
	CodeRiskIndustrial: {
		LangFR: "La commune est exposée à un risque technologique ou industriel.",
		LangEN: "The commune is exposed to technological or industrial risk.",
	},
	CodeRiskRadon: {
		LangFR: "La commune est concernée par le radon.",
		LangEN: "The commune is concerned by radon exposure.",
	},
	CodeAirQualityPoor: {
		LangFR: "Qualité de l'air dégradée (indice %d).",
		LangEN: "Poor air quality (index %d).",
	},
	CodeMarketOwnHistory: {
		LangFR: "%d vente(s) retrouvée(s) pour ce bien.",
		LangEN: "%d past sale(s) found for this property.",
	},
	CodeMarketNeighborhood: {
		LangFR: "Section cadastrale inconnue : les prix reflètent la commune, pas le bien.",
		LangEN: "Cadastral section unknown: prices reflect the commune, not the property.",
	},
	CodeMarketSmallSample: {
		LangFR: "Peu de ventes comparables (%d) : le prix moyen est indicatif.",
		LangEN: "Few comparable sales (%d): the average price is indicative only.",
	},
	CodeSchoolsNearby: {
		LangFR: "%d établissement(s) scolaire(s) à moins de %.0f m.",
		LangEN: "%d school(s) within %.0f m.",
	},
	CodeSchoolsNone: {
		LangFR: "Aucun établissement scolaire dans le rayon de recherche.",
		LangEN: "No school within the search radius.",
	},
	CodeAmenitiesFew: {
		LangFR: "Peu de commerces et services à proximité (%d).",
		LangEN: "Few shops and services nearby (%d).",
	},
	CodeCrimeHigh: {
		LangFR: "Taux élevé pour « %s » (%.1f pour mille).",
		LangEN: "High rate for \"%s\" (%.1f per thousand).",
	},
	CodeZoneNotConstructible: {
		LangFR: "Zone %s du plan d'urbanisme : constructibilité limitée.",
		LangEN: "Urbanism plan zone %s: building rights are restricted.",
	},
	CodeRealEstateCompany: {
		LangFR: "%d société(s) immobilière(s) domiciliée(s) à cette adresse.",
		LangEN: "%d real-estate company(ies) registered at this address.",
	},
}
