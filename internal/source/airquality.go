package source

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sells-group/property-profile/internal/fetcher"
	"github.com/sells-group/property-profile/internal/model"
)

type airQualityResponse struct {
	Current *struct {
		Time         string   `json:"time"`
		EuropeanAQI  *float64 `json:"european_aqi"`
		PM10         float64  `json:"pm10"`
		PM25         float64  `json:"pm2_5"`
		NO2          float64  `json:"nitrogen_dioxide"`
		Ozone        float64  `json:"ozone"`
	} `json:"current"`
}

// AirQuality reads the current European air quality index.
type AirQuality struct {
	getter  JSONGetter
	baseURL string
}

// NewAirQuality creates the air quality adapter.
func NewAirQuality(getter JSONGetter, baseURL string) *AirQuality {
	return &AirQuality{getter: getter, baseURL: baseURL}
}

// Section implements Adapter.
func (a *AirQuality) Section() string { return model.SectionAirQuality }

// Source implements Adapter.
func (a *AirQuality) Source() string { return "open_meteo" }

// Fetch implements Adapter.
func (a *AirQuality) Fetch(ctx context.Context, in Input) Outcome[model.AirQualitySection] {
	reqURL := fetcher.BuildURL(a.baseURL, "", url.Values{
		"latitude":  {strconv.FormatFloat(in.Location.Latitude, 'f', 5, 64)},
		"longitude": {strconv.FormatFloat(in.Location.Longitude, 'f', 5, 64)},
		"current":   {"european_aqi,pm10,pm2_5,nitrogen_dioxide,ozone"},
	})

	var resp airQualityResponse
	if err := a.getter.GetJSON(ctx, reqURL, &resp); err != nil {
		return FailErr[model.AirQualitySection](a.Source(), err)
	}

	c := resp.Current
	if c == nil || c.EuropeanAQI == nil {
		return Success(model.AirQualitySection{
			SectionState: model.SectionState{Status: model.StatusEmpty},
		}, a.Source(), reqURL)
	}
	index := int(*c.EuropeanAQI + 0.5)
	return Success(model.AirQualitySection{
		SectionState: model.SectionState{Status: model.StatusOK},
		Index:        index,
		Level:        AQILevel(index),
		PM10:         c.PM10,
		PM25:         c.PM25,
		NO2:          c.NO2,
		Ozone:        c.Ozone,
		AsOf:         c.Time,
	}, a.Source(), reqURL)
}

// AQILevel returns the European AQI band of index.
func AQILevel(index int) string {
	switch {
	case index <= 20:
		return "good"
	case index <= 40:
		return "fair"
	case index <= 60:
		return "moderate"
	case index <= 80:
		return "poor"
	case index <= 100:
		return "very_poor"
	default:
		return "extremely_poor"
	}
}
