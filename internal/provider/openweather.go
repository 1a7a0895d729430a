package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/advyta/dashboard/internal/apperror"
	"github.com/advyta/dashboard/internal/fetch"
	"github.com/advyta/dashboard/internal/model"
)

// OpenWeatherBaseURL is the production endpoint for the 2.5 data API.
const OpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeather fetches current conditions and the 5-day/3-hour forecast,
// always in metric units. Current and forecast are requested in parallel;
// either one failing fails the whole snapshot.
type OpenWeather struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewOpenWeather(baseURL, apiKey string) *OpenWeather {
	return &OpenWeather{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(),
	}
}

// ByCoords fetches the weather snapshot for a coordinate pair.
func (w *OpenWeather) ByCoords(ctx context.Context, lat, lon float64) (*model.WeatherData, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return w.snapshot(ctx, q)
}

// ByCity fetches the weather snapshot for a named city ("London",
// "Paris,FR"). OpenWeather resolves the name itself.
func (w *OpenWeather) ByCity(ctx context.Context, city string) (*model.WeatherData, error) {
	if city == "" {
		return nil, fetch.Permanent(apperror.ValidationFailed("city", "City name is required"))
	}
	q := url.Values{}
	q.Set("q", city)
	return w.snapshot(ctx, q)
}

func (w *OpenWeather) snapshot(ctx context.Context, q url.Values) (*model.WeatherData, error) {
	if w.apiKey == "" {
		return nil, fetch.Permanent(apperror.Upstream("Missing OpenWeather API key"))
	}
	q.Set("appid", w.apiKey)
	q.Set("units", "metric")

	var (
		current  model.CurrentWeather
		forecast model.Forecast
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return getJSON(gctx, w.client, w.baseURL+"/weather?"+q.Encode(), nil, &current)
	})
	g.Go(func() error {
		return getJSON(gctx, w.client, w.baseURL+"/forecast?"+q.Encode(), nil, &forecast)
	})
	if err := g.Wait(); err != nil {
		return nil, weatherError(err)
	}

	return &model.WeatherData{
		Current:  current,
		Forecast: forecast,
		Location: model.WeatherLocation{
			Name:    current.Name,
			Coord:   current.Coord,
			Country: current.Sys.Country,
		},
	}, nil
}

func weatherError(err error) error {
	wrapped := fmt.Errorf("%w: %w", apperror.Upstream("Failed to fetch weather data"), err)
	if clientError(err) {
		// Bad city name, invalid key: the same request will keep failing.
		return fetch.Permanent(wrapped)
	}
	return wrapped
}
