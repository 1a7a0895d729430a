// Package dashboard orchestrates the widget data sources behind one
// service: weather (by coordinates or city), localized news, reverse
// geocoding and GitHub trending. Each source sits behind its own
// fetch.Cache with the staleness window and retry budget that source
// warrants, and Snapshot aggregates them in parallel with per-widget
// failure isolation.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/advyta/dashboard/internal/fetch"
	"github.com/advyta/dashboard/internal/model"
)

// Fallbacks when geolocation or geocoding fails.
const (
	DefaultCity    = "London"
	DefaultCountry = "us"
)

// Staleness windows per source. Weather entries never go stale; they turn
// over on key change or explicit invalidation.
const (
	newsStaleness     = 5 * time.Minute
	trendingStaleness = 15 * time.Minute
	fetchRetries      = 1
)

// WeatherProvider is the upstream weather client.
type WeatherProvider interface {
	ByCoords(ctx context.Context, lat, lon float64) (*model.WeatherData, error)
	ByCity(ctx context.Context, city string) (*model.WeatherData, error)
}

// NewsProvider is the upstream headlines client.
type NewsProvider interface {
	Latest(ctx context.Context, country string) ([]model.NewsArticle, error)
}

// GeocodeProvider resolves coordinates to an ISO country code.
type GeocodeProvider interface {
	ReverseCountry(ctx context.Context, lat, lon float64) (string, error)
}

// TrendingProvider is the repository-search client.
type TrendingProvider interface {
	Trending(ctx context.Context) (*model.TrendingResult, error)
}

// WeatherKey identifies one weather lookup: either a coordinate pair or a
// city name. The zero key is unresolved and the cache refuses to fetch it.
type WeatherKey struct {
	City   string
	Lat    float64
	Lon    float64
	Coords bool
}

// Resolved reports whether the key names a fetchable location.
func (k WeatherKey) Resolved() bool {
	return k.Coords || k.City != ""
}

// trendingKey is a singleton key; the trending feed has no parameters.
type trendingKey struct{}

// Service is the widget-data orchestrator.
type Service struct {
	weather  *fetch.Cache[WeatherKey, *model.WeatherData]
	news     *fetch.Cache[string, []model.NewsArticle]
	trending *fetch.Cache[trendingKey, *model.TrendingResult]
	geocode  GeocodeProvider
	logger   *slog.Logger
}

func NewService(
	weather WeatherProvider,
	news NewsProvider,
	geocode GeocodeProvider,
	trending TrendingProvider,
	logger *slog.Logger,
) *Service {
	return &Service{
		weather: fetch.New(
			func(ctx context.Context, key WeatherKey) (*model.WeatherData, error) {
				if key.Coords {
					return weather.ByCoords(ctx, key.Lat, key.Lon)
				}
				return weather.ByCity(ctx, key.City)
			},
			fetch.Options[WeatherKey]{
				Retries: fetchRetries,
				Guard:   WeatherKey.Resolved,
			},
		),
		news: fetch.New(
			func(ctx context.Context, country string) ([]model.NewsArticle, error) {
				return news.Latest(ctx, country)
			},
			fetch.Options[string]{
				Staleness: newsStaleness,
				Retries:   fetchRetries,
				Guard:     func(country string) bool { return country != "" },
			},
		),
		trending: fetch.New(
			func(ctx context.Context, _ trendingKey) (*model.TrendingResult, error) {
				return trending.Trending(ctx)
			},
			fetch.Options[trendingKey]{
				Staleness: trendingStaleness,
				Retries:   fetchRetries,
			},
		),
		geocode: geocode,
		logger:  logger,
	}
}

// Weather returns the weather snapshot for key, cached per key.
func (s *Service) Weather(ctx context.Context, key WeatherKey) (*model.WeatherData, error) {
	return s.weather.Get(ctx, key)
}

// RefreshWeather drops the cached entry for key so the next lookup refetches.
func (s *Service) RefreshWeather(key WeatherKey) {
	s.weather.Invalidate(key)
}

// News returns up to five deduplicated headlines for the country code. An
// empty country falls back to DefaultCountry.
func (s *Service) News(ctx context.Context, country string) ([]model.NewsArticle, error) {
	if country == "" {
		country = DefaultCountry
	}
	articles, err := s.news.Get(ctx, country)
	if err != nil {
		return nil, err
	}
	return DedupeArticles(articles), nil
}

// Trending returns the cached trending-repositories feed.
func (s *Service) Trending(ctx context.Context) (*model.TrendingResult, error) {
	return s.trending.Get(ctx, trendingKey{})
}

// Country resolves a coordinate pair to an ISO country code.
func (s *Service) Country(ctx context.Context, lat, lon float64) (string, error) {
	return s.geocode.ReverseCountry(ctx, lat, lon)
}

// Snapshot is the aggregated dashboard payload. Widgets fail independently;
// a failed widget carries its message and leaves the rest intact.
type Snapshot struct {
	Weather     *model.WeatherData    `json:"weather,omitempty"`
	WeatherErr  string                `json:"weatherError,omitempty"`
	Daily       []model.ForecastEntry `json:"daily,omitempty"`
	Hourly      []model.ForecastEntry `json:"hourly,omitempty"`
	Country     string                `json:"country"`
	News        []model.NewsArticle   `json:"news,omitempty"`
	NewsErr     string                `json:"newsError,omitempty"`
	Trending    *model.TrendingResult `json:"trending,omitempty"`
	TrendingErr string                `json:"trendingError,omitempty"`
}

// BuildSnapshot fetches every widget for the given (possibly unresolved)
// location in parallel. Unresolved coordinates fall back to the default
// city for weather; a failed geocode falls back to the default country for
// news.
func (s *Service) BuildSnapshot(ctx context.Context, loc model.Location) Snapshot {
	var (
		snap Snapshot
		wg   sync.WaitGroup
	)

	weatherKey := WeatherKey{City: DefaultCity}
	if loc.Resolved() {
		weatherKey = WeatherKey{Lat: *loc.Lat, Lon: *loc.Lon, Coords: true}
	}

	wg.Add(3)

	go func() {
		defer wg.Done()
		data, err := s.Weather(ctx, weatherKey)
		if err != nil {
			s.logger.Warn("weather widget failed", slog.Any("error", err))
			snap.WeatherErr = err.Error()
			return
		}
		snap.Weather = data
		snap.Daily = DailyForecast(data.Forecast)
		snap.Hourly = HourlyForecast(data.Forecast)
	}()

	go func() {
		defer wg.Done()
		country := DefaultCountry
		if loc.Resolved() {
			code, err := s.Country(ctx, *loc.Lat, *loc.Lon)
			if err != nil {
				s.logger.Warn("geocode failed, using default country", slog.Any("error", err))
			} else {
				country = code
			}
		}
		snap.Country = country

		articles, err := s.News(ctx, country)
		if err != nil {
			s.logger.Warn("news widget failed", slog.Any("error", err))
			snap.NewsErr = err.Error()
			return
		}
		snap.News = articles
	}()

	go func() {
		defer wg.Done()
		result, err := s.Trending(ctx)
		if err != nil {
			s.logger.Warn("trending widget failed", slog.Any("error", err))
			snap.TrendingErr = err.Error()
			return
		}
		snap.Trending = result
	}()

	wg.Wait()
	return snap
}
