package model

// Location is a resolved coordinate pair. Pointers distinguish "not yet
// resolved" from a legitimate zero coordinate (the equator exists).
type Location struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Resolved reports whether both coordinates are present.
func (l Location) Resolved() bool {
	return l.Lat != nil && l.Lon != nil
}

// Coord mirrors OpenWeather's coordinate object.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Condition is one weather condition entry (OpenWeather "weather" array).
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// WeatherMetrics mirrors OpenWeather's "main" block (metric units).
type WeatherMetrics struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

// Wind mirrors OpenWeather's "wind" block.
type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

// CurrentWeather is the current-conditions response from OpenWeather.
// Only the fields the dashboard renders are unmarshalled.
type CurrentWeather struct {
	Name    string         `json:"name"`
	Coord   Coord          `json:"coord"`
	Weather []Condition    `json:"weather"`
	Main    WeatherMetrics `json:"main"`
	Wind    Wind           `json:"wind"`
	Dt      int64          `json:"dt"`
	Sys     struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// ForecastEntry is one 3-hour forecast slot.
type ForecastEntry struct {
	Dt      int64          `json:"dt"` // unix seconds
	Main    WeatherMetrics `json:"main"`
	Weather []Condition    `json:"weather"`
	DtTxt   string         `json:"dt_txt"`
}

// Forecast is the 5-day/3-hour forecast response from OpenWeather.
type Forecast struct {
	List []ForecastEntry `json:"list"`
}

// WeatherLocation names the place a weather snapshot describes. Assembled
// from the current-conditions response, not requested separately.
type WeatherLocation struct {
	Name    string `json:"name"`
	Coord   Coord  `json:"coord"`
	Country string `json:"country,omitempty"`
}

// WeatherData bundles current conditions and the raw forecast for one
// location. Derived daily/hourly views are computed by consumers and are
// not persisted here.
type WeatherData struct {
	Current  CurrentWeather  `json:"current"`
	Forecast Forecast        `json:"forecast"`
	Location WeatherLocation `json:"location"`
}

// NewsArticle is one headline from the news provider. Field names follow
// newsdata.io's response so articles pass through unchanged.
type NewsArticle struct {
	ArticleID   string   `json:"article_id"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	SourceName  string   `json:"source_name"`
	SourceIcon  string   `json:"source_icon"`
	PubDate     string   `json:"pubDate"`
	Country     []string `json:"country,omitempty"`
}

// RepoOwner is the owner block of a GitHub repository.
type RepoOwner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Repo is a read-only snapshot of one trending repository.
type Repo struct {
	ID              int64     `json:"id"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	Language        string    `json:"language"`
	Owner           RepoOwner `json:"owner"`
}

// TrendingResult is the GitHub repository-search response shape.
type TrendingResult struct {
	TotalCount        int    `json:"total_count"`
	IncompleteResults bool   `json:"incomplete_results"`
	Items             []Repo `json:"items"`
}
