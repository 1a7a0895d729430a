package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/advyta/dashboard/internal/apperror"
	"github.com/advyta/dashboard/internal/fetch"
)

// GeoapifyBaseURL is the production endpoint for Geoapify.
const GeoapifyBaseURL = "https://api.geoapify.com"

// Geoapify reverse-geocodes a coordinate pair into an ISO country code. The
// dashboard uses the code to localize the news widget.
type Geoapify struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGeoapify(baseURL, apiKey string) *Geoapify {
	return &Geoapify{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(),
	}
}

type geocodeResponse struct {
	Features []struct {
		Properties struct {
			CountryCode string `json:"country_code"`
		} `json:"properties"`
	} `json:"features"`
}

// ReverseCountry returns the uppercase ISO country code for a coordinate
// pair. Coordinates over open water resolve to no feature, which maps to a
// not-found the caller turns into the "us" news fallback.
func (g *Geoapify) ReverseCountry(ctx context.Context, lat, lon float64) (string, error) {
	if g.apiKey == "" {
		return "", fetch.Permanent(apperror.Upstream("Missing Geoapify API key"))
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("apiKey", g.apiKey)

	var resp geocodeResponse
	if err := getJSON(ctx, g.client, g.baseURL+"/v1/geocode/reverse?"+q.Encode(), nil, &resp); err != nil {
		wrapped := fmt.Errorf("%w: %w", apperror.Upstream("Failed to fetch country"), err)
		if clientError(err) {
			return "", fetch.Permanent(wrapped)
		}
		return "", wrapped
	}

	if len(resp.Features) == 0 || resp.Features[0].Properties.CountryCode == "" {
		return "", fetch.Permanent(apperror.NotFound("Country not found"))
	}
	return strings.ToUpper(resp.Features[0].Properties.CountryCode), nil
}
