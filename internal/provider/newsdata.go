package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/advyta/dashboard/internal/apperror"
	"github.com/advyta/dashboard/internal/fetch"
	"github.com/advyta/dashboard/internal/model"
)

// NewsDataBaseURL is the production endpoint for newsdata.io.
const NewsDataBaseURL = "https://newsdata.io"

// NewsData fetches the latest headlines for one country from newsdata.io.
type NewsData struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewNewsData(baseURL, apiKey string) *NewsData {
	return &NewsData{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(),
	}
}

// newsEnvelope is newsdata.io's response wrapper. The API reports failures
// in-band through status, not only via HTTP codes.
type newsEnvelope struct {
	Status  string              `json:"status"`
	Results []model.NewsArticle `json:"results"`
}

// Latest returns up to 5 headlines for the given ISO country code. The code
// is lowercased on the way out; newsdata.io rejects uppercase.
func (n *NewsData) Latest(ctx context.Context, country string) ([]model.NewsArticle, error) {
	if n.apiKey == "" {
		return nil, fetch.Permanent(apperror.Upstream("Missing NewsData API key"))
	}

	q := url.Values{}
	q.Set("apikey", n.apiKey)
	q.Set("size", "5")
	q.Set("country", strings.ToLower(country))

	var envelope newsEnvelope
	if err := getJSON(ctx, n.client, n.baseURL+"/api/1/latest?"+q.Encode(), nil, &envelope); err != nil {
		wrapped := fmt.Errorf("%w: %w", apperror.Upstream("Failed to fetch news"), err)
		if clientError(err) {
			return nil, fetch.Permanent(wrapped)
		}
		return nil, wrapped
	}

	if envelope.Status != "success" {
		return nil, apperror.Upstream("Failed to fetch news")
	}
	return envelope.Results, nil
}
