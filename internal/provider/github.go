package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/advyta/dashboard/internal/apperror"
	"github.com/advyta/dashboard/internal/fetch"
	"github.com/advyta/dashboard/internal/model"
)

// GitHubBaseURL is the production endpoint for the GitHub REST API.
const GitHubBaseURL = "https://api.github.com"

// GitHub fetches the most-starred repositories via the search API. A
// personal access token is optional; unauthenticated search works but gets a
// much lower rate limit.
type GitHub struct {
	baseURL string
	client  *http.Client
}

func NewGitHub(baseURL, pat string) *GitHub {
	client := newHTTPClient()
	if pat != "" {
		// StaticTokenSource adds "Authorization: Bearer <pat>" to every
		// request through the oauth2 transport.
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: pat})
		client = oauth2.NewClient(context.Background(), src)
		client.Timeout = defaultTimeout
	}
	return &GitHub{baseURL: baseURL, client: client}
}

// Trending returns the six most-starred repositories above 50k stars.
func (g *GitHub) Trending(ctx context.Context) (*model.TrendingResult, error) {
	q := url.Values{}
	q.Set("q", "stars:>50000")
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", "6")

	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")

	var result model.TrendingResult
	err := getJSON(ctx, g.client, g.baseURL+"/search/repositories?"+q.Encode(), header, &result)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", apperror.Upstream("Failed to fetch trending repositories"), err)
		if clientError(err) {
			// 403 here is the search rate limit or a revoked token.
			return nil, fetch.Permanent(wrapped)
		}
		return nil, wrapped
	}
	return &result, nil
}
