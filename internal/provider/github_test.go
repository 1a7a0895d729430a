package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advyta/dashboard/internal/apperror"
	"github.com/advyta/dashboard/internal/fetch"
)

func trendingBody() string {
	return `{
		"total_count": 42,
		"incomplete_results": false,
		"items": [
			{"id": 1, "full_name": "facebook/react", "stargazers_count": 230000,
			 "owner": {"login": "facebook", "avatar_url": "https://example.com/a.png"}},
			{"id": 2, "full_name": "golang/go", "stargazers_count": 125000,
			 "owner": {"login": "golang", "avatar_url": "https://example.com/g.png"}}
		]
	}`
}

func TestGitHub_Trending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "stars:>50000" || q.Get("sort") != "stars" ||
			q.Get("order") != "desc" || q.Get("per_page") != "6" {
			t.Errorf("unexpected search query: %v", q)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept header = %q", got)
		}
		fmt.Fprint(w, trendingBody())
	}))
	t.Cleanup(srv.Close)

	gh := NewGitHub(srv.URL, "")
	result, err := gh.Trending(context.Background())
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if result.TotalCount != 42 {
		t.Errorf("TotalCount = %d, want 42", result.TotalCount)
	}
	if len(result.Items) != 2 || result.Items[0].FullName != "facebook/react" {
		t.Errorf("Items = %+v", result.Items)
	}
}

func TestGitHub_TokenAttachedWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-pat" {
			t.Errorf("Authorization header = %q, want Bearer test-pat", got)
		}
		fmt.Fprint(w, trendingBody())
	}))
	t.Cleanup(srv.Close)

	gh := NewGitHub(srv.URL, "test-pat")
	if _, err := gh.Trending(context.Background()); err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
}

func TestGitHub_RateLimitedIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "API rate limit exceeded"}`, http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	gh := NewGitHub(srv.URL, "")
	_, err := gh.Trending(context.Background())
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Trending() error = %v, want ErrUpstream", err)
	}
	if !fetch.IsPermanent(err) {
		t.Error("a 403 must be permanent")
	}
}
