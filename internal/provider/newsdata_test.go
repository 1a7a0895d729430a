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

func TestNewsData_Latest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("country"); got != "gb" {
			t.Errorf("country param = %q, want lowercased gb", got)
		}
		if got := r.URL.Query().Get("size"); got != "5" {
			t.Errorf("size param = %q, want 5", got)
		}
		fmt.Fprint(w, `{
			"status": "success",
			"results": [
				{"article_id": "a1", "title": "Headline one", "link": "https://example.com/1"},
				{"article_id": "a2", "title": "Headline two", "link": "https://example.com/2"}
			]
		}`)
	}))
	t.Cleanup(srv.Close)

	nd := NewNewsData(srv.URL, "key")
	articles, err := nd.Latest(context.Background(), "GB")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("Latest() returned %d articles, want 2", len(articles))
	}
	if articles[0].Title != "Headline one" {
		t.Errorf("articles[0].Title = %q", articles[0].Title)
	}
}

func TestNewsData_InBandFailureStatus(t *testing.T) {
	// newsdata.io can answer 200 with status "error" in the body.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status": "error", "results": []}`)
	}))
	t.Cleanup(srv.Close)

	nd := NewNewsData(srv.URL, "key")
	_, err := nd.Latest(context.Background(), "us")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Latest() error = %v, want ErrUpstream", err)
	}
}

func TestNewsData_MissingAPIKey(t *testing.T) {
	nd := NewNewsData("http://unused.invalid", "")

	_, err := nd.Latest(context.Background(), "us")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Latest() error = %v, want ErrUpstream", err)
	}
	if !fetch.IsPermanent(err) {
		t.Error("missing key error must be permanent")
	}
}
