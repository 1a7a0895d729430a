// Package client is a Go consumer of the dashboard API. It keeps the
// session cookie in a jar, mirrors the server's error envelope as typed
// errors, and plugs into session.Store as its ProfileFetcher.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/advyta/dashboard/internal/model"
	"github.com/advyta/dashboard/internal/session"
)

// APIError is a non-2xx response carrying the server's error message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to one dashboard server. The cookie jar carries the session
// token between calls, the way a browser would.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("client: creating cookie jar: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}, nil
}

// SessionStore returns a session.Store wired to this client's profile
// endpoint, so Initialize rehydrates from the cookie in the jar.
func (c *Client) SessionStore() *session.Store {
	return session.NewStore(func(ctx context.Context) (*model.User, error) {
		return c.Profile(ctx)
	})
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == "" {
			envelope.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Error}
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("client: decoding response: %w", err)
		}
	}
	return nil
}

type authEnvelope struct {
	Message string      `json:"message"`
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

type profileEnvelope struct {
	Message string      `json:"message"`
	Data    *model.User `json:"data"`
}

// Login signs in; the session cookie lands in the jar.
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	var out authEnvelope
	err := c.do(ctx, http.MethodPost, "/api/users/login",
		map[string]string{"username": username, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// Signup registers an account. It does not sign in; call Login afterwards.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*model.User, error) {
	var out authEnvelope
	err := c.do(ctx, http.MethodPost, "/api/users/signup",
		map[string]string{"username": username, "email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout expires the session cookie server-side; the jar picks up the
// replacement expired cookie automatically.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/users/logout", nil, nil)
}

// Profile fetches the signed-in user's record.
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var out profileEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// UpdateProfile applies a partial edit and returns the updated record.
func (c *Client) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error) {
	var out profileEnvelope
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", upd, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Weather fetches the weather snapshot by coordinates.
func (c *Client) Weather(ctx context.Context, lat, lon float64) (*model.WeatherData, error) {
	var out model.WeatherData
	path := fmt.Sprintf("/api/users/weather?lat=%g&lon=%g", lat, lon)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// News fetches headlines for a country code; empty means the server
// default.
func (c *Client) News(ctx context.Context, country string) ([]model.NewsArticle, error) {
	path := "/api/users/news"
	if country != "" {
		path += "?country=" + country
	}
	var out []model.NewsArticle
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Trending fetches the trending-repositories feed.
func (c *Client) Trending(ctx context.Context) (*model.TrendingResult, error) {
	var out model.TrendingResult
	if err := c.do(ctx, http.MethodGet, "/api/github/trending", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
