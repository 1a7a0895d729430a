package auth

import (
	"context"
	"net/http"
	"strings"
)

// CookieName is the session cookie holding the signed token.
const CookieName = "token"

// contextKey is unexported so only this package can place identity values
// in a request context.
type contextKey string

const claimsKey contextKey = "claims"

// publicRoutes are reachable without authentication. A path is public on an
// exact match, or on a prefix match for nested routes ("/login/reset").
// "/" is exact-only, otherwise everything would be public.
var publicRoutes = []string{"/", "/login", "/signup"}

// IsPublicRoute reports whether the path is reachable without a session.
func IsPublicRoute(path string) bool {
	for _, p := range publicRoutes {
		if path == p {
			return true
		}
		if p != "/" && strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// CookieConfig controls the attributes of the session cookie. SameSite is
// always Lax; Secure is on in production deployments behind HTTPS.
type CookieConfig struct {
	Secure bool
}

// SetSessionCookie writes the session token cookie. HttpOnly keeps it out of
// reach of page scripts; MaxAge matches the token's own lifetime.
func SetSessionCookie(w http.ResponseWriter, token string, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie immediately (empty value,
// negative MaxAge).
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PageGuard gates page routes. Its decision table over
// {token present, token valid, route public}:
//
//	absent,  -,       protected → redirect /login
//	absent,  -,       public    → allow
//	present, invalid, any       → clear cookie, redirect /login
//	present, valid,   public    → redirect /dashboard
//	present, valid,   protected → allow
//
// Verification is a local HMAC check — no I/O — so the guard is cheap enough
// to run on every request. Any verification failure is treated as an absent
// identity (fail closed).
func PageGuard(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			public := IsPublicRoute(r.URL.Path)

			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				if !public {
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := tokens.Verify(cookie.Value)
			if !ok {
				// Stale or tampered cookie: remove it so the browser stops
				// resending it, then send the user to login.
				ClearSessionCookie(w, CookieConfig{Secure: r.TLS != nil})
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			if public {
				// Already authenticated; the public page is pointless.
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// RequireAuth guards API routes. Unlike PageGuard it never redirects: a
// missing or invalid token gets a 401 JSON envelope. On success the verified
// claims are stored in the request context.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := Identify(r, tokens)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"valid authentication required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// Identify reads and verifies the session cookie without enforcing anything.
// Handlers that map auth failures to their own status codes use this
// directly.
func Identify(r *http.Request, tokens *TokenService) (Claims, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Claims{}, false
	}
	return tokens.Verify(cookie.Value)
}

func withClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the verified identity placed in the context by
// PageGuard or RequireAuth. ok is false for anonymous requests.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok && claims.UserID != ""
}
