package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/advyta/dashboard/internal/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler renders the page shells. The pages are deliberately thin:
// routing, guarding and session state live server-side, presentation is the
// client's job.
type PageHandler struct {
	templates *template.Template
	logger    *slog.Logger
}

func NewPageHandler(logger *slog.Logger) (*PageHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/page.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{templates: tmpl, logger: logger}, nil
}

type pageData struct {
	Title    string
	Page     string
	Username string
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, title, page string) {
	data := pageData{Title: title, Page: page}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		data.Username = claims.Username
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "base.html", data); err != nil {
		h.logger.Error("failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}

// HandleHome serves GET /.
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	// Chi routes "/" as a catch-all within this subtree; anything else under
	// it is a 404, not the home page.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "Welcome", "home")
}

// HandleLogin serves GET /login.
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Login", "login")
}

// HandleSignup serves GET /signup.
func (h *PageHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Sign up", "signup")
}

// HandleDashboard serves GET /dashboard.
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Dashboard", "dashboard")
}

// HandleProfile serves GET /profile.
func (h *PageHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Profile", "profile")
}
