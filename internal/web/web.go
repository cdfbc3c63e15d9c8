// Package web serves the birthday calendar over HTTP: HTML pages, an ICS
// download, a JSON API and operational endpoints.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bdaycal/internal/anilist"
	"bdaycal/internal/birthday"
	"bdaycal/internal/config"
	"bdaycal/internal/ics"
	"bdaycal/internal/store"
)

// CharacterSource is the resilient lookup behind every page: the store in
// production, a fake in tests.
type CharacterSource interface {
	GetOrFetch(ctx context.Context, username string, now time.Time) (birthday.Collection, error)
}

// embeddedTemplates holds the HTML page templates.
//
//go:embed templates/*.html
var embeddedTemplates embed.FS

// Server provides the HTTP surface over a character source.
type Server struct {
	cfg    *config.Config
	source CharacterSource
	mux    *http.ServeMux
	tmpl   *template.Template
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, source CharacterSource) *Server {
	s := &Server{
		cfg:    cfg,
		source: source,
		mux:    http.NewServeMux(),
		tmpl:   template.Must(template.ParseFS(embeddedTemplates, "templates/*.html")),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		slog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/cal", s.handleCalendar)
	s.mux.HandleFunc("/ics", s.handleICS)
	s.mux.HandleFunc("/api/birthdays", s.handleAPI)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password is treated as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays reachable without credentials.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="bdaycal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderPage(w, http.StatusOK, "index", nil)
}

// characterView is the template/JSON-friendly projection of a character.
type characterView struct {
	Name           string `json:"name"`
	URL            string `json:"url"`
	Birthday       string `json:"birthday"`
	BirthdayISO    string `json:"birthday_iso"`
	NextOccurrence string `json:"next_occurrence"`
	TilNext        string `json:"til_next"`
	TilNextISO     string `json:"til_next_iso"`
}

// calendarView is the full page/API model for one username.
type calendarView struct {
	Username     string          `json:"username"`
	WindowDays   int             `json:"window_days"`
	Today        []characterView `json:"today"`
	WithinWindow []characterView `json:"within_window"`
	Future       []characterView `json:"future"`
}

// newCharacterView formats a character against the single reference
// instant used for the whole request.
func newCharacterView(ch birthday.Character, now time.Time) characterView {
	tilNext := ch.Birthday.TimeUntilNext(now)
	return characterView{
		Name:           ch.Name,
		URL:            ch.URL,
		Birthday:       ch.Birthday.String(),
		BirthdayISO:    ch.Birthday.ISOString(),
		NextOccurrence: ch.Birthday.NextOccurrence(now).Format(time.DateOnly),
		TilNext:        birthday.FormatDurationRounded(tilNext),
		TilNextISO:     birthday.FormatDurationISO(tilNext),
	}
}

func viewsOf(chars birthday.Collection, now time.Time) []characterView {
	views := make([]characterView, 0, len(chars))
	for _, ch := range chars {
		views = append(views, newCharacterView(ch, now))
	}
	return views
}

// buildCalendarView fetches, sorts and categorizes one user's birthdays.
// The reference instant is derived once and threaded through every
// comparison and every formatted row, so a request spanning midnight
// cannot render inconsistent buckets.
func (s *Server) buildCalendarView(ctx context.Context, username string, now time.Time) (calendarView, error) {
	chars, err := s.source.GetOrFetch(ctx, username, now)
	if err != nil {
		return calendarView{}, err
	}

	chars.SortByUpcoming(now)
	cats := chars.Categorize(now, s.cfg.WindowDays)

	return calendarView{
		Username:     username,
		WindowDays:   s.cfg.WindowDays,
		Today:        viewsOf(cats.Today, now),
		WithinWindow: viewsOf(cats.WithinWindow, now),
		Future:       viewsOf(cats.Future, now),
	}, nil
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		s.renderPage(w, http.StatusUnprocessableEntity, "index", nil)
		return
	}

	now := time.Now().UTC()
	view, err := s.buildCalendarView(r.Context(), username, now)
	if err != nil {
		s.renderFetchError(w, err)
		return
	}

	s.renderPage(w, http.StatusOK, "calendar", view)
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusUnprocessableEntity, "username query parameter is required")
		return
	}

	now := time.Now().UTC()
	chars, err := s.source.GetOrFetch(r.Context(), username, now)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	chars.SortByUpcoming(now)

	cal, err := ics.BuildCalendar(chars, now)
	if err != nil {
		slog.Error("ics build failed", "err", err, "username", username)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="birthdays.ics"`)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(cal))
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusUnprocessableEntity, "username query parameter is required")
		return
	}

	now := time.Now().UTC()
	view, err := s.buildCalendarView(r.Context(), username, now)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// renderFetchError maps a lookup failure onto the right status and HTML
// page. Unknown users get their own page; everything else is a server
// problem.
func (s *Server) renderFetchError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	switch status {
	case http.StatusNotFound:
		s.renderPage(w, status, "user_not_found", nil)
	default:
		slog.Error("birthday lookup failed", "err", err)
		s.renderPage(w, status, "server_error", nil)
	}
}

func statusForError(err error) int {
	switch {
	case anilist.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, store.ErrBreakerOpen):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name+".html", data); err != nil {
		slog.Error("template render failed", "err", err, "template", name)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
