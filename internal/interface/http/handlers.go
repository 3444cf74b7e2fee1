package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/alem-hub/reboot-profile/internal/application/command"
	"github.com/alem-hub/reboot-profile/internal/application/query"
	"github.com/alem-hub/reboot-profile/internal/domain/session"
	"github.com/alem-hub/reboot-profile/internal/domain/shared"
	"github.com/alem-hub/reboot-profile/internal/infrastructure/metrics"
	"github.com/alem-hub/reboot-profile/internal/interface/http/handlers"
	"github.com/alem-hub/reboot-profile/pkg/logger"
)

// Login page messages.
const (
	msgLoginFailed = "Login failed. Please check your credentials and try again."
	msgLoadFailed  = "Could not load your profile. Please try again later."
)

// reasonExpired is the /login?reason= value set after a forced logout.
const reasonExpired = "expired"

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"healthy": true,
			"uptime":  s.Uptime().Round(time.Second).String(),
			"version": s.config.Version,
		})
		return
	}

	status := s.deps.Health.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN / LOGOUT
// ══════════════════════════════════════════════════════════════════════════════

// handleLoginPage handles GET /login.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	page := loginPage{}
	if r.URL.Query().Get("reason") == reasonExpired {
		page.Notice = session.ExpiredMessage
	}
	s.render(w, r, http.StatusOK, "login", page)
}

// handleLogin handles POST /login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login", loginPage{Error: command.ErrMissingCredentials.Message})
		return
	}
	cmd := command.LoginCommand{
		Identifier: r.PostFormValue("identifier"),
		Password:   r.PostFormValue("password"),
	}

	result, err := s.deps.Login.Handle(r.Context(), cmd)
	if err != nil {
		page := loginPage{Identifier: cmd.Identifier}
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, command.ErrMissingCredentials):
			metrics.RecordLogin(metrics.OutcomeDenied)
			page.Error = command.ErrMissingCredentials.Message
			status = http.StatusBadRequest
		case errors.Is(err, command.ErrInvalidCredentials):
			metrics.RecordLogin(metrics.OutcomeRejected)
			page.Error = command.ErrInvalidCredentials.Message
			status = http.StatusUnauthorized
		default:
			metrics.RecordLogin(metrics.OutcomeError)
			logger.FromContext(r.Context()).Error("login failed", logger.Err(err))
			page.Error = msgLoginFailed
		}
		s.render(w, r, status, "login", page)
		return
	}

	metrics.RecordLogin(metrics.OutcomeSuccess)
	s.setSessionCookie(w, result.Session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout handles POST /logout. Logging out without a session is fine.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := s.sessionID(r); id != "" {
		if err := s.deps.Logout.Handle(r.Context(), command.LogoutCommand{SessionID: id}); err != nil {
			logger.FromContext(r.Context()).Warn("logout failed", logger.SessionID(id), logger.Err(err))
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

// loadDashboard resolves the session cookie and assembles the dashboard.
// When there is no usable session it clears the cookie and returns the login
// URL to redirect to, together with the session error that caused it.
func (s *Server) loadDashboard(w http.ResponseWriter, r *http.Request) (*query.Dashboard, string, error) {
	id := s.sessionID(r)
	if id == "" {
		return nil, "/login", session.ErrSessionNotFound
	}

	d, err := s.deps.Dashboard.Handle(r.Context(), query.GetDashboardQuery{SessionID: id})
	metrics.RecordDashboardLoad(err)
	switch {
	case err == nil:
		return d, "", nil
	case errors.Is(err, session.ErrSessionExpired):
		s.clearSessionCookie(w)
		return nil, "/login?" + url.Values{"reason": {reasonExpired}}.Encode(), err
	case errors.Is(err, session.ErrSessionNotFound):
		s.clearSessionCookie(w)
		return nil, "/login", err
	default:
		logger.FromContext(r.Context()).Error("dashboard load failed", logger.SessionID(id), logger.Err(err))
		return nil, "", err
	}
}

// handleDashboard handles GET /?chart=xp|audit|projects|skills.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	active := ActiveTab(r.URL.Query().Get("chart"))

	d, redirect, err := s.loadDashboard(w, r)
	if redirect != "" {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	if err != nil {
		s.render(w, r, http.StatusBadGateway, "dashboard", dashboardPage{
			Error:       msgLoadFailed,
			Tabs:        tabsFor(active),
			ActiveChart: active,
		})
		return
	}

	page := dashboardPage{
		TabsEnabled: true,
		Tabs:        tabsFor(active),
		ActiveChart: active,
		Profile:     newProfileView(d, s.deps.Location),
	}
	if svg, ok := renderChart(active, d, s.deps.Location); ok {
		page.Chart = template.HTML(svg)
	}
	for _, name := range []string{ChartXPProjects, ChartPassFail, ChartAuditRatio} {
		if svg, ok := renderChart(name, d, s.deps.Location); ok {
			page.Side = append(page.Side, template.HTML(svg))
		}
	}
	s.render(w, r, http.StatusOK, "dashboard", page)
}

// handleChart handles GET /charts/{name}.svg.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	d, redirect, err := s.loadDashboard(w, r)
	if redirect != "" {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, msgLoadFailed, http.StatusBadGateway)
		return
	}

	svg, ok := renderChart(name, d, s.deps.Location)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(svg))
}

// handleDashboardJSON handles GET /api/v1/dashboard.
func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	d, redirect, err := s.loadDashboard(w, r)
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		writeJSONError(w, http.StatusUnauthorized, "session_expired", session.ExpiredMessage)
	case redirect != "":
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "Login required")
	case shared.IsExternalService(err):
		writeJSONError(w, http.StatusBadGateway, "upstream_error", msgLoadFailed)
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", msgLoadFailed)
	default:
		writeJSON(w, http.StatusOK, newAPIDashboard(d))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION COOKIE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(s.config.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		logger.FromContext(r.Context()).Error("template render failed", slog.String("template", name), logger.Err(err))
	}
}

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC(), Version: "v1"},
		RequestID: w.Header().Get(handlers.RequestIDHeader),
	})
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC()},
		RequestID: w.Header().Get(handlers.RequestIDHeader),
	})
}
