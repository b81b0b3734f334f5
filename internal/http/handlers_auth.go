package http

import (
	"errors"
	"net/http"

	"github.com/Atanda1/dca-experiment/internal/data"
	"github.com/Atanda1/dca-experiment/internal/log"
)

type loginPageData struct {
	Email string
	Error string
}

// handleLogin renders the sign-in page and processes credential submissions.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", loginPageData{})
	case http.MethodPost:
		s.handleSignIn(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)
	if !s.rateLimiter.allow(clientIP) {
		s.logger.WarnContext(r.Context(), "Sign-in rate limit exceeded",
			log.FieldClientIP, clientIP,
			log.FieldOperation, log.OpSignIn)
		w.Header().Set("Retry-After", "60")
		http.Error(w, "Too many sign-in attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.logger.ErrorContext(r.Context(), "Parse form error", log.FieldError, err, log.FieldPath, r.URL.Path)
		s.renderStatus(w, r, http.StatusBadRequest, "login.html", loginPageData{Error: "Invalid request format"})
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")
	if email == "" || password == "" {
		s.renderStatus(w, r, http.StatusUnprocessableEntity, "login.html", loginPageData{Email: email, Error: "Email and password are required"})
		return
	}

	if err := s.sessions.SignIn(r.Context(), email, password); err != nil {
		if errors.Is(err, data.ErrInvalidCredentials) {
			s.renderStatus(w, r, http.StatusUnauthorized, "login.html", loginPageData{Email: email, Error: "Invalid email or password"})
			return
		}
		s.logger.ErrorContext(r.Context(), "Sign-in failed",
			log.FieldError, err,
			log.FieldOperation, log.OpSignIn)
		s.renderStatus(w, r, http.StatusBadGateway, "login.html", loginPageData{Email: email, Error: "Sign-in is temporarily unavailable"})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout invalidates the session remotely before clearing it locally.
// When the remote sign-out fails the session stays usable and the user
// lands back on the dashboard.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if _, ok := s.sessions.CurrentSession(); !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := s.sessions.SignOut(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Sign-out failed",
			log.FieldError, err,
			log.FieldOperation, log.OpSignOut)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
