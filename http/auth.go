package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"microblog/auth"
	"microblog/domain"
	"microblog/errs"
	"microblog/views"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/auth/login/", s.handleLoginForm).Methods("GET")
	r.HandleFunc("/auth/login/", s.handleLogin).Methods("POST")
	r.HandleFunc("/auth/logout/", s.requireAuth(s.handleLogout)).Methods("POST")
	r.HandleFunc("/auth/signup/", s.handleSignupForm).Methods("GET")
	r.HandleFunc("/auth/signup/", s.handleSignup).Methods("POST")
}

// handleLoginForm handles the route "GET /auth/login/".
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.views.Render(w, http.StatusOK, "login", &views.AuthData{
		Base: s.base(r),
		Next: r.URL.Query().Get("next"),
	})
}

// handleLogin handles the route "POST /auth/login/".
// On success the caller gets their remember-token cookie and lands on
// the page they originally asked for (the next parameter), or the index.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	form := LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	next := r.URL.Query().Get("next")

	if err := validate.Struct(&form); err != nil {
		s.views.Render(w, http.StatusOK, "login", &views.AuthData{
			Base:     s.base(r),
			Errors:   fieldErrors(err),
			Username: form.Username,
			Next:     next,
		})
		return
	}

	user, err := s.us.Authenticate(form.Username, form.Password)
	if err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			s.views.Render(w, http.StatusOK, "login", &views.AuthData{
				Base:     s.base(r),
				Errors:   map[string]string{"login": errs.ErrorMessage(err)},
				Username: form.Username,
				Next:     next,
			})
			return
		}
		s.log.Error("err authenticating user", zap.Error(err))
		s.renderServerError(w, r)
		return
	}

	if err := s.signIn(w, user); err != nil {
		s.log.Error("err signing in user", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

// handleLogout handles the route "POST /auth/logout/".
// It rotates the remember token so the old cookie value is dead, then
// clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	token, err := auth.MakeRememberToken()
	if err != nil {
		s.log.Error("err making remember token", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	user.Remember = token
	if err := s.us.Update(user); err != nil {
		s.log.Error("err rotating remember token", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	// Path must match the sign-in cookie or the browser keeps the old one.
	http.SetCookie(w, &http.Cookie{
		Name:     "remember_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(1, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleSignupForm handles the route "GET /auth/signup/".
func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.views.Render(w, http.StatusOK, "signup", &views.AuthData{
		Base: s.base(r),
	})
}

// handleSignup handles the route "POST /auth/signup/".
// A fresh account is signed in right away.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	form := SignupForm{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	if err := validate.Struct(&form); err != nil {
		s.views.Render(w, http.StatusOK, "signup", &views.AuthData{
			Base:     s.base(r),
			Errors:   fieldErrors(err),
			Username: form.Username,
			Email:    form.Email,
		})
		return
	}

	user := &domain.User{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	}
	if err := s.us.Create(user); err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			s.views.Render(w, http.StatusOK, "signup", &views.AuthData{
				Base:     s.base(r),
				Errors:   map[string]string{"form": errs.ErrorMessage(err)},
				Username: form.Username,
				Email:    form.Email,
			})
			return
		}
		s.log.Error("err creating user", zap.Error(err))
		s.renderServerError(w, r)
		return
	}

	if err := s.signIn(w, user); err != nil {
		s.log.Error("err signing in new user", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// signIn is used to sign the given user in via cookies.
func (s *Server) signIn(w http.ResponseWriter, user *domain.User) error {
	if user.Remember == "" {
		token, err := auth.MakeRememberToken()
		if err != nil {
			return err
		}
		user.Remember = token
		if err := s.us.Update(user); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "remember_token",
		Value:    user.Remember,
		Path:     "/",
		HttpOnly: true,
	})
	return nil
}

// safeNext keeps post-login redirects on this site. Anything that is not
// a plain local path falls back to the index.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
