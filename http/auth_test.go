package http

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseCookie(h http.Header, name string) *http.Cookie {
	res := http.Response{Header: h}
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func cookieValue(h http.Header, name string) string {
	if c := responseCookie(h, name); c != nil {
		return c.Value
	}
	return ""
}

func TestSignup(t *testing.T) {
	srv, services := newTestServer(t)

	form := url.Values{
		"username": {"alice"},
		"email":    {"alice@example.com"},
		"password": {"password123"},
	}
	w := postForm(srv, "/auth/signup/", form)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// The fresh account is signed in right away.
	token := cookieValue(w.Header(), "remember_token")
	require.NotEmpty(t, token)
	user, err := services.User.ByRemember(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestSignupDuplicateUsername(t *testing.T) {
	srv, services := newTestServer(t)
	createUser(t, services, "alice")

	form := url.Values{
		"username": {"alice"},
		"email":    {"second@example.com"},
		"password": {"password123"},
	}
	w := postForm(srv, "/auth/signup/", form)
	// The form re-renders with the error instead of redirecting.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, cookieValue(w.Header(), "remember_token"))
}

func TestLogin(t *testing.T) {
	srv, services := newTestServer(t)
	createUser(t, services, "alice")

	form := url.Values{"username": {"alice"}, "password": {"password123"}}
	w := postForm(srv, "/auth/login/", form)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.NotEmpty(t, cookieValue(w.Header(), "remember_token"))
}

func TestLoginWrongPassword(t *testing.T) {
	srv, services := newTestServer(t)
	createUser(t, services, "alice")

	form := url.Values{"username": {"alice"}, "password": {"not-the-password"}}
	w := postForm(srv, "/auth/login/", form)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, cookieValue(w.Header(), "remember_token"))
}

func TestLoginRedirectsToNext(t *testing.T) {
	srv, services := newTestServer(t)
	createUser(t, services, "alice")

	form := url.Values{"username": {"alice"}, "password": {"password123"}}
	w := postForm(srv, "/auth/login/?next=/new/", form)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/new/", w.Header().Get("Location"))
}

func TestLoginNextStaysLocal(t *testing.T) {
	srv, services := newTestServer(t)
	createUser(t, services, "alice")

	form := url.Values{"username": {"alice"}, "password": {"password123"}}
	w := postForm(srv, "/auth/login/?next=https://evil.example", form)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = postForm(srv, "/auth/login/?next=//evil.example", form)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestLogoutRotatesRememberToken(t *testing.T) {
	srv, services := newTestServer(t)
	alice := createUser(t, services, "alice")
	oldToken := alice.Remember

	w := postForm(srv, "/auth/logout/", url.Values{}, sessionCookie(alice))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// The old cookie value no longer resolves to the user.
	_, err := services.User.ByRemember(oldToken)
	require.Error(t, err)

	// The clearing cookie has to carry the same path as the sign-in
	// cookie, and be expired, or the browser keeps the old one around.
	cleared := responseCookie(w.Header(), "remember_token")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, "/", cleared.Path)
	assert.True(t, cleared.MaxAge < 0 || cleared.Expires.Before(time.Now()))
}
