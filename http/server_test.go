package http

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"microblog/crud"
	"microblog/domain"
)

// newTestServices builds the service container on an in-memory sqlite
// database private to the test, storing images under mediaRoot.
func newTestServices(t *testing.T, mediaRoot string) *crud.Services {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		domain.User{},
		domain.Group{},
		domain.Post{},
		domain.Comment{},
		domain.Follow{},
	))
	services, err := crud.NewServices(
		db,
		crud.WithUser("test-pepper", "test-hmac-key"),
		crud.WithGroup(),
		crud.WithPost(),
		crud.WithComment(),
		crud.WithFollow(),
		crud.WithImage(mediaRoot),
	)
	require.NoError(t, err)
	return services
}

// newTestServer builds a dev-mode server without a page cache, so the
// handlers see every write immediately and forms post without a CSRF
// token.
func newTestServer(t *testing.T) (*Server, *crud.Services) {
	t.Helper()
	server, services, _ := newTestServerMedia(t)
	return server, services
}

// newTestServerMedia also hands back the media root so tests can check
// stored image files on disk.
func newTestServerMedia(t *testing.T) (*Server, *crud.Services, string) {
	t.Helper()
	mediaRoot := t.TempDir()
	services := newTestServices(t, mediaRoot)
	server, err := NewServer(false, "test-csrf-key", mediaRoot, zap.NewNop(), nil, 0, services)
	require.NoError(t, err)
	return server, services, mediaRoot
}

func createUser(t *testing.T, s *crud.Services, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	require.NoError(t, s.User.Create(user))
	return user
}

func createPost(t *testing.T, s *crud.Services, author *domain.User, text string) *domain.Post {
	t.Helper()
	post := &domain.Post{Text: text, AuthorID: author.ID}
	require.NoError(t, s.Post.Create(post))
	return post
}

func createGroup(t *testing.T, s *crud.Services, title, slug string) *domain.Group {
	t.Helper()
	group := &domain.Group{Title: title, Slug: slug}
	require.NoError(t, s.Group.Create(group))
	return group
}

// sessionCookie returns the remember-token cookie the authUser middleware
// resolves back to the given user.
func sessionCookie(user *domain.User) *http.Cookie {
	return &http.Cookie{Name: "remember_token", Value: user.Remember}
}

func get(srv *Server, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest("GET", path, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func postForm(srv *Server, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

// postMultipart submits the post form the way the browser does when a
// file is attached. fileBytes may be nil for a form without an image.
func postMultipart(t *testing.T, srv *Server, path string, fields map[string]string, filename string, fileBytes []byte, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileBytes != nil {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(fileBytes)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest("POST", path, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}
