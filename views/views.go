package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"microblog/domain"
)

//go:embed templates/*.gohtml
var files embed.FS

// pages lists the content templates. Each is parsed together with the
// layout, so every rendered page shares the same chrome.
var pages = []string{
	"index",
	"group",
	"profile",
	"post",
	"post_form",
	"follow",
	"login",
	"signup",
	"404",
	"500",
}

// Renderer executes the embedded page templates. Pages are always
// rendered into a buffer first, so a template fault can still become a
// clean 500 instead of a half-written body.
type Renderer struct {
	templates map[string]*template.Template
	log       *zap.Logger
}

// New parses all embedded templates and returns a Renderer.
func New(log *zap.Logger) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template, len(pages)),
		log:       log,
	}
	for _, name := range pages {
		t, err := template.New("layout.gohtml").ParseFS(
			files,
			"templates/layout.gohtml",
			"templates/post_list.gohtml",
			"templates/"+name+".gohtml",
		)
		if err != nil {
			return nil, fmt.Errorf("err parsing template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render writes the named page with the given status code.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data interface{}) {
	t, ok := r.templates[name]
	if !ok {
		r.log.Error("unknown template", zap.String("template", name))
		http.Error(w, "Internal error.", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.gohtml", data); err != nil {
		r.log.Error("err executing template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal error.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Base carries what every page needs: the authed user for the nav and
// the CSRF field for forms.
type Base struct {
	User      *domain.User
	CSRFField template.HTML
}

// IndexData renders the global post listing.
type IndexData struct {
	Base
	Page *domain.Page
}

// GroupData renders a group's post listing.
type GroupData struct {
	Base
	Group *domain.Group
	Page  *domain.Page
}

// ProfileData renders an author's profile with their posts.
type ProfileData struct {
	Base
	Author    *domain.User
	Count     int
	Page      *domain.Page
	Following bool
}

// PostData renders a single post with its comments and the comment form.
type PostData struct {
	Base
	Author   *domain.User
	Count    int
	Post     *domain.Post
	Comments []domain.Comment
	Errors   map[string]string
	Text     string
}

// PostFormData renders the create/edit post form.
type PostFormData struct {
	Base
	Post    *domain.Post
	Groups  []domain.Group
	Errors  map[string]string
	Text    string
	GroupID int
	Editing bool
}

// FollowData renders the feed of followed authors.
type FollowData struct {
	Base
	Page *domain.Page
}

// AuthData renders the login and signup forms.
type AuthData struct {
	Base
	Errors   map[string]string
	Username string
	Email    string
	Next     string
}

// ErrorData renders the 404 and 500 pages.
type ErrorData struct {
	Base
	Path string
}
