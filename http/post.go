package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"microblog/auth"
	"microblog/domain"
	"microblog/errs"
	"microblog/views"
)

func (s *Server) registerPostRoutes(r *mux.Router, rdb *redis.Client, cacheTTL time.Duration) {
	// The index is the only cached route. A write may stay invisible here
	// until the cache entry expires; that staleness window is accepted.
	cache := newPageCache(rdb, cacheTTL, s.log)
	r.Handle("/", cache.wrap(http.HandlerFunc(s.handleIndex))).Methods("GET")

	r.HandleFunc("/new/", s.requireAuth(s.handleNewPost)).Methods("GET")
	r.HandleFunc("/new/", s.requireAuth(s.handleCreatePost)).Methods("POST")
}

// handleIndex handles the route "GET /".
// It renders one page of all posts, newest first.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.ps.Index(domain.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		s.log.Error("err loading index page", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	s.views.Render(w, http.StatusOK, "index", &views.IndexData{
		Base: s.base(r),
		Page: page,
	})
}

// handleNewPost handles the route "GET /new/".
// It renders the empty post form.
func (s *Server) handleNewPost(w http.ResponseWriter, r *http.Request) {
	s.renderPostForm(w, r, &views.PostFormData{Base: s.base(r)})
}

// handleCreatePost handles the route "POST /new/".
// An invalid form re-renders with field errors and nothing is persisted.
// On success the new post belongs to the caller and the client is sent
// back to the index.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	form, file, header, err := parsePostForm(r)
	if err != nil {
		s.log.Warn("err parsing post form", zap.Error(err))
		s.renderPostForm(w, r, &views.PostFormData{
			Base:   s.base(r),
			Errors: map[string]string{"form": "The submitted form could not be read."},
		})
		return
	}
	if file != nil {
		defer file.Close()
	}

	fieldErrs := fieldErrors(validate.Struct(form))

	// The image is validated up front so a bad file rejects the whole
	// form before the post row exists.
	var img *domain.Image
	if file != nil {
		img = &domain.Image{File: file, Filename: header.Filename}
		if err := s.is.Validate(img); err != nil {
			fieldErrs["image"] = errs.ErrorMessage(err)
		}
	}

	if len(fieldErrs) > 0 {
		s.renderPostForm(w, r, &views.PostFormData{
			Base:    s.base(r),
			Errors:  fieldErrs,
			Text:    form.Text,
			GroupID: derefGroupID(form.GroupID),
		})
		return
	}

	post := &domain.Post{
		Text:     form.Text,
		GroupID:  form.GroupID,
		AuthorID: user.ID,
	}
	if err := s.ps.Create(post); err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			s.renderPostForm(w, r, &views.PostFormData{
				Base:    s.base(r),
				Errors:  map[string]string{"form": errs.ErrorMessage(err)},
				Text:    form.Text,
				GroupID: derefGroupID(form.GroupID),
			})
			return
		}
		s.log.Error("err creating post", zap.Error(err))
		s.renderServerError(w, r)
		return
	}

	if img != nil {
		s.attachImage(post, img)
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// handlePostDetail handles the route "GET /{username}/{post_id}/".
// It renders the post, its comments in the order they were written, and
// an empty comment form.
func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	author, post, ok := s.postFromVars(w, r)
	if !ok {
		return
	}
	count, err := s.ps.CountByAuthor(author.ID)
	if err != nil {
		s.log.Error("err counting author posts", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	comments, err := s.cs.ByPost(post.ID)
	if err != nil {
		s.log.Error("err loading comments", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	s.views.Render(w, http.StatusOK, "post", &views.PostData{
		Base:     s.base(r),
		Author:   author,
		Count:    count,
		Post:     post,
		Comments: comments,
	})
}

// handleEditPost handles the route "GET /{username}/{post_id}/edit/".
// Only the author gets the form; everyone else is silently sent to the
// post's read view.
func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	_, post, ok := s.postFromVars(w, r)
	if !ok {
		return
	}
	user := auth.GetUser(r.Context())
	if user.ID != post.AuthorID {
		http.Redirect(w, r, postPath(post), http.StatusFound)
		return
	}
	s.renderPostForm(w, r, &views.PostFormData{
		Base:    s.base(r),
		Post:    post,
		Text:    post.Text,
		GroupID: derefGroupID(post.GroupID),
		Editing: true,
	})
}

// handleUpdatePost handles the route "POST /{username}/{post_id}/edit/".
// A non-owner caller is redirected to the post without any modification;
// that is a silent no-op, not an error. The author and publication date
// never change.
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	_, post, ok := s.postFromVars(w, r)
	if !ok {
		return
	}
	user := auth.GetUser(r.Context())
	if user.ID != post.AuthorID {
		http.Redirect(w, r, postPath(post), http.StatusFound)
		return
	}

	form, file, header, err := parsePostForm(r)
	if err != nil {
		s.log.Warn("err parsing post form", zap.Error(err))
		s.renderPostForm(w, r, &views.PostFormData{
			Base:    s.base(r),
			Post:    post,
			Errors:  map[string]string{"form": "The submitted form could not be read."},
			Editing: true,
		})
		return
	}
	if file != nil {
		defer file.Close()
	}

	fieldErrs := fieldErrors(validate.Struct(form))
	var img *domain.Image
	if file != nil {
		img = &domain.Image{File: file, Filename: header.Filename}
		if err := s.is.Validate(img); err != nil {
			fieldErrs["image"] = errs.ErrorMessage(err)
		}
	}
	if len(fieldErrs) > 0 {
		s.renderPostForm(w, r, &views.PostFormData{
			Base:    s.base(r),
			Post:    post,
			Errors:  fieldErrs,
			Text:    form.Text,
			GroupID: derefGroupID(form.GroupID),
			Editing: true,
		})
		return
	}

	post.Text = form.Text
	post.GroupID = form.GroupID
	if err := s.ps.Update(post); err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			s.renderPostForm(w, r, &views.PostFormData{
				Base:    s.base(r),
				Post:    post,
				Errors:  map[string]string{"form": errs.ErrorMessage(err)},
				Text:    form.Text,
				GroupID: derefGroupID(form.GroupID),
				Editing: true,
			})
			return
		}
		s.log.Error("err updating post", zap.Error(err))
		s.renderServerError(w, r)
		return
	}

	// Files are only touched once the update went through; a rejected
	// edit leaves the stored image intact.
	if img != nil {
		if err := s.is.DeleteAll(post.ID); err != nil {
			s.log.Warn("err removing replaced image", zap.Error(err))
		}
		post.Image = ""
		s.attachImage(post, img)
	}

	http.Redirect(w, r, postPath(post), http.StatusFound)
}

// attachImage stores the already validated image file and records its
// path on the post. A storage fault loses the image, not the post.
func (s *Server) attachImage(post *domain.Post, img *domain.Image) {
	img.PostID = post.ID
	if err := s.is.Create(img); err != nil {
		s.log.Error("err storing post image", zap.Error(err), zap.Int("post_id", post.ID))
		return
	}
	post.Image = img.RelativePath()
	if err := s.ps.Update(post); err != nil {
		s.log.Error("err recording post image", zap.Error(err), zap.Int("post_id", post.ID))
	}
}

// renderPostForm renders the create/edit form, loading the group choices.
func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, data *views.PostFormData) {
	groups, err := s.gs.All()
	if err != nil {
		s.log.Error("err loading groups", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	data.Groups = groups
	s.views.Render(w, http.StatusOK, "post_form", data)
}

// postFromVars resolves the {username} and {post_id} route variables.
// Unknown usernames and post ids become the 404 page; ok reports whether
// the handler should continue.
func (s *Server) postFromVars(w http.ResponseWriter, r *http.Request) (*domain.User, *domain.Post, bool) {
	vars := mux.Vars(r)
	author, err := s.us.ByUsername(vars["username"])
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			s.handleNotFound(w, r)
		} else {
			s.log.Error("err loading user", zap.Error(err))
			s.renderServerError(w, r)
		}
		return nil, nil, false
	}
	id, err := strconv.Atoi(vars["post_id"])
	if err != nil {
		s.handleNotFound(w, r)
		return nil, nil, false
	}
	post, err := s.ps.ByID(id)
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			s.handleNotFound(w, r)
			return nil, nil, false
		}
		s.log.Error("err loading post", zap.Error(err))
		s.renderServerError(w, r)
		return nil, nil, false
	}
	return author, post, true
}

// postPath returns the canonical detail path of a post.
func postPath(post *domain.Post) string {
	return fmt.Sprintf("/%s/%d/", post.Author.Username, post.ID)
}

// derefGroupID unwraps an optional group id for template use.
func derefGroupID(id *int) int {
	if id == nil {
		return 0
	}
	return *id
}
