package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"microblog/auth"
	"microblog/domain"
	"microblog/errs"
	"microblog/views"
)

// registerProfileRoutes wires every /{username}/... route. These are the
// catch-alls, so server.go registers them last.
func (s *Server) registerProfileRoutes(r *mux.Router) {
	r.HandleFunc("/{username}/{post_id:[0-9]+}/comment/", s.requireAuth(s.handleAddComment)).Methods("POST")
	r.HandleFunc("/{username}/{post_id:[0-9]+}/edit/", s.requireAuth(s.handleEditPost)).Methods("GET")
	r.HandleFunc("/{username}/{post_id:[0-9]+}/edit/", s.requireAuth(s.handleUpdatePost)).Methods("POST")
	r.HandleFunc("/{username}/{post_id:[0-9]+}/", s.handlePostDetail).Methods("GET")
	r.HandleFunc("/{username}/follow/", s.requireAuth(s.handleFollow)).Methods("POST")
	r.HandleFunc("/{username}/unfollow/", s.requireAuth(s.handleUnfollow)).Methods("POST")
	r.HandleFunc("/{username}/", s.handleProfile).Methods("GET")
}

// handleProfile handles the route "GET /{username}/".
// It renders the author's metadata and one page of their posts, newest
// first. An unknown username becomes the 404 page.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	author, ok := s.userFromVars(w, r)
	if !ok {
		return
	}
	page, err := s.ps.ByAuthor(author.ID, domain.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		s.log.Error("err loading author posts", zap.Error(err))
		s.renderServerError(w, r)
		return
	}

	// The follow button state is only relevant for an authed viewer
	// looking at somebody else's profile.
	following := false
	if viewer := auth.GetUser(r.Context()); viewer != nil && viewer.ID != author.ID {
		following, err = s.fs.Following(viewer.ID, author.ID)
		if err != nil {
			s.log.Error("err checking follow state", zap.Error(err))
			s.renderServerError(w, r)
			return
		}
	}

	s.views.Render(w, http.StatusOK, "profile", &views.ProfileData{
		Base:      s.base(r),
		Author:    author,
		Count:     page.Count,
		Page:      page,
		Following: following,
	})
}

// userFromVars resolves the {username} route variable. An unknown
// username becomes the 404 page; ok reports whether the handler should
// continue.
func (s *Server) userFromVars(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, err := s.us.ByUsername(mux.Vars(r)["username"])
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			s.handleNotFound(w, r)
		} else {
			s.log.Error("err loading user", zap.Error(err))
			s.renderServerError(w, r)
		}
		return nil, false
	}
	return user, true
}
