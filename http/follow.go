package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"microblog/auth"
	"microblog/domain"
	"microblog/views"
)

func (s *Server) registerFeedRoutes(r *mux.Router) {
	r.HandleFunc("/follow/", s.requireAuth(s.handleFeed)).Methods("GET")
}

// handleFeed handles the route "GET /follow/".
// It renders one page of the posts written by every author the caller
// follows, newest first. Following nobody yields an empty page, not an
// error.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	page, err := s.ps.Feed(user.ID, domain.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		s.log.Error("err loading feed", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	s.views.Render(w, http.StatusOK, "follow", &views.FollowData{
		Base: s.base(r),
		Page: page,
	})
}

// handleFollow handles the route "POST /{username}/follow/".
// Following yourself or an already followed author changes nothing;
// either way the client lands on the author's profile.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	author, ok := s.userFromVars(w, r)
	if !ok {
		return
	}
	user := auth.GetUser(r.Context())
	if err := s.fs.Follow(user.ID, author.ID); err != nil {
		s.log.Error("err creating follow", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	http.Redirect(w, r, "/"+author.Username+"/", http.StatusFound)
}

// handleUnfollow handles the route "POST /{username}/unfollow/".
// Unfollowing an author without an edge is a no-op that still succeeds.
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	author, ok := s.userFromVars(w, r)
	if !ok {
		return
	}
	user := auth.GetUser(r.Context())
	if err := s.fs.Unfollow(user.ID, author.ID); err != nil {
		s.log.Error("err deleting follow", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	http.Redirect(w, r, "/"+author.Username+"/", http.StatusFound)
}
