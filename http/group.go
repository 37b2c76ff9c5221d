package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"microblog/domain"
	"microblog/errs"
	"microblog/views"
)

func (s *Server) registerGroupRoutes(r *mux.Router) {
	r.HandleFunc("/group/{slug}/", s.handleGroupPosts).Methods("GET")
}

// handleGroupPosts handles the route "GET /group/{slug}/".
// It renders one page of the group's posts, newest first.
// An unknown slug becomes the 404 page.
func (s *Server) handleGroupPosts(w http.ResponseWriter, r *http.Request) {
	group, err := s.gs.BySlug(mux.Vars(r)["slug"])
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			s.handleNotFound(w, r)
			return
		}
		s.log.Error("err loading group", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	page, err := s.ps.ByGroup(group.ID, domain.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		s.log.Error("err loading group posts", zap.Error(err))
		s.renderServerError(w, r)
		return
	}
	s.views.Render(w, http.StatusOK, "group", &views.GroupData{
		Base:  s.base(r),
		Group: group,
		Page:  page,
	})
}
