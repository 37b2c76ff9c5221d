package http

import (
	"net/http"

	"microblog/views"
)

// handleNotFound renders the dedicated 404 page. It doubles as the
// router's NotFoundHandler and as the target for handlers that resolved
// a route variable to nothing.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.views.Render(w, http.StatusNotFound, "404", &views.ErrorData{
		Base: s.base(r),
		Path: r.URL.Path,
	})
}

// renderServerError renders the dedicated 500 page.
func (s *Server) renderServerError(w http.ResponseWriter, r *http.Request) {
	s.views.Render(w, http.StatusInternalServerError, "500", &views.ErrorData{
		Base: s.base(r),
		Path: r.URL.Path,
	})
}
