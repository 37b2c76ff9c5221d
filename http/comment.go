package http

import (
	"net/http"

	"go.uber.org/zap"

	"microblog/auth"
	"microblog/domain"
	"microblog/errs"
)

// handleAddComment handles the route "POST /{username}/{post_id}/comment/".
// An invalid (empty) comment is not persisted; valid or not, the client
// is sent back to the post page.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	_, post, ok := s.postFromVars(w, r)
	if !ok {
		return
	}
	user := auth.GetUser(r.Context())

	form := CommentForm{Text: r.PostFormValue("text")}
	if err := validate.Struct(&form); err == nil {
		comment := &domain.Comment{
			PostID:   post.ID,
			AuthorID: user.ID,
			Text:     form.Text,
		}
		if err := s.cs.Create(comment); err != nil {
			switch errs.ErrorCode(err) {
			case errs.ENOTFOUND:
				s.handleNotFound(w, r)
				return
			case errs.EINVALID:
				// Rejected by the service's own text check; treated the
				// same as a form failure, nothing is persisted.
			default:
				s.log.Error("err creating comment", zap.Error(err))
				s.renderServerError(w, r)
				return
			}
		}
	}

	http.Redirect(w, r, postPath(post), http.StatusFound)
}
