package domain

import (
	"time"
)

// Comment is a reply attached to a Post. It is owned by its author and
// disappears with the post or the author. CreatedAt is immutable.
type Comment struct {
	ID       int    `json:"id"`
	PostID   int    `json:"post_id" gorm:"notNull;index"`
	AuthorID int    `json:"author_id" gorm:"notNull;index"`
	Author   User   `json:"author"`
	Text     string `json:"text" gorm:"notNull"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentService is a set of methods to manipulate and work with the Comment model.
type CommentService interface {
	Create(comment *Comment) error
	ByPost(postID int) ([]Comment, error)
}
