package domain

import (
	"time"
)

// Post is a single blog entry. It always belongs to an author, may belong
// to a Group, and may carry one uploaded image (Image holds the path of
// the stored file relative to the media root). CreatedAt doubles as the
// publication date and never changes after creation; neither does the
// author. Text, group and image are the only mutable fields.
type Post struct {
	ID       int    `json:"id"`
	Text     string `json:"text" gorm:"notNull"`
	AuthorID int    `json:"author_id" gorm:"notNull;index"`
	Author   User   `json:"author"`
	GroupID  *int   `json:"group_id,omitempty"`
	Group    *Group `json:"group,omitempty"`
	Image    string `json:"image,omitempty"`

	Comments []Comment `json:"comments" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostService is a set of methods to manipulate and work with the Post model.
// Every listing method returns a Page: newest first, ten per page, with the
// requested page number clamped to the nearest valid page.
type PostService interface {
	Create(post *Post) error
	Update(post *Post) error
	ByID(id int) (*Post, error)
	Index(page int) (*Page, error)
	ByGroup(groupID, page int) (*Page, error)
	ByAuthor(authorID, page int) (*Page, error)
	Feed(userID, page int) (*Page, error)
	CountByAuthor(authorID int) (int, error)
}
