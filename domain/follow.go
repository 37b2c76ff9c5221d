package domain

import "time"

// Follow is a directed subscription edge: UserID follows AuthorID.
// The composite unique index keeps the edge set free of duplicates no
// matter how many times a follow request is repeated. Self-follows are
// suppressed at the service boundary, not by the schema.
type Follow struct {
	ID       int  `json:"id"`
	UserID   int  `json:"-" gorm:"notNull;index:idx_follow_pair,unique;index"`
	User     User `json:"user"`
	AuthorID int  `json:"-" gorm:"notNull;index:idx_follow_pair,unique"`
	Author   User `json:"author"`

	CreatedAt time.Time `json:"created_at"`
}

// FollowService is a set of methods to manipulate and work with the Follow model.
// Follow and Unfollow are idempotent: repeating either leaves the edge set
// unchanged and returns nil.
type FollowService interface {
	Follow(userID, authorID int) error
	Unfollow(userID, authorID int) error
	Following(userID, authorID int) (bool, error)
	AuthorIDs(userID int) ([]int, error)
}
