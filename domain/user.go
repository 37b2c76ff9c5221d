package domain

import (
	"time"
)

// User is the account that authors posts and comments and follows other
// authors. Password and Remember only ever hold in-flight values coming
// from a request; the database stores their hashed counterparts.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username" gorm:"size:30;uniqueIndex;notNull"`
	Email    string `json:"email" gorm:"uniqueIndex;notNull"`

	Password     string `json:"-" gorm:"-"`
	PasswordHash string `json:"-" gorm:"notNull"`
	Remember     string `json:"-" gorm:"-"`
	RememberHash string `json:"-" gorm:"uniqueIndex"`

	Posts    []Post    `json:"posts" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Comments []Comment `json:"comments" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserService is a set of methods to manipulate and work with the User model.
// It also backs the cookie auth system: Authenticate checks credentials,
// ByRemember resolves the remember-token cookie to a user on every request.
type UserService interface {
	Create(user *User) error
	Update(user *User) error
	Authenticate(username, password string) (*User, error)
	ByID(id int) (*User, error)
	ByUsername(username string) (*User, error)
	ByRemember(token string) (*User, error)
}
