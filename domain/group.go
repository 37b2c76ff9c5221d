package domain

// Group is a named community that a Post may optionally belong to.
// Groups are managed by operators, not through the public routes.
type Group struct {
	ID          int    `json:"id"`
	Title       string `json:"title" gorm:"size:200;notNull"`
	Slug        string `json:"slug" gorm:"size:40;uniqueIndex;notNull"`
	Description string `json:"description"`

	Posts []Post `json:"posts" gorm:"foreignKey:GroupID"`
}

// GroupService is a set of methods to manipulate and work with the Group model.
type GroupService interface {
	Create(group *Group) error
	Update(group *Group) error
	BySlug(slug string) (*Group, error)
	All() ([]Group, error)
}
