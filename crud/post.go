package crud

import (
	"strings"

	"gorm.io/gorm"

	"microblog/domain"
	"microblog/errs"
)

// PostService manages Posts.
// It implements the domain.PostService interface.
type PostService struct {
	postValidator
}

// postValidator runs validations on incoming Post data.
// On success, it passes the data on to postGorm.
// Otherwise, it returns the error of the validation that has failed.
type postValidator struct {
	postGorm
}

// postGorm runs CRUD operations on the database using incoming Post data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type postGorm struct {
	db *gorm.DB
}

// NewPostService returns an instance of PostService.
func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		postValidator{
			postGorm{
				db: db,
			},
		},
	}
}

// Ensure the PostService struct properly implements the domain.PostService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.PostService = &PostService{}

// Create runs validations needed for creating new Post database records.
func (pv *postValidator) Create(post *domain.Post) error {
	err := runPostValFns(post,
		pv.authorIdValid,
		pv.textRequired,
		pv.groupExists)
	if err != nil {
		return err
	}
	return pv.postGorm.Create(post)
}

// Update runs validations on the incoming data, then applies the mutable
// fields (text, group, image) to the stored record. The author and the
// publication date can never change, no matter what the passed in object
// carries in those fields.
func (pv *postValidator) Update(post *domain.Post) error {
	err := runPostValFns(post,
		pv.idValid,
		pv.textRequired,
		pv.groupExists)
	if err != nil {
		return err
	}
	return pv.postGorm.Update(post)
}

// runPostValFns runs any number of functions of type postValFn on the passed in Post object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runPostValFns(post *domain.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

// A postValFn is any function that takes in a pointer to a domain.Post object and returns an error.
type postValFn func(post *domain.Post) error

// authorIdValid ensures that the author ID is not empty.
func (pv *postValidator) authorIdValid(post *domain.Post) error {
	if post.AuthorID <= 0 {
		return errs.Errorf(errs.EINVALID, "An author is required.")
	}
	return nil
}

// idValid makes sure that the passed in ID of a Post to be updated is greater than 0.
func (pv *postValidator) idValid(post *domain.Post) error {
	if post.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "The post ID is invalid.")
	}
	return nil
}

// textRequired makes sure that the post's text is not empty.
func (pv *postValidator) textRequired(post *domain.Post) error {
	if strings.TrimSpace(post.Text) == "" {
		return errs.Errorf(errs.EINVALID, "Post text must not be empty.")
	}
	return nil
}

// groupExists makes sure that the group a post is assigned to actually exists.
// This check only runs if the incoming Post object has a group set.
func (pv *postValidator) groupExists(post *domain.Post) error {
	if post.GroupID == nil {
		return nil
	}
	err := pv.db.First(&domain.Group{}, "id = ?", *post.GroupID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errs.Errorf(errs.EINVALID, "The selected group does not exist.")
		}
		return err
	}
	return nil
}

// ByID retrieves a Post database record by ID, along with its author and group.
func (pg *postGorm) ByID(id int) (*domain.Post, error) {
	var post domain.Post
	err := pg.db.
		Preload("Author").
		Preload("Group").
		First(&post, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
		}
		return nil, err
	}
	return &post, nil
}

// Index returns one page of all posts, newest first.
func (pg *postGorm) Index(page int) (*domain.Page, error) {
	return pg.page(page, func(db *gorm.DB) *gorm.DB {
		return db
	})
}

// ByGroup returns one page of the posts belonging to a group, newest first.
func (pg *postGorm) ByGroup(groupID, page int) (*domain.Page, error) {
	return pg.page(page, func(db *gorm.DB) *gorm.DB {
		return db.Where("group_id = ?", groupID)
	})
}

// ByAuthor returns one page of the posts written by an author, newest first.
func (pg *postGorm) ByAuthor(authorID, page int) (*domain.Page, error) {
	return pg.page(page, func(db *gorm.DB) *gorm.DB {
		return db.Where("author_id = ?", authorID)
	})
}

// Feed returns one page of the posts written by every author the given
// user follows, newest first. A user who follows nobody gets an empty
// first page.
func (pg *postGorm) Feed(userID, page int) (*domain.Page, error) {
	return pg.page(page, func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN follows ON follows.author_id = posts.author_id").
			Where("follows.user_id = ?", userID)
	})
}

// CountByAuthor returns the number of posts an author has written.
func (pg *postGorm) CountByAuthor(authorID int) (int, error) {
	var count int64
	err := pg.db.Model(&domain.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// page runs a scoped post listing query twice: once to count, once to
// fetch the clamped page. The scope is applied to a fresh statement each
// time so conditions never leak between the two queries.
func (pg *postGorm) page(requested int, scope func(*gorm.DB) *gorm.DB) (*domain.Page, error) {
	var count int64
	err := scope(pg.db.Model(&domain.Post{})).Count(&count).Error
	if err != nil {
		return nil, err
	}
	p := domain.NewPage(requested, int(count))
	err = scope(pg.db.Model(&domain.Post{})).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at desc, posts.id desc").
		Offset(p.Offset()).
		Limit(domain.PageSize).
		Find(&p.Posts).Error
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create stores the data from the Post object in a new database record,
// then loads the author relation so callers can render it right away.
func (pg *postGorm) Create(post *domain.Post) error {
	if err := pg.db.Create(post).Error; err != nil {
		return err
	}
	return pg.db.Preload("Author").Preload("Group").First(post).Error
}

// Update applies the mutable fields to the stored record. Select limits
// the write so author_id and created_at stay untouched. Image is written
// even when empty so a removed image clears the column.
func (pg *postGorm) Update(post *domain.Post) error {
	err := pg.db.Model(&domain.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
	if err != nil {
		return err
	}
	return nil
}
