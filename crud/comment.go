package crud

import (
	"strings"

	"gorm.io/gorm"

	"microblog/domain"
	"microblog/errs"
)

// CommentService manages Comments.
// It implements the domain.CommentService interface.
type CommentService struct {
	commentValidator
}

// commentValidator runs validations on incoming Comment data.
// On success, it passes the data on to commentGorm.
// Otherwise, it returns the error of the validation that has failed.
type commentValidator struct {
	commentGorm
}

// commentGorm runs CRUD operations on the database using incoming Comment data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type commentGorm struct {
	db *gorm.DB
}

// NewCommentService returns an instance of CommentService.
func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{
		commentValidator{
			commentGorm{
				db: db,
			},
		},
	}
}

// Ensure the CommentService struct properly implements the domain.CommentService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.CommentService = &CommentService{}

// Create runs validations needed for creating new Comment database records.
func (cv *commentValidator) Create(comment *domain.Comment) error {
	err := runCommentValFns(comment,
		cv.authorIdValid,
		cv.commentedPostExists,
		cv.textRequired)
	if err != nil {
		return err
	}
	return cv.commentGorm.Create(comment)
}

// runCommentValFns runs any number of functions of type commentValFn on the passed in Comment object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runCommentValFns(comment *domain.Comment, fns ...commentValFn) error {
	for _, fn := range fns {
		if err := fn(comment); err != nil {
			return err
		}
	}
	return nil
}

// A commentValFn is any function that takes in a pointer to a domain.Comment object and returns an error.
type commentValFn func(comment *domain.Comment) error

// authorIdValid ensures that the author ID is not empty.
func (cv *commentValidator) authorIdValid(comment *domain.Comment) error {
	if comment.AuthorID <= 0 {
		return errs.Errorf(errs.EINVALID, "An author is required.")
	}
	return nil
}

// commentedPostExists makes sure that the post to be commented on actually exists.
func (cv *commentValidator) commentedPostExists(comment *domain.Comment) error {
	err := cv.db.First(&domain.Post{}, "id = ?", comment.PostID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errs.Errorf(errs.ENOTFOUND, "The commented post does not exist.")
		}
		return err
	}
	return nil
}

// textRequired makes sure that the comment's text is not empty.
func (cv *commentValidator) textRequired(comment *domain.Comment) error {
	if strings.TrimSpace(comment.Text) == "" {
		return errs.Errorf(errs.EINVALID, "Comment text must not be empty.")
	}
	return nil
}

// ByPost retrieves all comments of a post in the order they were written,
// along with each comment's author.
func (cg *commentGorm) ByPost(postID int) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := cg.db.
		Where("post_id = ?", postID).
		Preload("Author").
		Order("created_at asc, id asc").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Create stores the data from the Comment object in a new database record.
func (cg *commentGorm) Create(comment *domain.Comment) error {
	if err := cg.db.Create(comment).Error; err != nil {
		return err
	}
	return cg.db.Preload("Author").First(comment).Error
}
