package crud

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"microblog/domain"
)

// FollowService manages the follow edge set.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator applies the edge-set policy before touching storage:
// self-follows are suppressed, repeated follows and unfollows are no-ops.
type followValidator struct {
	followGorm
}

// followGorm runs CRUD operations on the database using incoming Follow data.
type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

// Ensure the FollowService struct properly implements the domain.FollowService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.FollowService = &FollowService{}

// Follow adds the (user, author) edge. Following yourself and following
// someone twice both leave the edge set unchanged and return nil.
func (fv *followValidator) Follow(userID, authorID int) error {
	if userID == authorID {
		return nil
	}
	exists, err := fv.followGorm.Following(userID, authorID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return fv.followGorm.Create(userID, authorID)
}

// Unfollow removes the (user, author) edge. An absent edge is a no-op.
func (fv *followValidator) Unfollow(userID, authorID int) error {
	return fv.followGorm.Delete(userID, authorID)
}

// Following reports whether the (user, author) edge exists.
func (fg *followGorm) Following(userID, authorID int) (bool, error) {
	var count int64
	err := fg.db.Model(&domain.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AuthorIDs returns the IDs of every author the given user follows.
func (fg *followGorm) AuthorIDs(userID int) ([]int, error) {
	var ids []int
	err := fg.db.Model(&domain.Follow{}).
		Where("user_id = ?", userID).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Create inserts the edge. The insert ignores conflicts on the unique
// (user_id, author_id) index, so two concurrent follow requests cannot
// produce a duplicate edge even though the existence check above raced.
func (fg *followGorm) Create(userID, authorID int) error {
	follow := domain.Follow{
		UserID:   userID,
		AuthorID: authorID,
	}
	return fg.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error
}

// Delete removes the edge matching the pair, if any.
func (fg *followGorm) Delete(userID, authorID int) error {
	return fg.db.
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&domain.Follow{}).Error
}
