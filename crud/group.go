package crud

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"microblog/domain"
	"microblog/errs"
)

// GroupService manages Groups. Groups have no public management routes;
// operators create them through the seed command or tooling built on
// this service. It implements the domain.GroupService interface.
type GroupService struct {
	groupValidator
}

// groupValidator runs validations on incoming Group data.
// On success, it passes the data on to groupGorm.
// Otherwise, it returns the error of the validation that has failed.
type groupValidator struct {
	slugRegex *regexp.Regexp
	groupGorm
}

// groupGorm runs CRUD operations on the database using incoming Group data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type groupGorm struct {
	db *gorm.DB
}

// NewGroupService returns an instance of GroupService.
func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{
		groupValidator{
			slugRegex: regexp.MustCompile(`^[a-z0-9\-]+$`),
			groupGorm: groupGorm{
				db: db,
			},
		},
	}
}

// Ensure the GroupService struct properly implements the domain.GroupService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.GroupService = &GroupService{}

// Create runs validations needed for creating new Group database records.
func (gv *groupValidator) Create(group *domain.Group) error {
	err := runGroupValFns(group,
		gv.titleRequired,
		gv.titleMaxLength,
		gv.slugNormalize,
		gv.slugRequired,
		gv.slugMaxLength,
		gv.slugFormat,
		gv.slugIsAvail)
	if err != nil {
		return err
	}
	return gv.groupGorm.Create(group)
}

// Update runs validations needed for updating a Group record in the database.
func (gv *groupValidator) Update(group *domain.Group) error {
	err := runGroupValFns(group,
		gv.titleRequired,
		gv.titleMaxLength,
		gv.slugNormalize,
		gv.slugRequired,
		gv.slugMaxLength,
		gv.slugFormat,
		gv.slugIsAvail)
	if err != nil {
		return err
	}
	return gv.groupGorm.Update(group)
}

// runGroupValFns runs any number of functions of type groupValFn on the passed in Group object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runGroupValFns(group *domain.Group, fns ...groupValFn) error {
	for _, fn := range fns {
		if err := fn(group); err != nil {
			return err
		}
	}
	return nil
}

// A groupValFn is any function that takes in a pointer to a domain.Group object and returns an error.
type groupValFn func(group *domain.Group) error

// titleRequired makes sure that the group's title is not empty.
func (gv *groupValidator) titleRequired(group *domain.Group) error {
	if strings.TrimSpace(group.Title) == "" {
		return errs.Errorf(errs.EINVALID, "A group title is required.")
	}
	return nil
}

// titleMaxLength makes sure that the group's title has at most 200 characters.
func (gv *groupValidator) titleMaxLength(group *domain.Group) error {
	if utf8.RuneCountInString(group.Title) > 200 {
		return errs.Errorf(errs.EINVALID, "The group title must not have more than 200 characters.")
	}
	return nil
}

// slugNormalize lowercases the slug, trims it, and turns inner
// whitespace into dashes.
func (gv *groupValidator) slugNormalize(group *domain.Group) error {
	slug := strings.ToLower(strings.TrimSpace(group.Slug))
	slug = strings.Join(strings.Fields(slug), "-")
	group.Slug = slug
	return nil
}

// slugRequired makes sure that the group's slug is not empty.
func (gv *groupValidator) slugRequired(group *domain.Group) error {
	if group.Slug == "" {
		return errs.Errorf(errs.EINVALID, "A group slug is required.")
	}
	return nil
}

// slugMaxLength makes sure that the group's slug has at most 40 characters.
func (gv *groupValidator) slugMaxLength(group *domain.Group) error {
	if utf8.RuneCountInString(group.Slug) > 40 {
		return errs.Errorf(errs.EINVALID, "The group slug must not have more than 40 characters.")
	}
	return nil
}

// slugFormat makes sure the slug only contains lowercase letters, digits
// and dashes. Slugs appear in route paths.
func (gv *groupValidator) slugFormat(group *domain.Group) error {
	if !gv.slugRegex.MatchString(group.Slug) {
		return errs.Errorf(errs.EINVALID, "The group slug may only contain lowercase letters, digits and dashes.")
	}
	return nil
}

// slugIsAvail makes sure that the slug is not yet taken by another group.
func (gv *groupValidator) slugIsAvail(group *domain.Group) error {
	var existing domain.Group
	err := gv.db.Where("slug = ?", group.Slug).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if group.ID != existing.ID {
		return errs.Errorf(errs.EINVALID, "This group slug is already taken.")
	}
	return nil
}

// BySlug retrieves a Group database record by its slug.
func (gg *groupGorm) BySlug(slug string) (*domain.Group, error) {
	var group domain.Group
	err := gg.db.Where("slug = ?", slug).First(&group).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The group does not exist.")
		}
		return nil, err
	}
	return &group, nil
}

// All retrieves all Group records, ordered by title. Used by operator
// tooling and the post form's group selector.
func (gg *groupGorm) All() ([]domain.Group, error) {
	var groups []domain.Group
	err := gg.db.Order("title asc").Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// Create stores the data from the Group object in a new database record.
func (gg *groupGorm) Create(group *domain.Group) error {
	return gg.db.Create(group).Error
}

// Update saves changes to an existing group record in the database.
func (gg *groupGorm) Update(group *domain.Group) error {
	return gg.db.Save(group).Error
}
