package domain

import (
	"mime/multipart"
	"path"
	"strconv"
)

const (
	// ImagesBaseDir determines the directory under the media root where
	// uploaded post images are stored.
	ImagesBaseDir = "post"
	// MaxUploadSize determines the maximum filesize of an image to be uploaded.
	MaxUploadSize int64 = 5 << 20 // 5 Megabyte
)

// Image represents an image file attached to a Post. Images are only stored
// as files in the filesystem and have no dedicated table in the database;
// the Post record keeps the relative path of its stored file. An image
// belonging to the Post with ID 2 is stored as:
// <media root>/post/2/<uuid>.png.
type Image struct {
	PostID      int            `json:"-"`
	File        multipart.File `json:"-"`
	Filename    string         `json:"-"`
	Extension   string         `json:"-"`
	ContentType string         `json:"-"`
	URL         string         `json:"url"`
}

// ImageService validates and stores uploaded image files.
// Validate runs the file checks without writing anything, so callers can
// reject a form before any entity is persisted.
type ImageService interface {
	Validate(img *Image) error
	Create(img *Image) error
	DeleteAll(postID int) error
}

// RelativePath returns the path of the stored image file relative to the
// media root. It is what gets persisted on the Post.
func (i *Image) RelativePath() string {
	return path.Join(ImagesBaseDir, strconv.Itoa(i.PostID), i.Filename)
}
