package crud

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"microblog/domain"
	"microblog/errs"
)

// ImageService manages uploaded post images.
// It implements the domain.ImageService interface.
type ImageService struct {
	imageValidator
}

// imageValidator runs validations on incoming Image data.
// On success, it passes the data on to imageStore.
// Otherwise, it returns the error of the validation that has failed.
type imageValidator struct {
	imageStore
}

// imageStore writes and removes image files under the media root.
// It assumes that data has been validated.
type imageStore struct {
	root string
}

// NewImageService returns an instance of ImageService storing files
// under the given media root directory.
func NewImageService(mediaRoot string) *ImageService {
	return &ImageService{
		imageValidator{
			imageStore{
				root: mediaRoot,
			},
		},
	}
}

// Ensure the ImageService struct properly implements the domain.ImageService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.ImageService = &ImageService{}

// Validate runs the file checks without writing anything. The post form
// handler calls this before the post is persisted, so an invalid image
// rejects the whole form.
func (iv *imageValidator) Validate(img *domain.Image) error {
	return runImageValFns(img,
		iv.extensionValid,
		iv.contentTypeValid,
		iv.contentTypeExtensionMatch,
		iv.belowMaxSize)
}

// Create validates the image, gives it a unique stored filename, and
// writes it under <root>/post/<post id>/.
func (iv *imageValidator) Create(img *domain.Image) error {
	err := runImageValFns(img,
		iv.extensionValid,
		iv.contentTypeValid,
		iv.contentTypeExtensionMatch,
		iv.belowMaxSize,
		iv.storedNameUnique)
	if err != nil {
		return err
	}
	return iv.imageStore.Create(img)
}

// runImageValFns runs any number of functions of type imageValFn on the passed in Image object.
func runImageValFns(img *domain.Image, fns ...imageValFn) error {
	for _, fn := range fns {
		if err := fn(img); err != nil {
			return err
		}
	}
	return nil
}

// A imageValFn is any function that takes in a pointer to a domain.Image object and returns an error.
type imageValFn func(img *domain.Image) error

// extensionValid makes sure the uploaded file's extension is jpg, jpeg or png.
func (iv *imageValidator) extensionValid(img *domain.Image) error {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return errs.Errorf(errs.EINVALID, "Image %s has an invalid extension, must be jpg, jpeg or png.", img.Filename)
	}
	img.Extension = ext
	return nil
}

// contentTypeValid makes sure that the image to be uploaded is a valid jpeg or png file.
func (iv *imageValidator) contentTypeValid(img *domain.Image) error {
	buffer := make([]byte, 512)
	n, err := img.File.Read(buffer)
	if err != nil && err != io.EOF {
		return err
	}
	if err := resetFilePointer(img); err != nil {
		return err
	}
	contentType := http.DetectContentType(buffer[:n])
	if contentType != "image/jpeg" && contentType != "image/png" {
		return errs.Errorf(errs.EINVALID, "Image %s has an invalid content type, must be image/jpeg or image/png.", img.Filename)
	}
	img.ContentType = contentType
	return nil
}

// contentTypeExtensionMatch makes sure the extension does not lie about
// the sniffed content type.
func (iv *imageValidator) contentTypeExtensionMatch(img *domain.Image) error {
	ext := img.Extension
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	want := ".png"
	if img.ContentType == "image/jpeg" {
		want = ".jpg"
	}
	if ext != want {
		return errs.Errorf(errs.EINVALID, "Image %s extension does not match its content type.", img.Filename)
	}
	return nil
}

// belowMaxSize makes sure that the image to be uploaded does not exceed MaxUploadSize.
func (iv *imageValidator) belowMaxSize(img *domain.Image) error {
	size, err := img.File.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if err := resetFilePointer(img); err != nil {
		return err
	}
	if size > domain.MaxUploadSize {
		return errs.Errorf(
			errs.EINVALID,
			"Image %s exceeds the upload size limit of %dMB.",
			img.Filename, domain.MaxUploadSize/1000000,
		)
	}
	return nil
}

// storedNameUnique replaces the client's filename with a generated one,
// keeping the validated extension. The original name never reaches the
// filesystem.
func (iv *imageValidator) storedNameUnique(img *domain.Image) error {
	img.Filename = uuid.NewString() + img.Extension
	return nil
}

// resetFilePointer rewinds the uploaded file so the next reader sees it
// from the start.
func resetFilePointer(img *domain.Image) error {
	_, err := img.File.Seek(0, io.SeekStart)
	return err
}

// Create writes the image file into the post's media directory and fills
// in the image's URL.
func (is *imageStore) Create(img *domain.Image) error {
	dir := is.dir(img.PostID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(dir, img.Filename))
	if err != nil {
		return err
	}
	defer dst.Close()
	if err := resetFilePointer(img); err != nil {
		return err
	}
	if _, err := io.Copy(dst, img.File); err != nil {
		return err
	}
	img.URL = "/media/" + img.RelativePath()
	return nil
}

// DeleteAll removes every stored image file of a post.
func (is *imageStore) DeleteAll(postID int) error {
	return os.RemoveAll(is.dir(postID))
}

// dir returns the media directory of a post.
func (is *imageStore) dir(postID int) string {
	return filepath.Join(is.root, domain.ImagesBaseDir, strconv.Itoa(postID))
}
