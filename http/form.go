package http

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"microblog/domain"
)

// validate holds the shared validator instance. Form structs declare
// their constraints as struct tags; failures come back field-keyed so
// the templates can show the message next to the offending input.
var validate = validator.New()

// PostForm carries the submitted fields of the create/edit post form.
// The image file travels separately because its checks (content type,
// size) belong to the image service, not to struct validation.
type PostForm struct {
	Text    string `validate:"required"`
	GroupID *int
}

// CommentForm carries the submitted fields of the comment form.
type CommentForm struct {
	Text string `validate:"required"`
}

// SignupForm carries the submitted fields of the signup form.
type SignupForm struct {
	Username string `validate:"required,max=30"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// LoginForm carries the submitted fields of the login form.
type LoginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// fieldErrors converts a validator error into a map keyed by the
// lowercased field name, ready for template rendering.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["form"] = "The submitted form is invalid."
		return out
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "This field is required."
		case "email":
			out[field] = "This is not a valid email address."
		case "min":
			out[field] = "This field must have at least " + fe.Param() + " characters."
		case "max":
			out[field] = "This field must not have more than " + fe.Param() + " characters."
		default:
			out[field] = "This field is invalid."
		}
	}
	return out
}

// parsePostForm reads the post form fields and the optional image file
// off the request. It handles both multipart submissions (the browser
// form) and plain urlencoded ones. The returned file is nil when no
// image was attached; the caller owns closing it.
func parsePostForm(r *http.Request) (*PostForm, multipart.File, *multipart.FileHeader, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(domain.MaxUploadSize)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, nil, nil, err
	}

	// Trimmed up front so whitespace-only text fails the required check
	// here instead of deep in the service, after side effects.
	form := &PostForm{
		Text: strings.TrimSpace(r.PostFormValue("text")),
	}
	if raw := r.PostFormValue("group"); raw != "" {
		id, convErr := strconv.Atoi(raw)
		if convErr == nil && id > 0 {
			form.GroupID = &id
		}
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile || r.MultipartForm == nil {
			return form, nil, nil, nil
		}
		return nil, nil, nil, err
	}
	return form, file, header, nil
}
