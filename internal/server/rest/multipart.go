package rest

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/gin-gonic/gin"
)

// formFiles tracks opened uploads so the handler can close them when done.
type formFiles []multipart.File

func (f *formFiles) Close() {
	for _, file := range *f {
		_ = file.Close()
	}
	*f = nil
}

// parseForm caps the request size and parses a multipart or urlencoded
// body up front, so that oversized uploads fail before any field is read.
func (s *Server) parseForm(c *gin.Context) error {
	if s.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
	}
	err := c.Request.ParseMultipartForm(s.maxUploadBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = c.Request.ParseForm()
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return badRequest("upload exceeds %d bytes", tooBig.Limit)
		}
		return badRequest("malformed form: %v", err)
	}
	return nil
}

// image returns the uploaded file under field, or nil when none was sent.
func (f *formFiles) image(c *gin.Context, field string) (*models.ImageUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, badRequest("malformed upload: %v", err)
	}

	file, err := fh.Open()
	if err != nil {
		return nil, badRequest("unreadable upload: %v", err)
	}
	*f = append(*f, file)

	return &models.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        file,
	}, nil
}

// optionalForm returns a pointer to the field's value when the field was
// sent at all, so that an empty value can be told apart from an absent one.
func optionalForm(c *gin.Context, field string) *string {
	if v, ok := c.GetPostForm(field); ok {
		return &v
	}
	return nil
}
