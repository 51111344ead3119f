package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ImageField is the multipart form field carrying the uploaded image.
const ImageField = "image"

// multipartMemory is how much of a form is buffered before spilling to disk.
const multipartMemory = 8 << 20

// ReadImageUpload reads the image field of a multipart request, rejecting
// bodies larger than limit with an *http.MaxBytesError.
func ReadImageUpload(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, NewAPIError(http.StatusBadRequest, "expected a multipart form with an image field", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile(ImageField)
	if err != nil {
		return nil, NewAPIError(http.StatusBadRequest, fmt.Sprintf("missing %q form field", ImageField), err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, NewAPIError(http.StatusBadRequest, "uploaded image is empty", nil)
	}
	return data, nil
}
