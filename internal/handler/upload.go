package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/service"
)

// uploadSlack is what a multipart body may carry on top of the file itself:
// boundaries, part headers and the small form fields.
const uploadSlack = 1 << 20

// readUpload parses a multipart request and returns the named file part.
//
// The body is capped a little above limit so an oversized file is rejected
// without being buffered whole. The exact size check stays in the service,
// which knows the per-kind limits and messages.
func readUpload(w http.ResponseWriter, r *http.Request, field string, limit int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+uploadSlack)
	if err := r.ParseMultipartForm(limit + uploadSlack); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.ValidationFailed(field, "File exceeds the "+strconv.FormatInt(limit>>20, 10)+" MB limit")
		}
		return nil, apperror.ValidationFailed(field, "No file uploaded")
	}

	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, apperror.ValidationFailed(field, "No file uploaded")
	}
	defer f.Close()

	// one extra byte lets the service see that the file is over the limit
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// writeFile sends stored content. disposition is "inline" for documents the
// browser should display and "attachment" for downloads.
func writeFile(w http.ResponseWriter, disposition, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": filename}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// extensionFor returns the file extension of a sniffed content type.
func extensionFor(contentType string) string {
	switch contentType {
	case service.TypePDF:
		return ".pdf"
	case service.TypePNG:
		return ".png"
	case service.TypeJPEG:
		return ".jpg"
	default:
		return ""
	}
}
