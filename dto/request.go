package dto

import (
	"fmt"
	"mime/multipart"
	"strings"
)

// BillExtractRequest represents a single bill extraction request
type BillExtractRequest struct {
	File           *multipart.FileHeader
	Password       string
	IncludeRawText bool
}

// Validate performs basic validation on the request
func (r *BillExtractRequest) Validate() error {
	if r.File == nil {
		return ErrFileRequired
	}
	if !hasValidExtension(r.File.Filename) {
		return fmt.Errorf("unsupported file type: %s", r.File.Filename)
	}
	return nil
}

// BatchExtractRequest represents a multi-bill extraction request
type BatchExtractRequest struct {
	Files    []*multipart.FileHeader `form:"files[]" binding:"required"`
	Password string                  `form:"password"`
}

// Validate performs basic validation on the request
func (r *BatchExtractRequest) Validate() error {
	if len(r.Files) == 0 {
		return ErrNoFilesProvided
	}
	for _, file := range r.Files {
		if !hasValidExtension(file.Filename) {
			return fmt.Errorf("unsupported file type: %s", file.Filename)
		}
	}
	return nil
}

func hasValidExtension(filename string) bool {
	lower := strings.ToLower(filename)
	validExtensions := []string{".pdf", ".png", ".jpg", ".jpeg"}
	for _, ext := range validExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
