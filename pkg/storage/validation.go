package storage

import "fmt"

// FileValidationError represents a rejected upload.
type FileValidationError struct {
	Details map[string]any
	Field   string // form field name
	Code    string // one of the ErrCode constants
	Message string
}

// Error implements the error interface.
func (e *FileValidationError) Error() string {
	return e.Message
}

// Unwrap maps the error code onto the package sentinel.
func (e *FileValidationError) Unwrap() error {
	switch e.Code {
	case ErrCodeFileTooLarge:
		return ErrFileTooLarge
	case ErrCodeFileTooSmall:
		return ErrFileTooSmall
	case ErrCodeInvalidMIME:
		return ErrInvalidMIME
	case ErrCodeEmptyFile:
		return ErrEmptyFile
	}
	return nil
}

// Error codes for FileValidationError.
const (
	ErrCodeFileTooLarge = "file_too_large"
	ErrCodeFileTooSmall = "file_too_small"
	ErrCodeInvalidMIME  = "invalid_mime"
	ErrCodeEmptyFile    = "empty_file"
)

// ValidationRule checks an upload before it reaches the bucket.
type ValidationRule interface {
	Validate(field string, size int64, mimeType string) error
}

// ValidateFile runs rules in order and returns the first failure.
func ValidateFile(field string, size int64, mimeType string, rules ...ValidationRule) error {
	for _, rule := range rules {
		if err := rule.Validate(field, size, mimeType); err != nil {
			return err
		}
	}
	return nil
}

type maxSizeRule struct {
	maxBytes int64
}

// MaxSize rejects files larger than bytes. UploadHandler also uses it to
// bound how much of a part it reads.
func MaxSize(bytes int64) ValidationRule {
	return &maxSizeRule{maxBytes: bytes}
}

func (r *maxSizeRule) Validate(field string, size int64, _ string) error {
	if size > r.maxBytes {
		return &FileValidationError{
			Field:   field,
			Code:    ErrCodeFileTooLarge,
			Message: fmt.Sprintf("file size %d exceeds limit of %d bytes", size, r.maxBytes),
			Details: map[string]any{"limit": r.maxBytes, "got": size},
		}
	}
	return nil
}

type minSizeRule struct {
	minBytes int64
}

// MinSize rejects files smaller than bytes.
func MinSize(bytes int64) ValidationRule {
	return &minSizeRule{minBytes: bytes}
}

func (r *minSizeRule) Validate(field string, size int64, _ string) error {
	if size < r.minBytes {
		return &FileValidationError{
			Field:   field,
			Code:    ErrCodeFileTooSmall,
			Message: fmt.Sprintf("file size %d is below minimum of %d bytes", size, r.minBytes),
			Details: map[string]any{"minimum": r.minBytes, "got": size},
		}
	}
	return nil
}

type notEmptyRule struct{}

// NotEmpty rejects empty files.
func NotEmpty() ValidationRule {
	return notEmptyRule{}
}

func (notEmptyRule) Validate(field string, size int64, _ string) error {
	if size == 0 {
		return &FileValidationError{
			Field:   field,
			Code:    ErrCodeEmptyFile,
			Message: "file is empty",
			Details: map[string]any{},
		}
	}
	return nil
}

type allowedTypesRule struct {
	patterns []string
}

// AllowedTypes accepts only files matching the given MIME patterns.
// Supports wildcards like "image/*".
func AllowedTypes(patterns ...string) ValidationRule {
	return &allowedTypesRule{patterns: patterns}
}

func (r *allowedTypesRule) Validate(field string, _ int64, mimeType string) error {
	if !matchesMIME(mimeType, r.patterns) {
		return &FileValidationError{
			Field:   field,
			Code:    ErrCodeInvalidMIME,
			Message: fmt.Sprintf("file type %q is not allowed", mimeType),
			Details: map[string]any{"type": mimeType, "allowed": r.patterns},
		}
	}
	return nil
}

// ImageOnly is AllowedTypes("image/*").
func ImageOnly() ValidationRule {
	return AllowedTypes("image/*")
}

func maxSizeOf(rules []ValidationRule) (int64, bool) {
	limit, found := int64(0), false
	for _, r := range rules {
		if m, ok := r.(*maxSizeRule); ok && (!found || m.maxBytes < limit) {
			limit, found = m.maxBytes, true
		}
	}
	return limit, found
}
