package sitecontent

import (
	"io"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxFileSize is the upper bound for every uploaded asset (50 MiB).
const MaxFileSize int64 = 50 * 1024 * 1024

// Accepted MIME types.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"
	MimePDF  = "application/pdf"
)

const (
	msgImageType = "Must be JPEG, PNG, or WebP"
	msgPDFType   = "Must be a PDF file"
	msgFileSize  = "File must be under 50MB"
)

// FileInfo is the part of an uploaded file the validators look at.
type FileInfo struct {
	Name     string
	MimeType string
	Size     int64
}

// File is an upload: its description plus the bytes.
type File struct {
	FileInfo
	Body io.Reader
}

// ValidationResult is the outcome of a file check.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Err converts a failed result into a *ValidationError.
func (r ValidationResult) Err(field string) error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Field: field, Message: r.Error}
}

// Validator checks a file before it is uploaded.
type Validator func(FileInfo) ValidationResult

// ValidateImage accepts JPEG, PNG and WebP files up to MaxFileSize.
func ValidateImage(f FileInfo) ValidationResult {
	return validateFile(f, msgImageType, MimeJPEG, MimePNG, MimeWebP)
}

// ValidatePDF accepts PDF files up to MaxFileSize.
func ValidatePDF(f FileInfo) ValidationResult {
	return validateFile(f, msgPDFType, MimePDF)
}

// ValidatorFor returns the validator matching what the slot stores.
func ValidatorFor(slot Slot) Validator {
	if slot == SlotBrochure {
		return ValidatePDF
	}
	return ValidateImage
}

func validateFile(f FileInfo, typeMessage string, accepted ...string) ValidationResult {
	if err := validation.Validate(f.Size, validation.Max(MaxFileSize).Error(msgFileSize)); err != nil {
		return ValidationResult{Error: err.Error()}
	}

	types := make([]interface{}, len(accepted))
	for i, t := range accepted {
		types[i] = t
	}
	if err := validation.Validate(f.MimeType,
		validation.Required.Error(typeMessage),
		validation.In(types...).Error(typeMessage),
	); err != nil {
		return ValidationResult{Error: err.Error()}
	}

	return ValidationResult{Valid: true}
}
