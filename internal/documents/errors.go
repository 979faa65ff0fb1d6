package documents

import "errors"

var (
	// ErrNotFound indicates the document record does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden indicates the caller does not own the document.
	ErrForbidden = errors.New("access denied")
	// ErrNotExtracted indicates the document has no extracted text yet.
	ErrNotExtracted = errors.New("document text has not been extracted yet")
)
