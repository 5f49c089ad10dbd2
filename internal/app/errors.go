package app

import "errors"

// Service-level sentinel errors. Transport maps these to HTTP status codes;
// everything else is a 500.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrSessionNotFound  = errors.New("session not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrEmptyDocument    = errors.New("document contains no extractable text")
	ErrModelUnavailable = errors.New("language model unavailable")
)
