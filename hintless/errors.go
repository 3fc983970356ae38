package hintless

import "errors"

// Sentinel errors; callers match with errors.Is
var (
	// Parameter validation failed
	ErrConfig = errors.New("hintless: invalid parameters")

	// Record index outside the database
	ErrOutOfRange = errors.New("hintless: record index out of range")

	// Client and server were configured with different parameters
	ErrIncompatibleParams = errors.New("hintless: parameter mismatch")

	// Request is malformed or references an unknown session
	ErrMalformedRequest = errors.New("hintless: malformed request")

	// Server has not been preprocessed
	ErrPreprocessing = errors.New("hintless: server not preprocessed")

	// Response decoded to a value outside the plaintext range
	ErrDecode = errors.New("hintless: decoding failure")
)
