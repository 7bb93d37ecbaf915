package ai

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmptyResponse is returned when a backend answers without content
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrMalformedEmbeddings is returned when a backend returns the wrong
	// number of vectors or an empty vector
	ErrMalformedEmbeddings = errors.New("malformed embedding response")
)
