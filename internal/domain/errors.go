package domain

import "errors"

var (
	// ErrInvalidArgument is returned for an empty query or a non-positive k.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotReady is returned while the index is being built or after the build failed.
	ErrNotReady = errors.New("retrieval index not ready")
	// ErrRetrievalUnavailable wraps any embedding service failure: network,
	// timeout, rate limit or a malformed response.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrCompletionUnavailable wraps failures of the language-model completion service.
	ErrCompletionUnavailable = errors.New("completion unavailable")
)
