package errcode

const Success = 0

const (
	ErrUnknown = 10000000 + iota
	ErrInvalid
	ErrNotReady
	ErrRetrievalUnavailable
	ErrCompletionUnavailable
	ErrInternal
)
