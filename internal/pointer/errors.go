package pointer

import "errors"

// Errors returned by model construction and Encode.
var (
	ErrUnknownAnswerLayer = errors.New("unknown answer layer type")
	ErrUnknownModelType   = errors.New("unknown model type")
	ErrInvalidConfig      = errors.New("invalid model config")
	ErrInvalidBatch       = errors.New("invalid batch")
	ErrInvalidSession     = errors.New("invalid session")
)
