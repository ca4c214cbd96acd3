package nn

import "errors"

// Errors returned by state dict loading and module construction.
var (
	ErrMissingParameter    = errors.New("missing parameter in state dict")
	ErrUnexpectedParameter = errors.New("unexpected parameter in state dict")
	ErrParameterShape      = errors.New("parameter shape mismatch")
	ErrUnknownComposition  = errors.New("unknown recurrent composition")
)
