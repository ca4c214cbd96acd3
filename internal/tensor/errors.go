package tensor

import "errors"

// Common errors.
var (
	ErrInvalidShape       = errors.New("invalid shape")
	ErrShapeMismatch      = errors.New("shape mismatch")
	ErrUnsupportedDevice  = errors.New("unsupported device")
	ErrInvalidDeviceName  = errors.New("invalid device name")
	ErrDataLengthMismatch = errors.New("data length does not match shape")
)
