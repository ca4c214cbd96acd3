// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/bioqa/internal/tensor"

// Backend defines the operations a compute backend implements.
//
// Implementations:
//   - backend/cpu: pure Go, row loops parallelized across goroutines
type Backend = tensor.Backend

// Tensor is a float32 tensor bound to a backend.
type Tensor[B Backend] = tensor.Tensor[B]

// RawTensor is the backend-independent storage of a tensor.
type RawTensor = tensor.RawTensor

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// Device identifies a compute device.
type Device = tensor.Device

// Placement is a parsed device assignment such as "/cpu:0".
type Placement = tensor.Placement

// Supported devices.
const (
	CPU = tensor.CPU
)

// Errors returned by tensor construction and device parsing.
var (
	ErrInvalidShape      = tensor.ErrInvalidShape
	ErrShapeMismatch     = tensor.ErrShapeMismatch
	ErrUnsupportedDevice = tensor.ErrUnsupportedDevice
	ErrInvalidDeviceName = tensor.ErrInvalidDeviceName
)

// Zeros creates a tensor filled with zeros.
func Zeros[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Zeros(shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[B Backend](shape Shape, b B) *Tensor[B] {
	return tensor.Ones(shape, b)
}

// Full creates a tensor filled with value.
func Full[B Backend](shape Shape, value float32, b B) *Tensor[B] {
	return tensor.Full(shape, value, b)
}

// FromSlice creates a tensor from row-major data.
func FromSlice[B Backend](data []float32, shape Shape, b B) (*Tensor[B], error) {
	return tensor.FromSlice(data, shape, b)
}

// MaskForLengths builds an additive [N, maxLen] mask of 0 and -Inf.
// With maskRight, positions >= lengths[n] are masked; otherwise positions
// < lengths[n] are.
func MaskForLengths[B Backend](lengths []int, maxLen int, maskRight bool, b B) *Tensor[B] {
	return tensor.MaskForLengths(lengths, maxLen, maskRight, b)
}

// ReverseSequence reverses the first lengths[n] time steps of every example.
func ReverseSequence[B Backend](x *Tensor[B], lengths []int) *Tensor[B] {
	return tensor.ReverseSequence(x, lengths)
}

// ParseDevice parses a device name such as "/cpu:0".
func ParseDevice(s string) (Placement, error) {
	return tensor.ParseDevice(s)
}
