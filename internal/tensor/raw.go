package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
)

// RawTensor is the low-level tensor representation used by backends.
//
// Data is stored row-major as float32. Reshape shares the underlying slice,
// every other operation allocates.
type RawTensor struct {
	shape  Shape
	stride []int
	data   []float32
	device Device
}

// NewRaw creates a zero-filled RawTensor with the given shape.
func NewRaw(shape Shape, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   make([]float32, shape.NumElements()),
		device: device,
	}, nil
}

// MustRaw is NewRaw for shapes already known to be valid.
// Panics on an invalid shape.
func MustRaw(shape Shape, device Device) *RawTensor {
	r, err := NewRaw(shape, device)
	if err != nil {
		panic(err)
	}
	return r
}

// RawFromSlice wraps data in a RawTensor without copying.
func RawFromSlice(data []float32, shape Shape, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, got %d",
			ErrDataLengthMismatch, shape, shape.NumElements(), len(data))
	}

	return &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   data,
		device: device,
	}, nil
}

// RawFromBytes decodes little-endian float32 bytes into a RawTensor.
func RawFromBytes(b []byte, shape Shape, device Device) (*RawTensor, error) {
	if len(b) != shape.NumElements()*4 {
		return nil, fmt.Errorf("%w: shape %v requires %d bytes, got %d",
			ErrDataLengthMismatch, shape, shape.NumElements()*4, len(b))
	}

	data := make([]float32, len(b)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return RawFromSlice(data, shape, device)
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// Device returns the device the tensor was created for.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return len(r.data)
}

// Data returns the underlying float32 slice (zero-copy).
func (r *RawTensor) Data() []float32 {
	return r.data
}

// Bytes encodes the data as little-endian float32.
func (r *RawTensor) Bytes() []byte {
	b := make([]byte, len(r.data)*4)
	for i, v := range r.data {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// Clone returns a deep copy.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]float32, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		shape:  r.shape.Clone(),
		stride: r.shape.ComputeStrides(),
		data:   data,
		device: r.device,
	}
}

// Reshape returns a view with a new shape over the same data.
// Panics if the element counts differ.
func (r *RawTensor) Reshape(shape Shape) *RawTensor {
	if shape.NumElements() != len(r.data) {
		panic(fmt.Sprintf("reshape: cannot reshape %v into %v", r.shape, shape))
	}
	return &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   r.data,
		device: r.device,
	}
}
