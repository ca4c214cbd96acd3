package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// Placement is a parsed device assignment such as "/cpu:0" or "/gpu:1".
type Placement struct {
	Device  Device
	Ordinal int
}

// String formats the placement the way it is written in model configs.
func (p Placement) String() string {
	name := "cpu"
	switch p.Device {
	case CUDA:
		name = "gpu"
	case WebGPU:
		name = "webgpu"
	}
	return fmt.Sprintf("/%s:%d", name, p.Ordinal)
}

// ParseDevice parses a device assignment string.
//
// Accepted forms are "/cpu:N", "/gpu:N" and "/webgpu:N"; the leading slash
// and the ordinal are optional ("cpu" means "/cpu:0").
func ParseDevice(s string) (Placement, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "/"))
	if name == "" {
		return Placement{}, fmt.Errorf("%w: %q", ErrInvalidDeviceName, s)
	}

	ordinal := 0
	if i := strings.IndexByte(name, ':'); i >= 0 {
		n, err := strconv.Atoi(name[i+1:])
		if err != nil || n < 0 {
			return Placement{}, fmt.Errorf("%w: %q", ErrInvalidDeviceName, s)
		}
		ordinal = n
		name = name[:i]
	}

	switch name {
	case "cpu":
		return Placement{Device: CPU, Ordinal: ordinal}, nil
	case "gpu", "cuda":
		return Placement{Device: CUDA, Ordinal: ordinal}, nil
	case "webgpu":
		return Placement{Device: WebGPU, Ordinal: ordinal}, nil
	default:
		return Placement{}, fmt.Errorf("%w: %q", ErrInvalidDeviceName, s)
	}
}

// ParseDevices parses a device assignment list and checks that every entry
// can be served by a backend on the given device. An empty list means "/cpu:0".
func ParseDevices(list []string, available Device) ([]Placement, error) {
	if len(list) == 0 {
		return []Placement{{Device: CPU}}, nil
	}

	placements := make([]Placement, 0, len(list))
	for _, s := range list {
		p, err := ParseDevice(s)
		if err != nil {
			return nil, err
		}
		if p.Device != available {
			return nil, fmt.Errorf("%w: %s (backend runs on %s)", ErrUnsupportedDevice, p, available)
		}
		placements = append(placements, p)
	}
	return placements, nil
}
