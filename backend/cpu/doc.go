// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32 storage
//   - NumPy-compatible broadcasting
//   - Parallel matrix multiplication for large inputs
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/bioqa/backend/cpu"
//	    "github.com/born-ml/bioqa/pointer"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    model, err := pointer.Load("", "model.safetensors", nil, backend)
//	}
package cpu
