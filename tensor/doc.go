// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the float32 tensors the bioqa models compute on.
//
// # Overview
//
// A Tensor is a row-major float32 array bound to a compute Backend. This
// package re-exports the tensor types together with the sequence helpers
// used for padded batches of shape [batch, time, features].
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/bioqa/backend/cpu"
//	    "github.com/born-ml/bioqa/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros(tensor.Shape{2, 3}, backend)
//	    mask := tensor.MaskForLengths([]int{3, 1}, 3, true, backend)
//	    y := x.Add(mask) // padding positions become -Inf
//	}
package tensor
