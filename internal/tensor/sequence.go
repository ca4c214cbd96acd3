package tensor

import (
	"fmt"
	"math"
)

// Sequence helpers for batch-major tensors of shape [N, T, ...].
//
// Every example n has a true length lengths[n] <= T; positions at or beyond
// it are padding. These helpers move rows around in host memory and never
// touch the backend's arithmetic.

// NegInf is the additive mask value for disallowed positions.
var NegInf = float32(math.Inf(-1))

// rowSize returns the number of elements per time step of x.
func rowSize(shape Shape) int {
	n := 1
	for _, d := range shape[2:] {
		n *= d
	}
	return n
}

func checkLengths(op string, shape Shape, lengths []int) {
	if len(shape) < 2 {
		panic(fmt.Sprintf("%s: expected at least 2D tensor [batch, time, ...], got shape %v", op, shape))
	}
	if len(lengths) != shape[0] {
		panic(fmt.Sprintf("%s: expected %d lengths, got %d", op, shape[0], len(lengths)))
	}
	for n, l := range lengths {
		if l < 0 || l > shape[1] {
			panic(fmt.Sprintf("%s: length %d of example %d out of range [0, %d]", op, l, n, shape[1]))
		}
	}
}

// ReverseSequence reverses the first lengths[n] time steps of every example
// and leaves the padding in place.
//
// Example (one example, length 3, T=5):
//
//	[a b c 0 0] → [c b a 0 0]
func ReverseSequence[B Backend](x *Tensor[B], lengths []int) *Tensor[B] {
	shape := x.Shape()
	checkLengths("ReverseSequence", shape, lengths)

	out := x.Clone()
	src, dst := x.Data(), out.Data()
	steps, width := shape[1], rowSize(shape)
	for n, l := range lengths {
		base := n * steps * width
		for t := 0; t < l; t++ {
			from := base + (l-1-t)*width
			to := base + t*width
			copy(dst[to:to+width], src[from:from+width])
		}
	}
	return out
}

// MaskForLengths builds an additive [N, maxLen] mask.
//
// With maskRight, positions >= lengths[n] are -Inf (padding mask). Without
// it, positions < lengths[n] are -Inf, which disallows everything before a
// pointer when lengths holds pointers. Allowed positions are 0.
func MaskForLengths[B Backend](lengths []int, maxLen int, maskRight bool, b B) *Tensor[B] {
	mask := Zeros(Shape{len(lengths), maxLen}, b)
	data := mask.Data()
	for n, l := range lengths {
		row := data[n*maxLen : (n+1)*maxLen]
		for t := range row {
			if (maskRight && t >= l) || (!maskRight && t < l) {
				row[t] = NegInf
			}
		}
	}
	return mask
}

// GatherRows selects entries along the first dimension: out[i] = x[idx[i]].
// Panics if an index is out of range.
func GatherRows[B Backend](x *Tensor[B], idx []int) *Tensor[B] {
	shape := x.Shape()
	if len(idx) == 0 {
		panic("GatherRows: empty index")
	}

	width := x.NumElements() / shape[0]
	outShape := shape.Clone()
	outShape[0] = len(idx)
	out := Zeros(outShape, x.backend)
	src, dst := x.Data(), out.Data()
	for i, r := range idx {
		if r < 0 || r >= shape[0] {
			panic(fmt.Sprintf("GatherRows: index %d out of range [0, %d)", r, shape[0]))
		}
		copy(dst[i*width:(i+1)*width], src[r*width:(r+1)*width])
	}
	return out
}

// SelectSteps picks one time step per example: out[n] = x[n, pos[n]].
// x has shape [N, T, D]; the result has shape [N, D].
func SelectSteps[B Backend](x *Tensor[B], pos []int) *Tensor[B] {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("SelectSteps: expected 3D tensor [batch, time, features], got shape %v", shape))
	}
	if len(pos) != shape[0] {
		panic(fmt.Sprintf("SelectSteps: expected %d positions, got %d", shape[0], len(pos)))
	}

	steps, width := shape[1], shape[2]
	out := Zeros(Shape{shape[0], width}, x.backend)
	src, dst := x.Data(), out.Data()
	for n, p := range pos {
		if p < 0 || p >= steps {
			panic(fmt.Sprintf("SelectSteps: position %d out of range [0, %d)", p, steps))
		}
		from := (n*steps + p) * width
		copy(dst[n*width:(n+1)*width], src[from:from+width])
	}
	return out
}

// TimeStep copies time step t out of x [N, T, D] into a [N, D] tensor.
func TimeStep[B Backend](x *Tensor[B], t int) *Tensor[B] {
	shape := x.Shape()
	pos := make([]int, shape[0])
	for n := range pos {
		pos[n] = t
	}
	return SelectSteps(x, pos)
}

// StackSteps stacks T tensors of shape [N, D] into [N, T, D].
func StackSteps[B Backend](steps []*Tensor[B]) *Tensor[B] {
	if len(steps) == 0 {
		panic("StackSteps: no steps")
	}

	first := steps[0].Shape()
	if len(first) != 2 {
		panic(fmt.Sprintf("StackSteps: expected 2D steps [batch, features], got shape %v", first))
	}

	n, width, count := first[0], first[1], len(steps)
	out := Zeros(Shape{n, count, width}, steps[0].backend)
	dst := out.Data()
	for t, s := range steps {
		if !s.Shape().Equal(first) {
			panic(fmt.Sprintf("StackSteps: step %d has shape %v, want %v", t, s.Shape(), first))
		}
		src := s.Data()
		for i := 0; i < n; i++ {
			to := (i*count + t) * width
			copy(dst[to:to+width], src[i*width:(i+1)*width])
		}
	}
	return out
}

// WhereRows selects whole rows: out[n] = a[n] if keep[n] else b[n].
func WhereRows[B Backend](keep []bool, a, b *Tensor[B]) *Tensor[B] {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("WhereRows: shape mismatch %v vs %v", a.Shape(), b.Shape()))
	}
	if len(keep) != a.Shape()[0] {
		panic(fmt.Sprintf("WhereRows: expected %d flags, got %d", a.Shape()[0], len(keep)))
	}

	out := b.Clone()
	width := a.NumElements() / len(keep)
	src, dst := a.Data(), out.Data()
	for n, k := range keep {
		if k {
			copy(dst[n*width:(n+1)*width], src[n*width:(n+1)*width])
		}
	}
	return out
}

// ZeroPadding zeroes every time step at or beyond lengths[n].
func ZeroPadding[B Backend](x *Tensor[B], lengths []int) *Tensor[B] {
	shape := x.Shape()
	checkLengths("ZeroPadding", shape, lengths)

	out := x.Clone()
	data := out.Data()
	steps, width := shape[1], rowSize(shape)
	for n, l := range lengths {
		start := (n*steps + l) * width
		end := (n + 1) * steps * width
		clear(data[start:end])
	}
	return out
}
