// Package attention implements dot-product co-attention between a context
// and a question sequence.
package attention

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/tensor"
)

// DotCoAttention fuses question information into every context position.
//
// With affinity L = C·Qᵀ:
//
//	Aq  = softmax over question positions of L     [N, Tc, Tq]
//	Ac  = softmax over context positions of Lᵀ     [N, Tq, Tc]
//	C2Q = Aq·Q                                     [N, Tc, H]
//	Co  = Aq·(Ac·C)                                [N, Tc, H]
//
// The result is [C; C2Q; Co] with shape [N, Tc, 3H]. Padding positions of
// either sequence receive no attention weight, and output rows at context
// padding positions are zero.
//
// Parameters:
//   - ctx: Context encodings [N, Tc, H]
//   - ctxLengths: Valid context positions per example (>= 1)
//   - question: Question encodings [N, Tq, H]
//   - questionLengths: Valid question positions per example (>= 1)
func DotCoAttention[B tensor.Backend](ctx *tensor.Tensor[B], ctxLengths []int, question *tensor.Tensor[B], questionLengths []int) *tensor.Tensor[B] {
	cs, qs := ctx.Shape(), question.Shape()
	if len(cs) != 3 || len(qs) != 3 || cs[0] != qs[0] || cs[2] != qs[2] {
		panic(fmt.Sprintf("DotCoAttention: expected [N, Tc, H] and [N, Tq, H], got %v and %v", cs, qs))
	}
	checkNonEmpty("context", ctxLengths)
	checkNonEmpty("question", questionLengths)

	n, tc, tq := cs[0], cs[1], qs[1]
	b := ctx.Backend()

	affinity := ctx.BatchMatMul(question.Transpose()) // [N, Tc, Tq]

	qMask := tensor.MaskForLengths(questionLengths, tq, true, b).Reshape(n, 1, tq)
	attnQ := affinity.Add(qMask).Softmax(2)

	cMask := tensor.MaskForLengths(ctxLengths, tc, true, b).Reshape(n, 1, tc)
	attnC := affinity.Transpose().Add(cMask).Softmax(2) // [N, Tq, Tc]

	c2q := attnQ.BatchMatMul(question)
	summary := attnC.BatchMatMul(ctx) // [N, Tq, H]
	co := attnQ.BatchMatMul(summary)

	out := tensor.Cat([]*tensor.Tensor[B]{ctx, c2q, co}, 2)
	return tensor.ZeroPadding(out, ctxLengths)
}

func checkNonEmpty(name string, lengths []int) {
	for i, l := range lengths {
		if l < 1 {
			panic(fmt.Sprintf("DotCoAttention: %s length of example %d is %d, expected >= 1", name, i, l))
		}
	}
}
