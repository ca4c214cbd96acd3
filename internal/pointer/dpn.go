package pointer

import (
	"github.com/born-ml/bioqa/internal/highway"
	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
)

// dpnIterations is the fixed number of refinement steps of the DPN.
const dpnIterations = 4

// DynamicPointer is the iterative answer decoder.
//
// Every iteration feeds the representations at the current (start, end)
// estimate through a controller cell, rescores starts and ends with two
// highway-maxout networks, and moves the estimate to the argmax. The same
// weights serve all iterations. Once an example's estimate repeats between
// consecutive iterations it is frozen.
type DynamicPointer[B tensor.Backend] struct {
	size    int
	cell    nn.Cell[B]
	start   *highway.Network[B]
	end     *highway.Network[B]
	dropout *nn.Dropout[B]
}

// NewDynamicPointer creates a DPN for hidden size H (matched width 2H).
func NewDynamicPointer[B tensor.Backend](composition nn.Composition, size, depth, poolSize int, keepProb float64, backend B) (*DynamicPointer[B], error) {
	// u = [u_s; u_e] has width 4H; the scorers see [u; controller output].
	cell, err := nn.NewCell(composition, 4*size, size, backend)
	if err != nil {
		return nil, err
	}
	start, err := highway.NewNetwork(depth, poolSize, 5*size, 2*size, size, backend)
	if err != nil {
		return nil, err
	}
	end, err := highway.NewNetwork(depth, poolSize, 5*size, 2*size, size, backend)
	if err != nil {
		return nil, err
	}

	return &DynamicPointer[B]{
		size:    size,
		cell:    cell,
		start:   start,
		end:     end,
		dropout: nn.NewDropout[B](1 - keepProb),
	}, nil
}

func (d *DynamicPointer[B]) decode(sess Session, question, matched *tensor.Tensor[B], lengths []int, batch *Batch[B]) *Prediction[B] {
	matched = dropIn(d.dropout, sess, matched)

	shape := matched.Shape()
	n, steps := shape[0], shape[1]
	b := matched.Backend()
	partition := batch.partition()

	lengthMask := tensor.MaskForLengths(lengths, steps, true, b)
	state := d.cell.InitialState(question)
	uS := tensor.Zeros(tensor.Shape{n, 2 * d.size}, b)
	uE := tensor.Zeros(tensor.Shape{n, 2 * d.size}, b)
	u := tensor.Cat([]*tensor.Tensor[B]{uS, uE}, 1)

	var starts, ends []int
	stable := make([]bool, n)
	pred := &Prediction[B]{}

	for i := 0; i < dpnIterations; i++ {
		var ctr *tensor.Tensor[B]
		ctr, state = d.cell.Step(u, state)

		startScores := d.start.Forward(tensor.Cat([]*tensor.Tensor[B]{u, ctr}, 1), matched, lengths).Add(lengthMask)
		nextStarts := startScores.Argmax()
		uS = tensor.SelectSteps(matched, nextStarts)
		u = tensor.Cat([]*tensor.Tensor[B]{uS, uE}, 1)

		endScores := d.end.Forward(tensor.Cat([]*tensor.Tensor[B]{u, ctr}, 1), matched, lengths).Add(lengthMask)
		// Ends before the start are ruled out for the pointer only; the
		// returned scores stay unconstrained.
		nextEnds := endScores.Add(tensor.MaskForLengths(nextStarts, steps, false, b)).Argmax()
		uE = tensor.SelectSteps(matched, nextEnds)
		u = tensor.Cat([]*tensor.Tensor[B]{uS, uE}, 1)

		if i == 0 {
			starts, ends = nextStarts, nextEnds
		} else {
			for k := range stable {
				stable[k] = stable[k] || (nextStarts[k] == starts[k] && nextEnds[k] == ends[k])
				if !stable[k] {
					starts[k], ends[k] = nextStarts[k], nextEnds[k]
				}
			}
		}

		pred.StartScores = append(pred.StartScores, tensor.GatherRows(startScores, partition))
		pred.EndScores = append(pred.EndScores, tensor.GatherRows(endScores, partition))
	}

	pred.Starts = gatherInts(starts, partition)
	pred.Ends = gatherInts(ends, partition)
	return pred
}

// Parameters returns the controller and scorer weights.
func (d *DynamicPointer[B]) Parameters() []*nn.Parameter[B] {
	params := nn.WithPrefix("controller", d.cell.Parameters())
	params = append(params, nn.WithPrefix("start", d.start.Parameters())...)
	return append(params, nn.WithPrefix("end", d.end.Parameters())...)
}
