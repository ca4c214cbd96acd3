package pointer

import (
	"github.com/born-ml/bioqa/internal/beam"
	"github.com/born-ml/bioqa/internal/highway"
	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
)

// SequentialPointer is the single-shot answer decoder with beam search.
//
// Starts are scored from the pooled question alone. For every start
// hypothesis the matched representation at the start, together with the
// question, scores the ends. In Train mode the gold starts are forced and
// the beam size is 1; in Eval mode every example keeps up to BeamSize
// hypotheses and ends are limited to [start, start+MaxAnswerLengthHeuristic].
//
// The sentinel can be chosen as a start, which is the "no answer" path: the
// only end allowed after it is the sentinel itself. After any other start the
// sentinel is never an end.
type SequentialPointer[B tensor.Backend] struct {
	size    int
	start   *highway.Network[B]
	end     *highway.Network[B]
	dropout *nn.Dropout[B]
}

// NewSequentialPointer creates an SPN for hidden size H (matched width 2H).
func NewSequentialPointer[B tensor.Backend](size, depth, poolSize int, keepProb float64, backend B) (*SequentialPointer[B], error) {
	start, err := highway.NewNetwork(depth, poolSize, size, 2*size, size, backend)
	if err != nil {
		return nil, err
	}
	end, err := highway.NewNetwork(depth, poolSize, 3*size, 2*size, size, backend)
	if err != nil {
		return nil, err
	}

	return &SequentialPointer[B]{
		size:    size,
		start:   start,
		end:     end,
		dropout: nn.NewDropout[B](1 - keepProb),
	}, nil
}

func (s *SequentialPointer[B]) decode(sess Session, question, matched *tensor.Tensor[B], lengths []int, batch *Batch[B]) *Prediction[B] {
	matched = dropIn(s.dropout, sess, matched)

	steps := matched.Shape()[1]
	b := matched.Backend()
	train := sess.Mode == Train

	// In Eval mode every example is decoded once and the results are
	// spread over the answer slots afterwards.
	slots := batch.partition()
	var forced []int
	if train {
		forced = batch.CorrectStarts
	} else {
		slots = identity(batch.Size())
	}

	startScores := s.start.Forward(question, matched, lengths).Add(tensor.MaskForLengths(lengths, steps, true, b))

	decoder := beam.NewDecoder(sess.beamSize(), slots)
	starts := decoder.ReceiveStartScores(startScores.Rows(), forced)

	rows := decoder.Rows()
	rowMatched := tensor.GatherRows(matched, rows)
	rowLengths := gatherInts(lengths, rows)
	scoredLengths := make([]int, len(rowLengths))
	for r, l := range rowLengths {
		scoredLengths[r] = l - 1
	}

	endInput := tensor.Cat([]*tensor.Tensor[B]{
		tensor.SelectSteps(rowMatched, starts),
		tensor.GatherRows(question, rows),
	}, 1)
	endScores := s.end.Forward(endInput, rowMatched, scoredLengths)
	endScores = endScores.Add(endMask(starts, rowLengths, steps, !train, b))

	decoder.ReceiveEndScores(endScores.Rows())
	finalStarts, finalEnds, bestRows := decoder.FinalPrediction()

	pred := &Prediction[B]{
		StartScores: []*tensor.Tensor[B]{tensor.GatherRows(startScores, slots)},
		EndScores:   []*tensor.Tensor[B]{tensor.GatherRows(endScores, bestRows)},
		Starts:      finalStarts,
		Ends:        finalEnds,
		TopSpans:    decoder.TopSpans(),
	}
	if !train {
		pred = pred.gather(batch.partition())
	}
	return pred
}

// endMask builds the additive end mask [rows, steps] for start pointers over
// null-augmented lengths.
//
// Allowed ends are the real tokens; with window additionally only
// [start, start+MaxAnswerLengthHeuristic]. A sentinel start allows only the
// sentinel end.
func endMask[B tensor.Backend](starts, lengths []int, steps int, window bool, b B) *tensor.Tensor[B] {
	mask := tensor.Full(tensor.Shape{len(starts), steps}, tensor.NegInf, b)
	data := mask.Data()
	for r, start := range starts {
		row := data[r*steps : (r+1)*steps]
		sentinel := lengths[r] - 1
		if start == sentinel {
			row[sentinel] = 0
			continue
		}

		lo, hi := 0, sentinel-1
		if window {
			lo, hi = start, min(hi, start+MaxAnswerLengthHeuristic)
		}
		for t := lo; t <= hi; t++ {
			row[t] = 0
		}
	}
	return mask
}

// gather spreads per-example results over answer slots.
func (p *Prediction[B]) gather(partition []int) *Prediction[B] {
	out := &Prediction[B]{
		Starts: gatherInts(p.Starts, partition),
		Ends:   gatherInts(p.Ends, partition),
	}
	for _, t := range p.StartScores {
		out.StartScores = append(out.StartScores, tensor.GatherRows(t, partition))
	}
	for _, t := range p.EndScores {
		out.EndScores = append(out.EndScores, tensor.GatherRows(t, partition))
	}
	if p.TopSpans != nil {
		out.TopSpans = make([][]beam.Span, len(partition))
		for i, ex := range partition {
			out.TopSpans[i] = append([]beam.Span(nil), p.TopSpans[ex]...)
		}
	}
	return out
}

// Parameters returns the scorer weights.
func (s *SequentialPointer[B]) Parameters() []*nn.Parameter[B] {
	params := nn.WithPrefix("start", s.start.Parameters())
	return append(params, nn.WithPrefix("end", s.end.Parameters())...)
}
