// Package beam implements grouped top-K beam search over two pointer steps.
//
// A Decoder tracks answer slots, each belonging to one example (the
// partition). Start scores are expanded into up to K hypothesis rows per
// slot; end scores for those rows are combined with the start probabilities
// and contracted back to the K best (start, end) spans per slot.
//
// Ties are broken by the lowest flat index so results are reproducible.
package beam

import (
	"fmt"
	"math"
	"sort"
)

// Span is a scored answer span.
type Span struct {
	Start int
	End   int
	Prob  float32
}

// Decoder is a two-step grouped beam search.
//
// Example:
//
//	d := beam.NewDecoder(5, []int{0, 1})
//	starts := d.ReceiveStartScores(startScores, nil)
//	// score ends for each row in d.Rows() ...
//	d.ReceiveEndScores(endScores)
//	spans := d.TopSpans()
type Decoder struct {
	beamSize  int
	partition []int // slot -> example

	rowSlot    []int // row -> slot
	rowStart   []int
	rowLogProb []float64

	spans    [][]Span
	spanRows [][]int
}

// NewDecoder creates a decoder keeping up to beamSize hypotheses per slot.
//
// partition maps each answer slot to the example whose scores it reads.
// Panics if beamSize < 1 or the partition is empty.
func NewDecoder(beamSize int, partition []int) *Decoder {
	if beamSize < 1 {
		panic(fmt.Sprintf("beam.NewDecoder: expected beam size >= 1, got %d", beamSize))
	}
	if len(partition) == 0 {
		panic("beam.NewDecoder: empty partition")
	}

	return &Decoder{
		beamSize:  beamSize,
		partition: append([]int(nil), partition...),
	}
}

// BeamSize returns the configured number of hypotheses per slot.
func (d *Decoder) BeamSize() int {
	return d.beamSize
}

// ReceiveStartScores selects start hypotheses.
//
// scores holds one row of raw scores per example (-Inf marks disallowed
// positions). For every slot the softmax of its example's row is taken and
// the top K positions with non-zero probability become hypothesis rows.
//
// If forced is non-nil it holds one start per slot that replaces the
// selection; this requires a beam size of 1.
//
// Returns the start position of every hypothesis row.
func (d *Decoder) ReceiveStartScores(scores [][]float32, forced []int) []int {
	if forced != nil && d.beamSize != 1 {
		panic(fmt.Sprintf("beam.ReceiveStartScores: forced starts need beam size 1, got %d", d.beamSize))
	}
	if forced != nil && len(forced) != len(d.partition) {
		panic(fmt.Sprintf("beam.ReceiveStartScores: expected %d forced starts, got %d", len(d.partition), len(forced)))
	}

	d.rowSlot, d.rowStart, d.rowLogProb = nil, nil, nil
	d.spans, d.spanRows = nil, nil

	logProbs := make(map[int][]float64)
	for slot, example := range d.partition {
		if example < 0 || example >= len(scores) {
			panic(fmt.Sprintf("beam.ReceiveStartScores: slot %d refers to example %d, have %d", slot, example, len(scores)))
		}
		lp, ok := logProbs[example]
		if !ok {
			lp = LogSoftmax(scores[example])
			logProbs[example] = lp
		}

		if forced != nil {
			s := forced[slot]
			if s < 0 || s >= len(lp) {
				panic(fmt.Sprintf("beam.ReceiveStartScores: forced start %d out of range [0, %d)", s, len(lp)))
			}
			d.addRow(slot, s, lp[s])
			continue
		}

		for _, s := range topFinite(lp, d.beamSize) {
			d.addRow(slot, s, lp[s])
		}
	}

	return append([]int(nil), d.rowStart...)
}

func (d *Decoder) addRow(slot, start int, logProb float64) {
	d.rowSlot = append(d.rowSlot, slot)
	d.rowStart = append(d.rowStart, start)
	d.rowLogProb = append(d.rowLogProb, logProb)
}

// Rows returns the originating example of every hypothesis row.
func (d *Decoder) Rows() []int {
	rows := make([]int, len(d.rowSlot))
	for r, slot := range d.rowSlot {
		rows[r] = d.partition[slot]
	}
	return rows
}

// ReceiveEndScores ranks spans.
//
// scores holds one row of raw end scores per hypothesis row. Each row is
// normalized with a softmax and combined with its start log-probability;
// every slot then keeps its K best (start, end) pairs by joint probability.
//
// A slot with fewer than K allowed pairs is padded to K entries with copies
// of its rank-1 span at probability zero.
func (d *Decoder) ReceiveEndScores(scores [][]float32) {
	if len(scores) != len(d.rowSlot) {
		panic(fmt.Sprintf("beam.ReceiveEndScores: expected %d rows, got %d", len(d.rowSlot), len(scores)))
	}

	type candidate struct {
		row, end int
		logProb  float64
	}

	bySlot := make([][]candidate, len(d.partition))
	for r, row := range scores {
		lp := LogSoftmax(row)
		slot := d.rowSlot[r]
		for end, v := range lp {
			bySlot[slot] = append(bySlot[slot], candidate{row: r, end: end, logProb: d.rowLogProb[r] + v})
		}
	}

	d.spans = make([][]Span, len(d.partition))
	d.spanRows = make([][]int, len(d.partition))
	for slot, cands := range bySlot {
		if len(cands) == 0 {
			panic(fmt.Sprintf("beam.ReceiveEndScores: slot %d has no hypotheses", slot))
		}

		// Candidates are in flat (row, end) order; a stable sort keeps the
		// lowest flat index first among equals.
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].logProb > cands[j].logProb
		})

		for i, c := range cands {
			if i > 0 && (len(d.spans[slot]) == d.beamSize || math.IsInf(c.logProb, -1)) {
				break
			}
			d.spans[slot] = append(d.spans[slot], Span{
				Start: d.rowStart[c.row],
				End:   c.end,
				Prob:  float32(math.Exp(c.logProb)),
			})
			d.spanRows[slot] = append(d.spanRows[slot], c.row)
		}
		for len(d.spans[slot]) < d.beamSize {
			pad := d.spans[slot][0]
			pad.Prob = 0
			d.spans[slot] = append(d.spans[slot], pad)
			d.spanRows[slot] = append(d.spanRows[slot], d.spanRows[slot][0])
		}
	}
}

// TopSpans returns exactly K ranked spans per slot, best first.
// Panics if end scores have not been received.
func (d *Decoder) TopSpans() [][]Span {
	d.mustHaveSpans("TopSpans")

	out := make([][]Span, len(d.spans))
	for i, s := range d.spans {
		out[i] = append([]Span(nil), s...)
	}
	return out
}

// FinalPrediction returns the rank-1 span of every slot and the hypothesis
// row it came from.
func (d *Decoder) FinalPrediction() (starts, ends, bestRows []int) {
	d.mustHaveSpans("FinalPrediction")

	starts = make([]int, len(d.spans))
	ends = make([]int, len(d.spans))
	bestRows = make([]int, len(d.spans))
	for slot, s := range d.spans {
		starts[slot] = s[0].Start
		ends[slot] = s[0].End
		bestRows[slot] = d.spanRows[slot][0]
	}
	return starts, ends, bestRows
}

func (d *Decoder) mustHaveSpans(op string) {
	if d.spans == nil {
		panic(fmt.Sprintf("beam.%s: end scores not received", op))
	}
}
