package pointer

import (
	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
)

// answerLayer is implemented by the DPN and SPN decoders.
type answerLayer[B tensor.Backend] interface {
	// decode predicts spans from the pooled question [N, H] and the matched
	// context [N, T, 2H] whose null-augmented lengths are lengths.
	decode(sess Session, question, matched *tensor.Tensor[B], lengths []int, batch *Batch[B]) *Prediction[B]

	Parameters() []*nn.Parameter[B]
}

// dropIn applies the decoder's own dropout to its input in Train mode.
func dropIn[B tensor.Backend](d *nn.Dropout[B], sess Session, x *tensor.Tensor[B]) *tensor.Tensor[B] {
	if sess.Mode != Train {
		return x
	}
	return d.Forward(x, sess.Rand)
}
