// Package pointer implements the pointer-network answer extraction model.
//
// A Model encodes question and context, appends a "no answer" sentinel to
// both, fuses them with co-attention and points at the answer span with one
// of two decoders:
//
//	DPN: four refinement iterations of a dynamic pointer decoder
//	SPN: a start/end pointer decoder with beam search over spans
//
// Example:
//
//	cfg := pointer.DefaultConfig()
//	model, err := pointer.New(cfg, nil, cpu.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model.SetEval()
//	model.SetBeamSize(5)
//	pred, err := model.Encode(batch)
package pointer

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/born-ml/bioqa/internal/beam"
	"github.com/born-ml/bioqa/internal/embed"
	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
)

// Model is the pointer-network QA model.
//
// Forward passes only read the weights. EncodeWith may be called
// concurrently; the default session used by Encode is guarded by a mutex.
type Model[B tensor.Backend] struct {
	cfg         Config
	composition nn.Composition
	layerType   AnswerLayerType
	backend     B

	transfer    *embed.Model[B]
	encoder     *Encoder[B]
	nullWord    *NullWord[B]
	matcher     *Matcher[B]
	answerLayer answerLayer[B]

	mu      sync.Mutex
	session Session
	last    *Prediction[B]
}

// New creates a model with freshly initialized weights on top of a transfer
// model. A nil transfer model is built from cfg.TransferModel.
//
// Devices other than the backend's device are rejected with
// tensor.ErrUnsupportedDevice.
func New[B tensor.Backend](cfg Config, transfer *embed.Model[B], backend B) (*Model[B], error) {
	if transfer == nil {
		var err error
		if transfer, err = embed.New(cfg.TransferModel, backend); err != nil {
			return nil, fmt.Errorf("%w: transfer_model: %w", ErrInvalidConfig, err)
		}
	}
	cfg.TransferModel = transfer.Config()

	composition, layerType, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if _, err := tensor.ParseDevices(cfg.Devices, backend.Device()); err != nil {
		return nil, err
	}

	encoder, err := NewEncoder(composition, transfer.EmbeddingSize(), cfg.Size, backend)
	if err != nil {
		return nil, err
	}
	matcher, err := NewMatcher(composition, cfg.Size, backend)
	if err != nil {
		return nil, err
	}

	var layer answerLayer[B]
	switch layerType {
	case DPN:
		layer, err = NewDynamicPointer(composition, cfg.Size, cfg.AnswerLayerDepth, cfg.AnswerLayerPoolSize, cfg.KeepProb, backend)
	case SPN:
		layer, err = NewSequentialPointer(cfg.Size, cfg.AnswerLayerDepth, cfg.AnswerLayerPoolSize, cfg.KeepProb, backend)
	}
	if err != nil {
		return nil, err
	}

	return &Model[B]{
		cfg:         cfg,
		composition: composition,
		layerType:   layerType,
		backend:     backend,
		transfer:    transfer,
		encoder:     encoder,
		nullWord:    NewNullWord(cfg.Size, backend),
		matcher:     matcher,
		answerLayer: layer,
		session:     Session{Mode: Train, BeamSize: 1, Rand: newRand(rand.Int63())}, //nolint:gosec // dropout seed
	}, nil
}

// CreateFromConfig builds a model from a raw JSON config.
//
// Missing keys take their defaults (answer_layer_depth 1,
// answer_layer_poolsize 8, answer_layer_type "dpn"). keep_prob is set to
// 1 - dropout and devices overrides the config's placement when non-empty.
func CreateFromConfig[B tensor.Backend](raw []byte, devices []string, dropout float64, backend B) (*Model[B], error) {
	cfg, err := ParseConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg.KeepProb = 1 - dropout
	if len(devices) > 0 {
		cfg.Devices = devices
	}
	return New[B](cfg, nil, backend)
}

// Config returns the model configuration.
func (m *Model[B]) Config() Config {
	cfg := m.cfg
	cfg.Devices = append([]string(nil), m.cfg.Devices...)
	return cfg
}

// AnswerLayerType returns the decoder in use.
func (m *Model[B]) AnswerLayerType() AnswerLayerType {
	return m.layerType
}

// Transfer returns the transfer model.
func (m *Model[B]) Transfer() *embed.Model[B] {
	return m.transfer
}

// Backend returns the compute backend.
func (m *Model[B]) Backend() B {
	return m.backend
}

// NewBatch embeds token ids with the transfer model.
func (m *Model[B]) NewBatch(questions, contexts [][]int) *Batch[B] {
	q, qLengths := m.transfer.Embed(questions)
	c, cLengths := m.transfer.Embed(contexts)
	return &Batch[B]{
		Questions:       q,
		Contexts:        c,
		QuestionLengths: qLengths,
		ContextLengths:  cLengths,
	}
}

// SetTrain switches the default session to training.
func (m *Model[B]) SetTrain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Mode = Train
}

// SetEval switches the default session to evaluation.
func (m *Model[B]) SetEval() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Mode = Eval
}

// SetBeamSize sets the evaluation beam size of the default session.
func (m *Model[B]) SetBeamSize(k int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.BeamSize = k
}

// SetSeed reseeds the dropout source of the default session.
func (m *Model[B]) SetSeed(seed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Rand = newRand(seed)
}

// Session returns a copy of the default session. The copy shares the
// default dropout source, so it must not be used concurrently with Encode.
func (m *Model[B]) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Encode runs a forward pass with the default session and remembers the
// prediction for the accessors.
func (m *Model[B]) Encode(batch *Batch[B]) (*Prediction[B], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pred, err := m.EncodeWith(m.session, batch)
	if err != nil {
		return nil, err
	}
	m.last = pred
	return pred, nil
}

// EncodeWith runs a forward pass with an explicit session.
func (m *Model[B]) EncodeWith(sess Session, batch *Batch[B]) (*Prediction[B], error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	if err := batch.validate(m.transfer.EmbeddingSize()); err != nil {
		return nil, err
	}

	question, qLengths, context, cLengths, pooled := m.encode(batch)
	matched := m.matcher.Forward(context, cLengths, question, qLengths)
	return m.answerLayer.decode(sess, pooled, matched, cLengths, batch), nil
}

// encode runs the encoder and appends the sentinel to both sequences.
func (m *Model[B]) encode(batch *Batch[B]) (question *tensor.Tensor[B], qLengths []int, context *tensor.Tensor[B], cLengths []int, pooled *tensor.Tensor[B]) {
	question, pooled = m.encoder.EncodeQuestion(batch.Questions, batch.QuestionLengths)
	context = m.encoder.EncodeContext(batch.Contexts, batch.ContextLengths)

	question, qLengths = m.nullWord.Append(question, batch.QuestionLengths)
	context, cLengths = m.nullWord.Append(context, batch.ContextLengths)
	return question, qLengths, context, cLengths, pooled
}

// StartScores returns the start scores of the last Encode.
func (m *Model[B]) StartScores() []*tensor.Tensor[B] {
	if p := m.lastPrediction(); p != nil {
		return p.StartScores
	}
	return nil
}

// EndScores returns the end scores of the last Encode.
func (m *Model[B]) EndScores() []*tensor.Tensor[B] {
	if p := m.lastPrediction(); p != nil {
		return p.EndScores
	}
	return nil
}

// PredictedAnswerStarts returns the start pointers of the last Encode.
func (m *Model[B]) PredictedAnswerStarts() []int {
	if p := m.lastPrediction(); p != nil {
		return p.Starts
	}
	return nil
}

// PredictedAnswerEnds returns the end pointers of the last Encode.
func (m *Model[B]) PredictedAnswerEnds() []int {
	if p := m.lastPrediction(); p != nil {
		return p.Ends
	}
	return nil
}

// TopSpans returns the ranked spans of the last Encode (SPN only).
func (m *Model[B]) TopSpans() [][]beam.Span {
	if p := m.lastPrediction(); p != nil {
		return p.TopSpans
	}
	return nil
}

func (m *Model[B]) lastPrediction() *Prediction[B] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Parameters returns every weight of the model, qualified with the model name.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	params = append(params, nn.WithPrefix("transfer", m.transfer.Parameters())...)
	params = append(params, nn.WithPrefix("encoder", m.encoder.Parameters())...)
	params = append(params, m.nullWord.Parameters()...)
	params = append(params, nn.WithPrefix("match", m.matcher.Parameters())...)
	params = append(params, nn.WithPrefix("pointer", m.answerLayer.Parameters())...)
	return nn.WithPrefix(m.cfg.Name, params)
}

// StateDict returns the model weights by name. The tensors share memory
// with the model.
func (m *Model[B]) StateDict() map[string]*tensor.RawTensor {
	return nn.StateDict(m.Parameters())
}

// LoadStateDict copies weights into the model. Names and shapes must match
// exactly.
func (m *Model[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return nn.LoadStateDict(m.Parameters(), stateDict)
}
