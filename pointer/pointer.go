// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package pointer

import (
	"github.com/born-ml/bioqa/internal/beam"
	"github.com/born-ml/bioqa/internal/embed"
	"github.com/born-ml/bioqa/internal/pointer"
	"github.com/born-ml/bioqa/tensor"
)

// Model is the pointer-network answer extractor.
type Model[B tensor.Backend] = pointer.Model[B]

// Config is the persisted model configuration.
type Config = pointer.Config

// TransferConfig describes the word embedding model.
type TransferConfig = embed.Config

// TransferModel embeds token ids into word vectors.
type TransferModel[B tensor.Backend] = embed.Model[B]

// Batch is one padded batch of embedded questions and contexts.
type Batch[B tensor.Backend] = pointer.Batch[B]

// Prediction holds the scores and pointers of one forward pass.
type Prediction[B tensor.Backend] = pointer.Prediction[B]

// Session carries the mode, beam size and dropout source of a forward pass.
type Session = pointer.Session

// Mode selects training or evaluation behavior.
type Mode = pointer.Mode

// AnswerLayerType selects the answer decoder.
type AnswerLayerType = pointer.AnswerLayerType

// Span is a ranked answer span.
type Span = beam.Span

// Forward pass modes.
const (
	Train = pointer.Train
	Eval  = pointer.Eval
)

// Answer layers.
const (
	DPN = pointer.DPN
	SPN = pointer.SPN
)

// MaxAnswerLengthHeuristic bounds end - start for SPN spans in evaluation.
const MaxAnswerLengthHeuristic = pointer.MaxAnswerLengthHeuristic

// Errors returned by model construction, loading and Encode.
var (
	ErrUnknownAnswerLayer = pointer.ErrUnknownAnswerLayer
	ErrUnknownModelType   = pointer.ErrUnknownModelType
	ErrInvalidConfig      = pointer.ErrInvalidConfig
	ErrInvalidBatch       = pointer.ErrInvalidBatch
	ErrInvalidSession     = pointer.ErrInvalidSession
)

// DefaultConfig returns the configuration defaults.
func DefaultConfig() Config {
	return pointer.DefaultConfig()
}

// ParseConfig decodes a JSON config over DefaultConfig.
func ParseConfig(raw []byte) (Config, error) {
	return pointer.ParseConfig(raw)
}

// NewTransferModel creates a randomly initialized embedding model.
func NewTransferModel[B tensor.Backend](cfg TransferConfig, backend B) (*TransferModel[B], error) {
	return embed.New(cfg, backend)
}

// New creates a model around a transfer model. A nil transfer model is
// built from cfg.TransferModel.
func New[B tensor.Backend](cfg Config, transfer *TransferModel[B], backend B) (*Model[B], error) {
	return pointer.New(cfg, transfer, backend)
}

// CreateFromConfig creates a model from JSON config bytes. Non-empty
// devices replace the configured ones and keep_prob is set to 1 - dropout.
func CreateFromConfig[B tensor.Backend](raw []byte, devices []string, dropout float64, backend B) (*Model[B], error) {
	return pointer.CreateFromConfig(raw, devices, dropout, backend)
}

// Load reads a model saved with Model.Save. An empty configPath uses the
// config stored in the weights file.
func Load[B tensor.Backend](configPath, weightsPath string, devices []string, backend B) (*Model[B], error) {
	return pointer.Load(configPath, weightsPath, devices, backend)
}

// TrainSession returns a training session with a seeded dropout source.
func TrainSession(seed int64) Session {
	return pointer.TrainSession(seed)
}

// EvalSession returns an evaluation session decoding beamSize spans.
func EvalSession(beamSize int) Session {
	return pointer.EvalSession(beamSize)
}
