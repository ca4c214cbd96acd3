package pointer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/born-ml/bioqa/internal/embed"
	"github.com/born-ml/bioqa/internal/nn"
)

// ModelType is the config "type" of the pointer model.
const ModelType = "pointer"

// AnswerLayerType selects the answer pointer decoder.
type AnswerLayerType int

// Supported answer layers.
const (
	// DPN is the iterative dynamic pointer decoder.
	DPN AnswerLayerType = iota
	// SPN is the sequential pointer decoder with beam search.
	SPN
)

// String returns the configuration name of the answer layer.
func (t AnswerLayerType) String() string {
	switch t {
	case DPN:
		return "dpn"
	case SPN:
		return "spn"
	default:
		return fmt.Sprintf("AnswerLayerType(%d)", int(t))
	}
}

// ParseAnswerLayerType parses "dpn" or "spn" (case-insensitive).
func ParseAnswerLayerType(s string) (AnswerLayerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dpn":
		return DPN, nil
	case "spn":
		return SPN, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAnswerLayer, s)
	}
}

// Config is the persisted model configuration.
type Config struct {
	Type                string       `json:"type" jsonschema:"model type, always pointer"`
	Name                string       `json:"name" jsonschema:"model name, used as the weight prefix"`
	Size                int          `json:"size" jsonschema:"hidden size H of every recurrent layer"`
	Composition         string       `json:"composition" jsonschema:"recurrent cell: GRU, RNN or LSTM"`
	KeepProb            float64      `json:"keep_prob" jsonschema:"probability of keeping a unit under dropout"`
	AnswerLayerType     string       `json:"answer_layer_type" jsonschema:"answer decoder: dpn or spn"`
	AnswerLayerDepth    int          `json:"answer_layer_depth" jsonschema:"number of highway-maxout layers"`
	AnswerLayerPoolSize int          `json:"answer_layer_poolsize" jsonschema:"maxout pool size"`
	TransferModel       embed.Config `json:"transfer_model" jsonschema:"word embedding model"`
	Devices             []string     `json:"devices,omitempty" jsonschema:"device placements such as /cpu:0"`
}

// DefaultConfig returns the configuration defaults. Keys missing from a
// parsed config keep these values.
func DefaultConfig() Config {
	return Config{
		Type:                ModelType,
		Name:                "QAPointerModel",
		Size:                64,
		Composition:         nn.GRU.String(),
		KeepProb:            1.0,
		AnswerLayerType:     DPN.String(),
		AnswerLayerDepth:    1,
		AnswerLayerPoolSize: 8,
		TransferModel:       embed.DefaultConfig(),
	}
}

// ParseConfig decodes a JSON config over DefaultConfig.
func ParseConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Marshal encodes the config as indented JSON.
func (c Config) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Validate checks the config and returns the parsed enums.
func (c Config) Validate() (nn.Composition, AnswerLayerType, error) {
	if c.Type != ModelType {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownModelType, c.Type)
	}
	composition, err := nn.ParseComposition(c.Composition)
	if err != nil {
		return 0, 0, err
	}
	layer, err := ParseAnswerLayerType(c.AnswerLayerType)
	if err != nil {
		return 0, 0, err
	}
	if c.Size < 1 {
		return 0, 0, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, c.Size)
	}
	if c.KeepProb <= 0 || c.KeepProb > 1 {
		return 0, 0, fmt.Errorf("%w: keep_prob must be in (0, 1], got %v", ErrInvalidConfig, c.KeepProb)
	}
	if c.AnswerLayerDepth < 1 || c.AnswerLayerPoolSize < 1 {
		return 0, 0, fmt.Errorf("%w: answer layer depth and pool size must be positive, got %d and %d",
			ErrInvalidConfig, c.AnswerLayerDepth, c.AnswerLayerPoolSize)
	}
	if err := c.TransferModel.Validate(); err != nil {
		return 0, 0, fmt.Errorf("%w: transfer_model: %w", ErrInvalidConfig, err)
	}
	return composition, layer, nil
}
