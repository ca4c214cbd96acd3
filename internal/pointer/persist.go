package pointer

import (
	"fmt"
	"os"

	"github.com/born-ml/bioqa/internal/serialization"
	"github.com/born-ml/bioqa/internal/tensor"
)

// Metadata keys of a saved weights file.
const (
	MetadataFormat = "format"
	MetadataConfig = "config"

	formatName = "bioqa-pointer"
)

// Save writes the weights to path in SafeTensors format, with the model
// config in the file metadata.
func (m *Model[B]) Save(path string) error {
	cfg, err := m.Config().Marshal()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	metadata := map[string]string{
		MetadataFormat: formatName,
		MetadataConfig: string(cfg),
	}
	if err := serialization.WriteSafeTensors(path, m.StateDict(), metadata); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Load restores a model for inference.
//
// The config is read from configPath, or from the weights file metadata
// when configPath is empty. Dropout is disabled (keep_prob 1). devices
// overrides the configured placement when non-empty.
func Load[B tensor.Backend](configPath, weightsPath string, devices []string, backend B) (*Model[B], error) {
	stateDict, metadata, err := serialization.ReadSafeTensors(weightsPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", weightsPath, err)
	}

	var raw []byte
	if configPath != "" {
		//nolint:gosec // G304: config path comes from the caller
		if raw, err = os.ReadFile(configPath); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		stored, ok := metadata[MetadataConfig]
		if !ok {
			return nil, fmt.Errorf("%w: %s carries no config metadata", ErrInvalidConfig, weightsPath)
		}
		raw = []byte(stored)
	}

	m, err := CreateFromConfig(raw, devices, 0, backend)
	if err != nil {
		return nil, err
	}
	if err := m.LoadStateDict(stateDict); err != nil {
		return nil, fmt.Errorf("load %s: %w", weightsPath, err)
	}
	return m, nil
}
