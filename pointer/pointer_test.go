package pointer_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bioqa/backend/cpu"
	"github.com/born-ml/bioqa/pointer"
)

func TestFacadeRoundTrip(t *testing.T) {
	backend := cpu.New()

	cfg := pointer.DefaultConfig()
	cfg.Size = 4
	cfg.AnswerLayerType = pointer.SPN.String()
	cfg.AnswerLayerPoolSize = 2
	cfg.TransferModel = pointer.TransferConfig{Type: "embedder", VocabSize: 50, EmbeddingSize: 3}

	transfer, err := pointer.NewTransferModel(cfg.TransferModel, backend)
	require.NoError(t, err)
	model, err := pointer.New(cfg, transfer, backend)
	require.NoError(t, err)
	assert.Equal(t, pointer.SPN, model.AnswerLayerType())

	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, model.Save(path))

	loaded, err := pointer.Load("", path, []string{"/cpu:0"}, backend)
	require.NoError(t, err)

	batch := loaded.NewBatch([][]int{{1, 2, 3}}, [][]int{{4, 5, 6, 7}})
	pred, err := loaded.EncodeWith(pointer.EvalSession(2), batch)
	require.NoError(t, err)
	require.Len(t, pred.TopSpans, 1)
	assert.Len(t, pred.TopSpans[0], 2)

	_, err = pointer.Load("", path, []string{"/gpu:0"}, backend)
	assert.Error(t, err)
}

func TestFacadeRejectsUnknownAnswerLayer(t *testing.T) {
	_, err := pointer.CreateFromConfig([]byte(`{"answer_layer_type": "crf"}`), nil, 0, cpu.New())
	assert.ErrorIs(t, err, pointer.ErrUnknownAnswerLayer)
}
