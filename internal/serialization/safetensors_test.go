package serialization

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/bioqa/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawTensor(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.RawFromSlice(data, shape, tensor.CPU)
	require.NoError(t, err)
	return raw
}

func TestSafeTensorsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.safetensors")

	stateDict := map[string]*tensor.RawTensor{
		"model.weight": rawTensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}),
		"model.bias":   rawTensor(t, []float32{0.1, -0.2, 0.3}, tensor.Shape{3}),
		"NULL_WORD":    rawTensor(t, []float32{0, 0}, tensor.Shape{2}),
	}
	metadata := map[string]string{"config": `{"type":"pointer"}`, "format": "bioqa"}

	require.NoError(t, WriteSafeTensors(path, stateDict, metadata))

	loaded, meta, err := ReadSafeTensors(path)
	require.NoError(t, err)
	assert.Equal(t, metadata, meta)
	require.Len(t, loaded, len(stateDict))
	for name, want := range stateDict {
		got := loaded[name]
		require.NotNil(t, got, name)
		assert.Equal(t, want.Shape(), got.Shape(), name)
		assert.Equal(t, want.Data(), got.Data(), name)
	}
}

func TestSafeTensorsHeaderLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.safetensors")
	stateDict := map[string]*tensor.RawTensor{
		"b": rawTensor(t, []float32{1, 2}, tensor.Shape{2}),
		"a": rawTensor(t, []float32{3}, tensor.Shape{1}),
	}
	require.NoError(t, WriteSafeTensors(path, stateDict, nil))

	r, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"a", "b"}, r.TensorNames())
	assert.Nil(t, r.Metadata())

	a, err := r.TensorInfo("a")
	require.NoError(t, err)
	assert.Equal(t, [2]int64{0, 4}, a.DataOffsets)
	b, err := r.TensorInfo("b")
	require.NoError(t, err)
	assert.Equal(t, [2]int64{4, 12}, b.DataOffsets)
	assert.Equal(t, "F32", b.DType)

	_, err = r.TensorInfo("c")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

// writeRaw writes a file with a hand-made header and data section.
func writeRaw(t *testing.T, header map[string]any, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.safetensors")

	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)

	buf := make([]byte, 8, 8+len(headerJSON)+len(data))
	binary.LittleEndian.PutUint64(buf, uint64(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = append(buf, data...)
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func TestSafeTensorsReaderRejectsMalformedFiles(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]any
		data   []byte
		want   error
	}{
		{
			name:   "dtype",
			header: map[string]any{"w": SafeTensorInfo{DType: "F16", Shape: []int{2}, DataOffsets: [2]int64{0, 4}}},
			data:   make([]byte, 4),
			want:   ErrUnsupportedDType,
		},
		{
			name:   "out of bounds",
			header: map[string]any{"w": SafeTensorInfo{DType: "F32", Shape: []int{4}, DataOffsets: [2]int64{0, 16}}},
			data:   make([]byte, 8),
			want:   ErrOutOfBounds,
		},
		{
			name:   "shape mismatch",
			header: map[string]any{"w": SafeTensorInfo{DType: "F32", Shape: []int{3}, DataOffsets: [2]int64{0, 8}}},
			data:   make([]byte, 8),
			want:   ErrOutOfBounds,
		},
		{
			name: "overlap",
			header: map[string]any{
				"a": SafeTensorInfo{DType: "F32", Shape: []int{2}, DataOffsets: [2]int64{0, 8}},
				"b": SafeTensorInfo{DType: "F32", Shape: []int{2}, DataOffsets: [2]int64{4, 12}},
			},
			data: make([]byte, 12),
			want: ErrOffsetOverlap,
		},
		{
			name:   "path name",
			header: map[string]any{"../w": SafeTensorInfo{DType: "F32", Shape: []int{1}, DataOffsets: [2]int64{0, 4}}},
			data:   make([]byte, 4),
			want:   ErrInvalidTensorName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSafeTensorsReader(writeRaw(t, tt.header, tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSafeTensorsReaderRejectsHugeHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.safetensors")
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf, 1<<40)
	require.NoError(t, os.WriteFile(path, buf, 0o600))

	_, err := NewSafeTensorsReader(path)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestWriterRejectsInvalidNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.safetensors")
	err := WriteSafeTensors(path, map[string]*tensor.RawTensor{
		"__metadata__": rawTensor(t, []float32{1}, tensor.Shape{1}),
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidTensorName)
}

func TestWriterClosed(t *testing.T) {
	w, err := NewSafeTensorsWriter(filepath.Join(t.TempDir(), "closed.safetensors"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.WriteStateDict(nil, nil), ErrWriterClosed)
}

func TestValidateTensorName(t *testing.T) {
	assert.NoError(t, ValidateTensorName("QAPointerModel.encoder.rnn.fw.gates.weight"))
	for _, name := range []string{"", "a..b", "a/b", `a\b`, "a\x00b"} {
		assert.ErrorIs(t, ValidateTensorName(name), ErrInvalidTensorName, "%q", name)
	}

	long := make([]byte, MaxTensorNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	assert.ErrorIs(t, ValidateTensorName(string(long)), ErrTensorNameTooLong)
}
