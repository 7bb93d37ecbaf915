package storage

import (
	"testing"
	"time"

	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalChunkRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		record *core.ChunkRecord
	}{
		{
			name: "minimal record",
			record: &core.ChunkRecord{
				Id:         1,
				Namespace:  "user_1",
				Source:     "doc.txt",
				Contents:   "Hello",
				InsertedAt: now,
			},
		},
		{
			name: "record with vector",
			record: &core.ChunkRecord{
				Id:         2,
				Namespace:  "user_1",
				DocumentId: core.IDFromContent("doc.txt"),
				Source:     "doc.txt",
				Index:      7,
				Contents:   "The capital of France is Paris.",
				Vector:     []float32{0.1, -0.2, 0.3, 0.4, 0.5},
				InsertedAt: now,
			},
		},
		{
			name: "unicode contents",
			record: &core.ChunkRecord{
				Id:         3,
				Namespace:  "user_42",
				Source:     "notes.md",
				Contents:   "Hello 世界 🌍 émojis",
				Vector:     []float32{1},
				InsertedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChunkRecord(tt.record)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalChunkRecord(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.record.Id, decoded.Id)
			assert.Equal(t, tt.record.Namespace, decoded.Namespace)
			assert.Equal(t, tt.record.DocumentId, decoded.DocumentId)
			assert.Equal(t, tt.record.Source, decoded.Source)
			assert.Equal(t, tt.record.Index, decoded.Index)
			assert.Equal(t, tt.record.Contents, decoded.Contents)
			assert.True(t, tt.record.InsertedAt.Equal(decoded.InsertedAt))
			if len(tt.record.Vector) == 0 {
				assert.Empty(t, decoded.Vector)
			} else {
				assert.Equal(t, tt.record.Vector, decoded.Vector)
			}
		})
	}
}

func TestUnmarshalChunkRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalChunkRecord(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestMarshalUnmarshalNamespaceInfo(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	info := &core.NamespaceInfo{
		Namespace: "user_7",
		Dimension: 384,
		Chunks:    12,
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now,
	}

	decoded, err := UnmarshalNamespaceInfo(MarshalNamespaceInfo(info))
	require.NoError(t, err)
	assert.Equal(t, info.Namespace, decoded.Namespace)
	assert.Equal(t, info.Dimension, decoded.Dimension)
	assert.Equal(t, info.Chunks, decoded.Chunks)
	assert.True(t, info.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, info.UpdatedAt.Equal(decoded.UpdatedAt))

	_, err = UnmarshalNamespaceInfo(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
