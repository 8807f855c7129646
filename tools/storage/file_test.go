package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKnowledgeBase(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{
			name:     "basic knowledge base load",
			filename: "ingredients.json",
			data:     []byte(`{"ingredients": [{"name": "Water", "safety_rating": 10}]}`),
		},
		{
			name:     "empty knowledge base file",
			filename: "empty.json",
			data:     []byte(`{"ingredients": []}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.filename)
			require.NoError(t, os.WriteFile(filePath, tt.data, 0644))

			kb := NewFileKnowledgeBase(filePath)
			loaded, err := kb.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.data, loaded)
		})
	}

	t.Run("load nonexistent knowledge base", func(t *testing.T) {
		kb := NewFileKnowledgeBase(filepath.Join(tmpDir, "nonexistent.json"))
		_, err := kb.Load(context.Background())
		assert.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestTestKnowledgeBase(t *testing.T) {
	kb := NewTestKnowledgeBase([]byte(`{}`))
	data, err := kb.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), data)
	assert.Equal(t, 1, kb.Loads())

	_, err = NewTestKnowledgeBaseWithError().Load(context.Background())
	assert.Error(t, err)
}
