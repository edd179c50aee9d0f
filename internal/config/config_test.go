package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "json", cfg.Store.Type)
	assert.Equal(t, 500, cfg.Chunker.Size)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, 10, cfg.Query.TopK)
	assert.Equal(t, 4, cfg.Indexing.Concurrency)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "openai-key.txt", filepath.Base(cfg.Embedder.OpenAI.APIKeyFile))
	assert.Equal(t, 30*time.Second, cfg.Embedder.OpenAI.Timeout())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_AppliesDefaultsToPartialFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
store:
  type: sqlite
embedder:
  type: hashing
summarizer:
  type: none
chunker:
  size: 100
  overlap: 10
`), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "vector-store.db", filepath.Base(cfg.Store.Path))
	assert.Equal(t, 100, cfg.Chunker.Size)
	assert.Equal(t, 10, cfg.Chunker.Overlap)
	assert.Nil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, 512, cfg.Embedder.Hashing.Dimension)
	assert.Equal(t, "none", cfg.Summarizer.Type)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"overlap not below size", "chunker: {size: 50, overlap: 50}"},
		{"negative overlap", "chunker: {size: 50, overlap: -1}"},
		{"unknown store", "store: {type: qdrant}"},
		{"unknown embedder", "embedder: {type: word2vec}"},
		{"unknown summarizer", "summarizer: {type: gpt}"},
		{"negative concurrency", "indexing: {concurrency: -2}"},
		{"negative top k", "query: {top_k: -1}"},
		{"unknown log format", "log: {format: xml}"},
		{"malformed", "store: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(p, []byte(tt.yaml), 0o644))
			_, err := Load(p)
			assert.Error(t, err)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Query.TopK = 3
	cfg.Summarizer.MaxSentences = 7
	require.NoError(t, Save(p, cfg))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadDefault_WritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "docrag", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, filepath.Join(home, ".config", "docrag", "vector-store.json"), cfg.Store.Path)
}

func TestLoadDefault_PrefersWorkingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd := t.TempDir()
	t.Chdir(wd)
	require.NoError(t, os.WriteFile("config.yaml", []byte("query: {top_k: 4}\n"), 0o644))

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", path)
	assert.Equal(t, 4, cfg.Query.TopK)
}
