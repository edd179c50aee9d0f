package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

// setup writes an offline config and a folder with two documents.
func setup(t *testing.T, storeType string) (cfgPath, docs string) {
	t.Helper()
	root := t.TempDir()
	docs = filepath.Join(root, "docs")
	require.NoError(t, os.Mkdir(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "cats.txt"), []byte("Cats purr when they are content."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "dogs.md"), []byte("Dogs bark at the mail carrier."), 0o644))

	cfgPath = filepath.Join(root, "config.yaml")
	cfg := fmt.Sprintf(`store:
  type: %s
  path: %s
embedder:
  type: hashing
  hashing:
    dimension: 128
summarizer:
  type: frequency
  max_sentences: 1
log:
  level: error
`, storeType, filepath.Join(root, "store."+storeType))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, docs
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_IndexSearchStatsRemove(t *testing.T) {
	for _, storeType := range []string{"json", "sqlite", "bolt"} {
		t.Run(storeType, func(t *testing.T) {
			cfg, docs := setup(t, storeType)

			out, err := execute(t, "--config", cfg, "index", docs)
			require.NoError(t, err)
			assert.Contains(t, out, "Indexed 2 chunks from "+docs)

			out, err = execute(t, "--config", cfg, "search", "cats", "purr")
			require.NoError(t, err)
			assert.Contains(t, out, "Cats purr when they are content.\n\n")
			assert.Contains(t, out, "1. cats.txt (")
			assert.Contains(t, out, filepath.Join(docs, "cats.txt")+"#0")

			out, err = execute(t, "--config", cfg, "stats", "--json")
			require.NoError(t, err)
			var st domain.Stats
			require.NoError(t, json.Unmarshal([]byte(out), &st))
			assert.Equal(t, 2, st.TotalChunks)
			assert.Equal(t, 1, st.TotalFolders)

			out, err = execute(t, "--config", cfg, "remove", filepath.Join(docs, "cats.txt"))
			require.NoError(t, err)
			assert.Contains(t, out, "Removed 1 chunks")

			out, err = execute(t, "--config", cfg, "stats")
			require.NoError(t, err)
			assert.Contains(t, out, "Chunks:  1\n")
			assert.Contains(t, out, filepath.Join(docs, "dogs.md"))
		})
	}
}

func TestCLI_SearchJSON(t *testing.T) {
	cfg, docs := setup(t, "json")
	_, err := execute(t, "--config", cfg, "index", docs)
	require.NoError(t, err)

	out, err := execute(t, "--config", cfg, "search", "--json", "dogs bark")
	require.NoError(t, err)
	var resp domain.QueryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "dogs.md", resp.Results[0].Metadata.FileName)
	require.NotNil(t, resp.Results[0].Preview)
	assert.Equal(t, "Dogs bark at the mail carrier.", string(resp.Results[0].Preview.Data))
}

func TestCLI_Reindex(t *testing.T) {
	cfg, docs := setup(t, "json")
	_, err := execute(t, "--config", cfg, "index", docs)
	require.NoError(t, err)

	p := filepath.Join(docs, "cats.txt")
	require.NoError(t, os.WriteFile(p, []byte("Cats nap all afternoon."), 0o644))
	out, err := execute(t, "--config", cfg, "reindex", p)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 1 chunks from "+p)

	out, err = execute(t, "--config", cfg, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Chunks:  2\n")
}

func TestCLI_IndexFolderSelection(t *testing.T) {
	cfg, docs := setup(t, "json")

	_, err := execute(t, "--config", cfg, "index")
	assert.ErrorContains(t, err, "no folder selected")

	_, err = execute(t, "--config", cfg, "index", "--here", docs)
	assert.ErrorContains(t, err, "not both")

	t.Chdir(docs)
	out, err := execute(t, "--config", cfg, "index", "--here")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 chunks")
}

func TestCLI_IndexMissingFolder(t *testing.T) {
	cfg, docs := setup(t, "json")
	out, err := execute(t, "--config", cfg, "index", filepath.Join(docs, "nope"))
	assert.ErrorContains(t, err, "nothing indexed")
	assert.Contains(t, out, "error: scan failed")
}

func TestCLI_Config(t *testing.T) {
	cfg, _ := setup(t, "bolt")
	out, err := execute(t, "--config", cfg, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "# "+cfg+"\n")
	assert.Contains(t, out, "type: hashing")
	assert.Contains(t, out, "top_k: 10")
}

func TestCLI_BadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("chunker: {size: 10, overlap: 20}\n"), 0o644))
	_, err := execute(t, "--config", p, "stats")
	assert.ErrorContains(t, err, "failed to load config")
}
