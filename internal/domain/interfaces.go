package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Metadata locates a chunk inside the corpus.
type Metadata struct {
	SourcePath string    `json:"source"`
	FileName   string    `json:"fileName"`
	FolderPath string    `json:"folderPath"`
	Extension  string    `json:"extension"`
	ChunkIndex int       `json:"chunkIndex"`
	Timestamp  time.Time `json:"timestamp"`
}

// Chunk is a word window of a source document paired with its embedding.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
}

// Clone returns a deep copy so callers never share the embedding backing array.
func (c Chunk) Clone() Chunk {
	out := c
	out.Embedding = append([]float64(nil), c.Embedding...)
	return out
}

// Preview carries the raw bytes of a result's source file.
type Preview struct {
	Extension string `json:"extension"`
	Data      []byte `json:"data"`
	Truncated bool   `json:"truncated"`
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Text     string   `json:"text"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
	Preview  *Preview `json:"preview,omitempty"`
}

// IndexingOutcome reports what an indexing run stored and what it could not.
type IndexingOutcome struct {
	ChunksAdded int      `json:"chunksAdded"`
	Errors      []string `json:"errors"`
}

// Failed records a failure description.
func (o *IndexingOutcome) Failed(err error) {
	o.Errors = append(o.Errors, err.Error())
}

// FileRef names an indexed file.
type FileRef struct {
	FileName   string `json:"fileName"`
	FolderPath string `json:"folderPath"`
}

// Stats summarizes the store contents.
type Stats struct {
	TotalChunks  int       `json:"totalChunks"`
	TotalFolders int       `json:"totalFolders"`
	Folders      []string  `json:"folders"`
	Files        []FileRef `json:"files"`
}

// QueryResponse is the answer to a free-text query.
type QueryResponse struct {
	Results []SearchResult `json:"results"`
	Summary string         `json:"summary"`
}

// Prompt is the summarization request built from a query and its results.
type Prompt struct {
	System  string
	Query   string
	Context string
}

// String renders the prompt as a single natural-language message.
func (p Prompt) String() string {
	var b strings.Builder
	if p.System != "" {
		b.WriteString(p.System)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "The user asked for: %q\n", p.Query)
	b.WriteString("Here are the relevant RAG search results:\n")
	b.WriteString(p.Context)
	return b.String()
}

// Embedder converts free text into a fixed-length numeric vector.
type Embedder interface {
	Name() string
	// Dimension is the vector length, or 0 until the first successful call.
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Summarizer produces a short natural-language answer for a prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt Prompt) (string, error)
}

// Parser extracts plain text from a file.
type Parser interface {
	Parse(ctx context.Context, path string) (string, error)
}

// Logger is the diagnostic sink used across the engine.
// *github.com/charmbracelet/log.Logger satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
}
