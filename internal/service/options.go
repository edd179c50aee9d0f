package service

import (
	"time"

	"github.com/charmbracelet/log"

	"docrag/internal/chunker"
	"docrag/internal/domain"
	"docrag/internal/parser"
	"docrag/internal/vectorstore"
)

// Options wires the collaborators of the pipelines. Store and Embedder are
// required; everything else has a default.
type Options struct {
	Store    *vectorstore.Store
	Embedder domain.Embedder
	// Summarizer may be nil, in which case queries return no summary.
	Summarizer domain.Summarizer
	Parser     domain.Parser
	Chunker    *chunker.WordChunker
	Logger     domain.Logger

	Concurrency  int
	TopK         int
	PreviewBytes int64
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Parser == nil {
		o.Parser = parser.NewRegistry()
	}
	if o.Chunker == nil {
		o.Chunker, _ = chunker.NewWordChunker(chunker.DefaultSize, chunker.DefaultOverlap)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.TopK <= 0 {
		o.TopK = vectorstore.DefaultTopK
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
