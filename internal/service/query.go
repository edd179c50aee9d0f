package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docrag/internal/domain"
	"docrag/internal/vectorstore"
)

// SystemPrompt instructs the summarizer how to talk about search results.
const SystemPrompt = "You are a retrieval-augmented generation (RAG) assistant. Use the provided context to answer the user's query accurately and concisely, or explain the context of the search terms, such as which files they are found in, how many files, the degree of confidence etc. Do NOT engage in chat, request information, or assume the user can have any two-way dialog with you at all. Do not just list all the files, make a short and meaningful sentence or two about the search and its context. Do not use any formatting."

// NoMatchSummary is returned instead of a summary when nothing was retrieved.
const NoMatchSummary = "No indexed content matched the query."

// Querier answers free-text queries from the store.
type Querier struct {
	store        *vectorstore.Store
	embedder     domain.Embedder
	summarizer   domain.Summarizer
	log          domain.Logger
	topK         int
	previewBytes int64
}

func NewQuerier(opts Options) *Querier {
	opts = opts.withDefaults()
	return &Querier{
		store:        opts.Store,
		embedder:     opts.Embedder,
		summarizer:   opts.Summarizer,
		log:          opts.Logger,
		topK:         opts.TopK,
		previewBytes: opts.PreviewBytes,
	}
}

// Query embeds text, retrieves the closest chunks with previews of their
// source files and summarizes them.
func (q *Querier) Query(ctx context.Context, text string) (*domain.QueryResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyQuery
	}
	vec, err := q.embedder.Embed(ctx, text)
	if err != nil {
		return nil, domain.Wrap(domain.ErrEmbedding, "query", err)
	}
	results, err := q.store.Search(ctx, vec, q.topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	q.attachPreviews(results)
	q.log.Debug("query answered", "query", text, "results", len(results))

	resp := &domain.QueryResponse{Results: results}
	if len(results) == 0 {
		resp.Summary = NoMatchSummary
		return resp, nil
	}
	if q.summarizer == nil {
		return resp, nil
	}
	summary, err := q.summarizer.Summarize(ctx, BuildPrompt(text, results))
	if err != nil {
		return nil, domain.Wrap(domain.ErrSummarization, "query", err)
	}
	resp.Summary = summary
	return resp, nil
}

// BuildPrompt renders results as "fileName (NN.N% match): text" lines.
func BuildPrompt(query string, results []domain.SearchResult) domain.Prompt {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("%s (%s match): %s", r.Metadata.FileName, FormatScore(r.Score), r.Text)
	}
	return domain.Prompt{
		System:  SystemPrompt,
		Query:   query,
		Context: strings.Join(lines, "\n"),
	}
}

// FormatScore renders a cosine score as a percentage with one decimal.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

func (q *Querier) attachPreviews(results []domain.SearchResult) {
	if q.previewBytes <= 0 {
		return
	}
	cache := make(map[string]*domain.Preview)
	for i := range results {
		m := results[i].Metadata
		path := filepath.Join(m.FolderPath, m.FileName)
		p, ok := cache[path]
		if !ok {
			p = q.readPreview(path, m.Extension)
			cache[path] = p
		}
		results[i].Preview = p
	}
}

func (q *Querier) readPreview(path, ext string) *domain.Preview {
	f, err := os.Open(path)
	if err != nil {
		q.log.Debug("no preview", "path", path, "err", err)
		return nil
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, q.previewBytes+1))
	if err != nil {
		q.log.Debug("no preview", "path", path, "err", err)
		return nil
	}
	p := &domain.Preview{Extension: ext, Data: data}
	if int64(len(data)) > q.previewBytes {
		p.Data = data[:q.previewBytes]
		p.Truncated = true
	}
	return p
}
