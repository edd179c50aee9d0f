package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docrag/internal/chunker"
	"docrag/internal/domain"
	"docrag/internal/vectorstore"
)

// DefaultConcurrency bounds in-flight embedding calls per file.
const DefaultConcurrency = 4

var errCancelled = errors.New("indexing cancelled")

// Indexer turns the files of a folder into stored, embedded chunks.
type Indexer struct {
	store       *vectorstore.Store
	parser      domain.Parser
	chunker     *chunker.WordChunker
	embedder    domain.Embedder
	log         domain.Logger
	concurrency int
	now         func() time.Time
}

func NewIndexer(opts Options) *Indexer {
	opts = opts.withDefaults()
	return &Indexer{
		store:       opts.Store,
		parser:      opts.Parser,
		chunker:     opts.Chunker,
		embedder:    opts.Embedder,
		log:         opts.Logger,
		concurrency: opts.Concurrency,
		now:         opts.Now,
	}
}

// IndexFolder indexes the regular files directly inside folder. It never
// fails as a whole: every problem becomes an entry in the outcome and the
// chunks that did succeed are stored with a single write.
func (ix *Indexer) IndexFolder(ctx context.Context, folder string) domain.IndexingOutcome {
	var out domain.IndexingOutcome
	folder = absPath(folder)

	entries, err := os.ReadDir(folder)
	if err != nil {
		out.Failed(domain.Wrap(domain.ErrScan, folder, err))
		ix.log.Error("cannot read folder", "folder", folder, "err", err)
		return out
	}
	if err := ix.store.Load(ctx); err != nil {
		out.Failed(err)
		return out
	}
	ix.log.Info("indexing folder", "folder", folder, "entries", len(entries), "embedder", ix.embedder.Name())

	dim := ix.store.Dimension()
	var pending []domain.Chunk
	for _, e := range entries {
		if ctx.Err() != nil {
			out.Failed(errCancelled)
			break
		}
		path := filepath.Join(folder, e.Name())
		info, err := os.Stat(path)
		if err != nil {
			out.Failed(domain.Wrap(domain.ErrScan, path, err))
			continue
		}
		if info.IsDir() {
			ix.log.Debug("skipping directory", "path", path)
			continue
		}
		chunks, errs, cancelled := ix.indexFile(ctx, folder, e.Name())
		chunks, dim = ix.sameDimension(chunks, dim, &out)
		for _, err := range errs {
			out.Failed(err)
		}
		pending = append(pending, chunks...)
		ix.log.Info("processed file", "file", e.Name(), "chunks", len(chunks), "errors", len(errs))
		if cancelled {
			out.Failed(errCancelled)
			break
		}
	}

	if len(pending) == 0 {
		return out
	}
	// Chunks already embedded are kept even when the caller gave up.
	if err := ix.store.AddDocuments(context.WithoutCancel(ctx), pending); err != nil {
		out.Failed(persistenceError(folder, err))
		ix.log.Error("storing chunks failed", "folder", folder, "err", err)
		return out
	}
	out.ChunksAdded = len(pending)
	ix.log.Info("indexed folder", "folder", folder, "chunks", out.ChunksAdded, "errors", len(out.Errors))
	return out
}

// ReindexFile replaces the stored chunks of one file with freshly embedded
// ones. The old chunks are kept when the file yields nothing.
func (ix *Indexer) ReindexFile(ctx context.Context, path string) domain.IndexingOutcome {
	var out domain.IndexingOutcome
	path = absPath(path)

	info, err := os.Stat(path)
	if err != nil {
		out.Failed(domain.Wrap(domain.ErrScan, path, err))
		return out
	}
	if info.IsDir() {
		out.Failed(domain.Wrap(domain.ErrScan, path, errors.New("is a directory")))
		return out
	}
	folder, name := filepath.Dir(path), filepath.Base(path)
	chunks, errs, cancelled := ix.indexFile(ctx, folder, name)
	chunks, _ = ix.sameDimension(chunks, 0, &out)
	for _, err := range errs {
		out.Failed(err)
	}
	if cancelled {
		out.Failed(errCancelled)
	}
	if len(chunks) == 0 {
		return out
	}
	removed, err := ix.store.ReplaceFile(context.WithoutCancel(ctx), name, folder, chunks)
	if err != nil {
		out.Failed(persistenceError(path, err))
		return out
	}
	out.ChunksAdded = len(chunks)
	ix.log.Info("reindexed file", "file", path, "removed", removed, "added", len(chunks))
	return out
}

// indexFile parses, chunks and embeds one file. Chunks come back in window
// order; windows whose embedding failed are missing.
func (ix *Indexer) indexFile(ctx context.Context, folder, name string) ([]domain.Chunk, []error, bool) {
	path := filepath.Join(folder, name)
	text, err := ix.parser.Parse(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, true
		}
		return nil, []error{domain.Wrap(domain.ErrParse, path, err)}, false
	}
	windows := ix.chunker.Split(text)
	if len(windows) == 0 {
		return nil, []error{&domain.Error{Kind: domain.ErrEmptyContent, Op: path}}, false
	}

	vectors := make([][]float64, len(windows))
	errs := make([]error, len(windows))
	skipped := make([]bool, len(windows))
	var g errgroup.Group
	g.SetLimit(ix.concurrency)
	for i, w := range windows {
		g.Go(func() error {
			if ctx.Err() != nil {
				skipped[i] = true
				return nil
			}
			vec, err := ix.embedder.Embed(ctx, w)
			switch {
			case err != nil && ctx.Err() != nil:
				skipped[i] = true
			case err != nil:
				errs[i] = domain.Wrap(domain.ErrEmbedding, fmt.Sprintf("%s chunk %d", path, i), err)
			default:
				vectors[i] = vec
			}
			return nil
		})
	}
	_ = g.Wait()

	meta := domain.Metadata{
		SourcePath: path,
		FileName:   name,
		FolderPath: folder,
		Extension:  strings.ToLower(filepath.Ext(name)),
		Timestamp:  ix.now().UTC(),
	}
	var (
		chunks    []domain.Chunk
		failures  []error
		cancelled bool
	)
	for i, w := range windows {
		switch {
		case skipped[i]:
			cancelled = true
		case errs[i] != nil:
			failures = append(failures, errs[i])
			ix.log.Warn("embedding failed", "file", name, "chunk", i, "err", errs[i])
		default:
			m := meta
			m.ChunkIndex = i
			chunks = append(chunks, domain.Chunk{
				ID:        uuid.NewString(),
				Text:      w,
				Embedding: vectors[i],
				Metadata:  m,
			})
		}
	}
	return chunks, failures, cancelled
}

// sameDimension drops chunks whose vector length differs from dim (0 means
// the first chunk decides) and records each as an embedding failure.
func (ix *Indexer) sameDimension(chunks []domain.Chunk, dim int, out *domain.IndexingOutcome) ([]domain.Chunk, int) {
	kept := chunks[:0]
	for _, c := range chunks {
		n := len(c.Embedding)
		if dim == 0 && n > 0 {
			dim = n
		}
		if n == 0 || n != dim {
			op := fmt.Sprintf("%s chunk %d", c.Metadata.SourcePath, c.Metadata.ChunkIndex)
			out.Failed(domain.Wrap(domain.ErrEmbedding, op,
				fmt.Errorf("%w: got %d values, want %d", domain.ErrDimensionMismatch, n, dim)))
			continue
		}
		kept = append(kept, c)
	}
	return kept, dim
}

func persistenceError(op string, err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return domain.Wrap(domain.ErrPersistence, op, err)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
