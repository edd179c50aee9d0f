package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docrag/internal/domain"
)

// DefaultTopK is used when Search is called with a non-positive topK.
const DefaultTopK = 10

// Snapshotter persists the full chunk collection. Every Write replaces the
// previous snapshot entirely.
type Snapshotter interface {
	// Read returns the persisted chunks in insertion order, or nil when nothing
	// has been persisted yet.
	Read(ctx context.Context) ([]domain.Chunk, error)
	Write(ctx context.Context, chunks []domain.Chunk) error
	Close() error
}

// Store is the in-memory chunk collection backed by a durable snapshot.
// Mutations are serialized and only take effect once the snapshot is written,
// so the snapshot always matches memory after a successful call.
type Store struct {
	backend Snapshotter
	log     domain.Logger

	loadOnce sync.Once
	loadErr  error

	mu        sync.RWMutex
	chunks    []domain.Chunk
	dimension int
}

func New(backend Snapshotter, logger domain.Logger) *Store {
	return &Store{backend: backend, log: logger}
}

// Load reads the snapshot on first use. Later calls return the first result.
func (s *Store) Load(ctx context.Context) error {
	s.loadOnce.Do(func() {
		chunks, err := s.backend.Read(ctx)
		if err != nil {
			s.loadErr = domain.Wrap(domain.ErrPersistence, "load snapshot", err)
			return
		}
		dim, err := validate(chunks, 0)
		if err != nil {
			s.loadErr = domain.Wrap(domain.ErrPersistence, "load snapshot", err)
			return
		}
		s.mu.Lock()
		s.chunks = chunks
		s.dimension = dim
		s.mu.Unlock()
		if len(chunks) == 0 {
			s.log.Info("no existing vector store, starting fresh")
		} else {
			s.log.Info("loaded vector store", "chunks", len(chunks), "dimension", dim)
		}
	})
	return s.loadErr
}

// AddDocuments appends chunks and persists. Chunks are not de-duplicated.
func (s *Store) AddDocuments(ctx context.Context, chunks []domain.Chunk) error {
	if err := s.Load(ctx); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := validate(chunks, s.dimension)
	if err != nil {
		return err
	}
	next := make([]domain.Chunk, 0, len(s.chunks)+len(chunks))
	next = append(next, s.chunks...)
	for _, c := range chunks {
		next = append(next, c.Clone())
	}
	if err := s.commit(ctx, next, dim); err != nil {
		return err
	}
	s.log.Debug("added chunks", "added", len(chunks), "total", len(next))
	return nil
}

// RemoveFile deletes every chunk whose file name and folder path both match
// exactly and returns how many were removed.
func (s *Store) RemoveFile(ctx context.Context, fileName, folderPath string) (int, error) {
	if err := s.Load(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.without(fileName, folderPath)
	removed := len(s.chunks) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	dim := s.dimension
	if len(kept) == 0 {
		dim = 0
	}
	if err := s.commit(ctx, kept, dim); err != nil {
		return 0, err
	}
	s.log.Debug("removed file", "file", fileName, "folder", folderPath, "chunks", removed)
	return removed, nil
}

// ReplaceFile drops the file's existing chunks and appends the new ones in a
// single snapshot write.
func (s *Store) ReplaceFile(ctx context.Context, fileName, folderPath string, chunks []domain.Chunk) (int, error) {
	if err := s.Load(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.without(fileName, folderPath)
	removed := len(s.chunks) - len(kept)
	base := s.dimension
	if len(kept) == 0 {
		base = 0
	}
	dim, err := validate(chunks, base)
	if err != nil {
		return 0, err
	}
	for _, c := range chunks {
		kept = append(kept, c.Clone())
	}
	if err := s.commit(ctx, kept, dim); err != nil {
		return 0, err
	}
	return removed, nil
}

// Search scores every chunk against query and returns the topK best.
func (s *Store) Search(ctx context.Context, query []float64, topK int) ([]domain.SearchResult, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 {
		return []domain.SearchResult{}, nil
	}
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d values, store holds %d", domain.ErrDimensionMismatch, len(query), s.dimension)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	scores := make([]float64, len(s.chunks))
	for i := range s.chunks {
		scores[i] = Cosine(query, s.chunks[i].Embedding)
	}
	idxs := Rank(scores, topK)
	results := make([]domain.SearchResult, 0, len(idxs))
	for _, j := range idxs {
		results = append(results, domain.SearchResult{
			Text:     s.chunks[j].Text,
			Score:    scores[j],
			Metadata: s.chunks[j].Metadata,
		})
	}
	return results, nil
}

// Stats reports distinct folders and files in first-seen order.
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	if err := s.Load(ctx); err != nil {
		return domain.Stats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.Stats{
		TotalChunks: len(s.chunks),
		Folders:     []string{},
		Files:       []domain.FileRef{},
	}
	folders := make(map[string]struct{})
	files := make(map[[2]string]struct{})
	for _, c := range s.chunks {
		m := c.Metadata
		if _, ok := folders[m.FolderPath]; !ok {
			folders[m.FolderPath] = struct{}{}
			stats.Folders = append(stats.Folders, m.FolderPath)
		}
		key := [2]string{m.FolderPath, m.SourcePath}
		if _, ok := files[key]; !ok {
			files[key] = struct{}{}
			stats.Files = append(stats.Files, domain.FileRef{FileName: m.FileName, FolderPath: m.FolderPath})
		}
	}
	stats.TotalFolders = len(stats.Folders)
	return stats, nil
}

// Chunks returns a copy of the collection in insertion order.
func (s *Store) Chunks(ctx context.Context) ([]domain.Chunk, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = c.Clone()
	}
	return out, nil
}

// Dimension is the embedding length shared by all stored chunks, 0 when empty.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// commit writes next and swaps it in. Caller holds the write lock.
func (s *Store) commit(ctx context.Context, next []domain.Chunk, dim int) error {
	if err := s.backend.Write(ctx, next); err != nil {
		return domain.Wrap(domain.ErrPersistence, "write snapshot", err)
	}
	s.chunks = next
	s.dimension = dim
	return nil
}

// without returns a new slice of the chunks not belonging to the file.
func (s *Store) without(fileName, folderPath string) []domain.Chunk {
	kept := make([]domain.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		if c.Metadata.FileName == fileName && c.Metadata.FolderPath == folderPath {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// validate checks chunks against dim (0 = not yet fixed) and returns the
// dimension they share.
func validate(chunks []domain.Chunk, dim int) (int, error) {
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			return 0, fmt.Errorf("%w: chunk %s", domain.ErrEmptyChunk, c.ID)
		}
		n := len(c.Embedding)
		if n == 0 {
			return 0, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrDimensionMismatch, c.ID)
		}
		if dim == 0 {
			dim = n
		} else if n != dim {
			return 0, fmt.Errorf("%w: chunk %s has %d values, store holds %d", domain.ErrDimensionMismatch, c.ID, n, dim)
		}
	}
	return dim, nil
}
