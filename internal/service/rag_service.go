package service

import (
	"context"

	"docrag/internal/domain"
	"docrag/internal/vectorstore"
)

// RAGService is the operation surface shared by the CLI and the TUI.
type RAGService struct {
	store   *vectorstore.Store
	indexer *Indexer
	querier *Querier
}

func NewRAGService(opts Options) *RAGService {
	return &RAGService{
		store:   opts.Store,
		indexer: NewIndexer(opts),
		querier: NewQuerier(opts),
	}
}

func (s *RAGService) IndexFolder(ctx context.Context, folder string) domain.IndexingOutcome {
	return s.indexer.IndexFolder(ctx, folder)
}

func (s *RAGService) ReindexFile(ctx context.Context, path string) domain.IndexingOutcome {
	return s.indexer.ReindexFile(ctx, path)
}

func (s *RAGService) Search(ctx context.Context, query string) (*domain.QueryResponse, error) {
	return s.querier.Query(ctx, query)
}

func (s *RAGService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.store.Stats(ctx)
}

// RemoveFile deletes the chunks of fileName indexed from folderPath.
func (s *RAGService) RemoveFile(ctx context.Context, fileName, folderPath string) (int, error) {
	return s.store.RemoveFile(ctx, fileName, folderPath)
}

func (s *RAGService) Close() error {
	return s.store.Close()
}
