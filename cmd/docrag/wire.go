package main

import (
	"fmt"

	"github.com/charmbracelet/log"

	"docrag/internal/chunker"
	"docrag/internal/config"
	"docrag/internal/domain"
	"docrag/internal/embedding/hashing"
	embopenai "docrag/internal/embedding/openai"
	"docrag/internal/parser"
	"docrag/internal/provider"
	"docrag/internal/service"
	"docrag/internal/summarizer"
	sumopenai "docrag/internal/summarizer/openai"
	"docrag/internal/vectorstore"
	"docrag/internal/vectorstore/bolt"
	"docrag/internal/vectorstore/jsonfile"
	"docrag/internal/vectorstore/sqlite"
)

// buildService assembles the components selected by cfg.
func buildService(cfg *config.AppConfig, logger *log.Logger) (*service.RAGService, error) {
	ch, err := chunker.NewWordChunker(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}
	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	sum, err := newSummarizer(cfg.Summarizer)
	if err != nil {
		return nil, err
	}
	snap, err := openSnapshot(cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Debug("components ready", "store", cfg.Store.Type, "path", cfg.Store.Path, "embedder", emb.Name(), "summarizer", cfg.Summarizer.Type)

	return service.NewRAGService(service.Options{
		Store:        vectorstore.New(snap, logger.WithPrefix("store")),
		Embedder:     emb,
		Summarizer:   sum,
		Parser:       parser.NewRegistry(),
		Chunker:      ch,
		Logger:       logger.WithPrefix("pipeline"),
		Concurrency:  cfg.Indexing.Concurrency,
		TopK:         cfg.Query.TopK,
		PreviewBytes: cfg.Query.PreviewBytes,
	}), nil
}

func openSnapshot(cfg config.StoreConfig) (vectorstore.Snapshotter, error) {
	switch cfg.Type {
	case "json", "":
		return jsonfile.New(cfg.Path), nil
	case "sqlite":
		return sqlite.Open(cfg.Path)
	case "bolt":
		return bolt.Open(cfg.Path)
	}
	return nil, fmt.Errorf("unknown store: %s", cfg.Type)
}

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hashing":
		return hashing.NewEmbedder(cfg.Hashing.Dimension), nil
	case "openai", "":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		key, err := provider.ResolveAPIKey(cfg.OpenAI.APIKeyEnv, cfg.OpenAI.APIKeyFile)
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		return embopenai.NewClient(embopenai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKey:     key,
			Model:      cfg.OpenAI.Model,
			Timeout:    cfg.OpenAI.Timeout(),
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
	}
	return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
}

func newSummarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "none":
		return nil, nil
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(cfg.MaxSentences), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai summarizer config missing")
		}
		key, err := provider.ResolveAPIKey(cfg.OpenAI.APIKeyEnv, cfg.OpenAI.APIKeyFile)
		if err != nil {
			return nil, fmt.Errorf("openai summarizer: %w", err)
		}
		return sumopenai.New(sumopenai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKey:     key,
			Model:      cfg.OpenAI.Model,
			Timeout:    cfg.OpenAI.Timeout(),
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
	}
	return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
}
