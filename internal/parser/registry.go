// Package parser extracts plain text from the document formats the indexer
// understands. Files with an unknown extension are read as plain text.
package parser

import (
	"context"
	"path/filepath"
	"strings"

	"docrag/internal/domain"
)

// Registry dispatches to a parser by lower-cased file extension.
type Registry struct {
	parsers  map[string]domain.Parser
	fallback domain.Parser
}

// NewRegistry returns a registry with every built-in format registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: map[string]domain.Parser{}, fallback: Text{}}
	r.Register(Text{}, ".txt", ".md", ".csv", ".log")
	r.Register(PDF{}, ".pdf")
	r.Register(Docx{}, ".docx")
	r.Register(Xlsx{}, ".xlsx")
	r.Register(HTML{}, ".html", ".htm")
	return r
}

// Register binds p to the given extensions, replacing earlier bindings.
func (r *Registry) Register(p domain.Parser, exts ...string) {
	for _, ext := range exts {
		r.parsers[normalizeExt(ext)] = p
	}
}

// For returns the parser responsible for path.
func (r *Registry) For(path string) domain.Parser {
	if p, ok := r.parsers[normalizeExt(filepath.Ext(path))]; ok {
		return p
	}
	return r.fallback
}

// Parse implements domain.Parser.
func (r *Registry) Parse(ctx context.Context, path string) (string, error) {
	return r.For(path).Parse(ctx, path)
}

// Extensions lists the registered extensions.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		out = append(out, ext)
	}
	return out
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
