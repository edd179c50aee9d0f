package parser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTML extracts the visible text of an HTML page.
type HTML struct{}

func (HTML) Parse(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	var parts []string
	if title := strings.TrimSpace(doc.Find("title").Text()); title != "" {
		parts = append(parts, title)
	}
	if body := strings.Join(strings.Fields(doc.Find("body").Text()), " "); body != "" {
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n"), nil
}
