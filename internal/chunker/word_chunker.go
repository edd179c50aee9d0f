package chunker

import (
	"errors"
	"strings"
)

const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// ErrInvalidWindow is returned when overlap is not within (0, size).
var ErrInvalidWindow = errors.New("chunker: overlap must be greater than 0 and less than size")

// WordChunker splits text into overlapping windows of whitespace-separated words.
type WordChunker struct {
	size    int
	overlap int
}

// NewWordChunker validates the window and returns a chunker for it.
func NewWordChunker(size, overlap int) (*WordChunker, error) {
	if overlap <= 0 || overlap >= size {
		return nil, ErrInvalidWindow
	}
	return &WordChunker{size: size, overlap: overlap}, nil
}

// Size is the number of words per window.
func (c *WordChunker) Size() int { return c.size }

// Overlap is the number of words shared by consecutive windows.
func (c *WordChunker) Overlap() int { return c.overlap }

// Split returns the non-empty windows of text in order.
func (c *WordChunker) Split(text string) []string {
	return split(strings.Fields(text), c.size, c.overlap)
}

// Split is the one-shot form of WordChunker.Split.
func Split(text string, size, overlap int) ([]string, error) {
	c, err := NewWordChunker(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}

func split(words []string, size, overlap int) []string {
	if len(words) == 0 {
		return nil
	}
	step := size - overlap
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		if text := strings.TrimSpace(strings.Join(words[i:end], " ")); text != "" {
			chunks = append(chunks, text)
		}
		// the window that reaches the last word ends the sequence
		if end == len(words) {
			break
		}
	}
	return chunks
}
