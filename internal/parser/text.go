package parser

import (
	"context"
	"os"
	"strings"
)

// Text reads a file as UTF-8 text.
type Text struct{}

func (Text) Parse(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
