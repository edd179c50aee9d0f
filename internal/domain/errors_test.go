package domain

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := Wrap(ErrParse, "report.pdf", fs.ErrPermission)

	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.NotErrorIs(t, err, ErrEmbedding)
	assert.Equal(t, "parse failed: report.pdf: permission denied", err.Error())

	var de *Error
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "report.pdf", de.Op)
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(ErrScan, "dir", nil))
}

func TestErrorWithoutCause(t *testing.T) {
	err := &Error{Kind: ErrEmptyContent, Op: "empty.txt"}
	assert.Equal(t, "no content extracted: empty.txt", err.Error())
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestPromptString(t *testing.T) {
	p := Prompt{System: "Be brief.", Query: "cats", Context: "a.txt (90.0% match): cats purr"}
	assert.Equal(t,
		"Be brief.\nThe user asked for: \"cats\"\nHere are the relevant RAG search results:\na.txt (90.0% match): cats purr",
		p.String())
}

func TestChunkCloneDetachesEmbedding(t *testing.T) {
	c := Chunk{ID: "1", Text: "x", Embedding: []float64{1, 2}}
	cp := c.Clone()
	cp.Embedding[0] = 9
	assert.Equal(t, 1.0, c.Embedding[0])
}
