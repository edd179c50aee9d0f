package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

type fakePort struct {
	resp    *domain.QueryResponse
	err     error
	indexed []string
	queries []string
}

func (f *fakePort) IndexFolder(ctx context.Context, folder string) domain.IndexingOutcome {
	f.indexed = append(f.indexed, folder)
	return domain.IndexingOutcome{ChunksAdded: 4, Errors: []string{"no content extracted: empty.txt"}}
}

func (f *fakePort) Search(ctx context.Context, q string) (*domain.QueryResponse, error) {
	f.queries = append(f.queries, q)
	return f.resp, f.err
}

func (f *fakePort) Stats(ctx context.Context) (domain.Stats, error) {
	return domain.Stats{TotalChunks: 7, TotalFolders: 1, Folders: []string{"/docs"}, Files: []domain.FileRef{{FileName: "a.txt", FolderPath: "/docs"}, {FileName: "b.txt", FolderPath: "/docs"}}}, nil
}

// run delivers msg and then every message its commands produce, skipping
// timers and blink ticks.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for _, out := range drain(cmd) {
		switch out.(type) {
		case searchDoneMsg, indexDoneMsg, statsMsg:
			next, _ = m.Update(out)
			m = next.(Model)
		}
	}
	return m
}

func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func ready(svc RAGPort) Model {
	m := New(context.Background(), svc)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func enter(t *testing.T, m Model, line string) Model {
	m.input.SetValue(line)
	return run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestSearchShowsResultsAndSummary(t *testing.T) {
	port := &fakePort{resp: &domain.QueryResponse{
		Summary: "Cats appear in two files.",
		Results: []domain.SearchResult{
			{Text: "Dogs bark. Cats purr softly.", Score: 0.9, Metadata: domain.Metadata{FileName: "a.txt", SourcePath: "/docs/a.txt"},
				Preview: &domain.Preview{Extension: ".txt", Data: []byte("Dogs bark.")}},
			{Text: "More cats.", Score: 0.5, Metadata: domain.Metadata{FileName: "b.txt", SourcePath: "/docs/b.txt"}},
		},
	}}
	m := enter(t, ready(port), "cats")

	assert.Equal(t, []string{"cats"}, port.queries)
	assert.False(t, m.busy)
	assert.Len(t, m.results, 2)
	assert.Equal(t, "Cats appear in two files.", m.summary)
	assert.Equal(t, `2 results for "cats"`, m.status)
	assert.Empty(t, m.input.Value())

	view := m.renderCurrentResult()
	assert.Contains(t, view, "Result 1/2  a.txt  90.0% match")
	assert.Contains(t, view, "Preview: 10 bytes of .txt")

	m = run(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	m = run(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.cursor)
	m = run(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)
}

func TestSearchError(t *testing.T) {
	port := &fakePort{err: errors.New("embedding failed: query: timeout")}
	m := enter(t, ready(port), "cats")
	assert.Equal(t, "Error: embedding failed: query: timeout", m.status)
	assert.Nil(t, m.results)
}

func TestIndexCommand(t *testing.T) {
	port := &fakePort{}
	m := enter(t, ready(port), "/index /docs")
	assert.Equal(t, []string{"/docs"}, port.indexed)
	assert.Equal(t, "Indexed /docs: 4 chunks added, 1 errors", m.status)
	assert.Contains(t, m.summary, "no content extracted")

	m = enter(t, m, "/index")
	assert.Equal(t, "Usage: /index <folder>", m.status)
	assert.Len(t, port.indexed, 1)
}

func TestStatsAndUnknownCommand(t *testing.T) {
	port := &fakePort{}
	m := enter(t, ready(port), "/stats")
	assert.Equal(t, "7 chunks from 2 files in 1 folders", m.status)

	m = enter(t, m, "/nope now")
	assert.Equal(t, "Unknown command /nope", m.status)
	assert.Empty(t, port.queries)
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Dogs bark. Cats purr softly.", "cats")
	require.True(t, strings.HasPrefix(out, "Dogs bark. "))
	assert.Contains(t, out, "Cats purr softly.")
	assert.Equal(t, "plain", highlightBestSentence("plain", ""))
}

func TestViewBeforeReady(t *testing.T) {
	m := New(context.Background(), &fakePort{})
	assert.Equal(t, "Loading...", m.View())
}
