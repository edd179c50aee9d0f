package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docrag/internal/domain"
	"docrag/internal/service"
)

// RAGPort is the TUI-facing subset of the RAG service.
type RAGPort interface {
	IndexFolder(ctx context.Context, folder string) domain.IndexingOutcome
	Search(ctx context.Context, query string) (*domain.QueryResponse, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

type searchDoneMsg struct {
	query string
	resp  *domain.QueryResponse
	err   error
}

type indexDoneMsg struct {
	folder  string
	outcome domain.IndexingOutcome
}

type statsMsg struct {
	stats domain.Stats
	err   error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx       context.Context
	service   RAGPort
	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	results   []domain.SearchResult
	summary   string
	status    string
	cursor    int
	busy      bool
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(ctx context.Context, svc RAGPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Search, or /index <folder>, /stats"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		service:  svc,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		status:   "Type to search. /index <folder> adds documents.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case searchDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.results = nil
			m.summary = ""
		} else {
			m.status = fmt.Sprintf("%d results for %q", len(msg.resp.Results), msg.query)
			m.results = msg.resp.Results
			m.summary = msg.resp.Summary
			m.cursor = 0
			m.lastQuery = msg.query
		}
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case indexDoneMsg:
		m.busy = false
		m.status = fmt.Sprintf("Indexed %s: %d chunks added, %d errors", msg.folder, msg.outcome.ChunksAdded, len(msg.outcome.Errors))
		if len(msg.outcome.Errors) > 0 {
			m.summary = strings.Join(msg.outcome.Errors, "\n")
		}
		return m, nil
	case statsMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("%d chunks from %d files in %d folders", msg.stats.TotalChunks, len(msg.stats.Files), msg.stats.TotalFolders)
		m.summary = strings.Join(msg.stats.Folders, "\n")
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.busy {
				return m, nil
			}
			cmd := m.dispatch(line)
			if cmd == nil {
				return m, nil
			}
			m.busy = true
			m.input.SetValue("")
			return m, tea.Batch(m.spinner.Tick, cmd)
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// dispatch turns an input line into the command that runs it.
func (m *Model) dispatch(line string) tea.Cmd {
	ctx, svc := m.ctx, m.service
	switch {
	case line == "/stats":
		m.status = "Collecting stats..."
		return func() tea.Msg {
			st, err := svc.Stats(ctx)
			return statsMsg{stats: st, err: err}
		}
	case strings.HasPrefix(line, "/index"):
		folder := strings.TrimSpace(strings.TrimPrefix(line, "/index"))
		if folder == "" {
			m.status = "Usage: /index <folder>"
			return nil
		}
		m.status = "Indexing " + folder + "..."
		return func() tea.Msg {
			return indexDoneMsg{folder: folder, outcome: svc.IndexFolder(ctx, folder)}
		}
	case strings.HasPrefix(line, "/"):
		m.status = "Unknown command " + strings.Fields(line)[0]
		return nil
	}
	m.status = fmt.Sprintf("Searching for %q...", line)
	return func() tea.Msg {
		resp, err := svc.Search(ctx, line)
		return searchDoneMsg{query: line, resp: resp, err: err}
	}
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docrag")
	summary := summaryStyle.Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  %s  %s match", m.cursor+1, len(m.results), r.Metadata.FileName, service.FormatScore(r.Score))
	source := sourceStyle.Render(fmt.Sprintf("%s  chunk %d", r.Metadata.SourcePath, r.Metadata.ChunkIndex))
	body := highlightBestSentence(r.Text, m.lastQuery)
	return title + "\n" + source + "\n\n" + body + renderPreview(r.Preview)
}

func renderPreview(p *domain.Preview) string {
	if p == nil {
		return ""
	}
	label := fmt.Sprintf("%d bytes of %s", len(p.Data), p.Extension)
	if p.Truncated {
		label += " (truncated)"
	}
	if !utf8.Valid(p.Data) {
		return "\n\n" + sourceStyle.Render("Preview: "+label+", binary")
	}
	return "\n\n" + sourceStyle.Render("Preview: "+label) + "\n" + string(p.Data)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
