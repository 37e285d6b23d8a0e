package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"devcoach/internal/domain"
)

// ChatPort is the console-facing subset of the chat service.
type ChatPort interface {
	Answer(ctx context.Context, message string) (*domain.Answer, error)
}

// Readiness reports when the index can serve queries.
type Readiness interface {
	Wait(ctx context.Context) error
	Len() int
}

const answerTimeout = 2 * time.Minute

type (
	readyMsg  struct{ err error }
	answerMsg struct {
		question string
		answer   *domain.Answer
		err      error
	}
)

// Model is the Bubble Tea model for the console. Page 0 shows the answer and
// the following pages show one source passage each.
type Model struct {
	chat      ChatPort
	index     Readiness
	input     textinput.Model
	viewport  viewport.Model
	answer    *domain.Answer
	status    string
	page      int
	sized     bool
	indexed   bool
	pending   bool
	lastQuery string
}

// New creates a console model. Input is accepted once index reports ready.
func New(chat ChatPort, index Readiness) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{chat: chat, index: index, input: ti, viewport: viewport.New(0, 0), status: "Indexing documents..."}
}

func (m Model) Init() tea.Cmd { return tea.Batch(textinput.Blink, m.waitReady()) }

func (m Model) waitReady() tea.Cmd {
	return func() tea.Msg {
		return readyMsg{err: m.index.Wait(context.Background())}
	}
}

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
		defer cancel()
		a, err := m.chat.Answer(ctx, q)
		return answerMsg{question: q, answer: a, err: err}
	}
}

// Update handles key, window and async result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.sized = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderPage())
		return m, nil
	case readyMsg:
		if msg.err != nil {
			m.status = "Index unavailable: " + msg.err.Error()
			return m, nil
		}
		m.indexed = true
		m.status = fmt.Sprintf("Ready. %d passages indexed.", m.index.Len())
		return m, nil
	case answerMsg:
		m.pending = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.answer = nil
		} else {
			m.answer = msg.answer
			m.page = 0
			m.lastQuery = msg.question
			m.status = m.answerStatus()
		}
		m.viewport.SetContent(m.renderPage())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || !m.indexed || m.pending {
				return m, nil
			}
			m.pending = true
			m.input.SetValue("")
			m.status = fmt.Sprintf("Thinking about %q...", q)
			return m, m.ask(q)
		case "down", "tab":
			if n := m.pages(); n > 1 {
				m.page = (m.page + 1) % n
				m.viewport.SetContent(m.renderPage())
				return m, nil
			}
		case "up", "shift+tab":
			if n := m.pages(); n > 1 {
				m.page = (m.page - 1 + n) % n
				m.viewport.SetContent(m.renderPage())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.sized {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Toddler Development Coach")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) pages() int {
	if m.answer == nil {
		return 0
	}
	return 1 + len(m.answer.Sources)
}

func (m Model) answerStatus() string {
	if !m.answer.Grounded {
		return "Answered without reference passages."
	}
	return fmt.Sprintf("Answered from %d passages. Up/Down to page through sources.", len(m.answer.Sources))
}

func (m Model) renderPage() string {
	if m.answer == nil {
		return "No answer yet."
	}
	if m.page == 0 {
		return fmt.Sprintf("Answer  (1/%d)\n\n%s", m.pages(), m.answer.Text)
	}
	r := m.answer.Sources[m.page-1]
	title := fmt.Sprintf("Source %d/%d  %s  score=%.3f", m.page, len(m.answer.Sources), r.Chunk.Source, r.Score)
	return title + "\n\n" + highlightBestSentence(r.Chunk.Text, m.lastQuery)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
	sentenceRe     = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
)

// highlightBestSentence marks the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	best, bestScore := -1, 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == best {
			sent = highlightStyle.Render(sent)
		}
		sentences[i] = sent
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
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
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
