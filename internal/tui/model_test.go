package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"devcoach/internal/domain"
)

type stubChat struct {
	answer *domain.Answer
	err    error
	asked  []string
}

func (s *stubChat) Answer(_ context.Context, msg string) (*domain.Answer, error) {
	s.asked = append(s.asked, msg)
	return s.answer, s.err
}

type stubIndex struct {
	err error
	n   int
}

func (s stubIndex) Wait(context.Context) error { return s.err }
func (s stubIndex) Len() int                   { return s.n }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func groundedAnswer() *domain.Answer {
	return &domain.Answer{
		Text:     "Keep a calm bedtime routine.",
		Grounded: true,
		Sources: []domain.SearchResult{
			{Chunk: domain.Chunk{Source: "sleep.md", Text: "Toddlers need sleep. A bedtime routine helps."}, Score: 0.9},
			{Chunk: domain.Chunk{Source: "naps.md", Text: "Naps shorten with age."}, Score: 0.4},
		},
	}
}

func TestModel_InputBlockedUntilReady(t *testing.T) {
	chat := &stubChat{answer: groundedAnswer()}
	m := New(chat, stubIndex{n: 12})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = typeText(t, m, "bedtime?")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Contains(t, m.status, "Indexing")

	m, _ = update(t, m, m.waitReady()())
	require.True(t, m.indexed)
	require.Contains(t, m.status, "12 passages")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.True(t, m.pending)
	require.Empty(t, m.input.Value())

	m, _ = update(t, m, cmd())
	require.Equal(t, []string{"bedtime?"}, chat.asked)
	require.False(t, m.pending)
	require.Contains(t, m.renderPage(), "Keep a calm bedtime routine.")
	require.Contains(t, m.status, "2 passages")
}

func TestModel_PagesThroughSources(t *testing.T) {
	m := New(&stubChat{}, stubIndex{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, answerMsg{question: "bedtime", answer: groundedAnswer()})
	require.Equal(t, 3, m.pages())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, m.page)
	require.Contains(t, m.renderPage(), "sleep.md")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 0, m.page)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, 2, m.page)
	require.Contains(t, m.renderPage(), "naps.md")
}

func TestModel_ErrorsShownInStatus(t *testing.T) {
	m := New(&stubChat{}, stubIndex{})
	m, _ = update(t, m, readyMsg{err: errors.New("no documents")})
	require.False(t, m.indexed)
	require.Contains(t, m.status, "no documents")

	m, _ = update(t, m, answerMsg{question: "q", err: domain.ErrCompletionUnavailable})
	require.Nil(t, m.answer)
	require.Contains(t, m.status, "Error")
	require.Equal(t, "No answer yet.", m.renderPage())
}

func TestModel_UngroundedStatus(t *testing.T) {
	m := New(&stubChat{}, stubIndex{})
	m, _ = update(t, m, answerMsg{question: "q", answer: &domain.Answer{Text: "Try a routine."}})
	require.Equal(t, 1, m.pages())
	require.Contains(t, m.status, "without reference")
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Toddlers need sleep. A bedtime routine helps. Naps shorten"
	out := highlightBestSentence(text, "bedtime routine")
	require.True(t, strings.HasPrefix(out, "Toddlers need sleep. "))
	require.Contains(t, out, "bedtime routine helps.")
	require.True(t, strings.HasSuffix(out, " Naps shorten"))

	require.Equal(t, "Toddlers need sleep. Naps shorten", highlightBestSentence("Toddlers need sleep. Naps shorten", "quantum"))
	require.Equal(t, "  ", highlightBestSentence("  ", "q"))
}
