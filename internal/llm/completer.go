// Package llm holds the language-model completion side of a chat turn.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devcoach/internal/domain"
)

// Request is one chat turn. Passages is empty for an ungrounded answer.
type Request struct {
	Question string
	Passages []string
}

// Completer produces an answer for a chat turn.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

const SystemPrompt = "You are a friendly early-childhood development coach for parents. " +
	"Answer in plain language. When reference passages are provided, base your answer on them " +
	"and cite them by number like [1]. If they do not cover the question, say so."

// BuildPrompt renders the user message: numbered passages first, then the
// question.
func BuildPrompt(req Request) string {
	if len(req.Passages) == 0 {
		return req.Question
	}
	var sb strings.Builder
	sb.WriteString("Reference passages:\n")
	for i, p := range req.Passages {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, strings.TrimSpace(p))
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(req.Question)
	return sb.String()
}

// Unavailable tags err as a completion failure unless it already is one.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, domain.ErrCompletionUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrCompletionUnavailable, err)
}
