package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"devcoach/internal/domain"
	"devcoach/internal/llm"
)

const DefaultTopK = 4

// Retriever is the retrieval side of a chat turn. *retriever.Retriever
// implements it.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}

type Options struct {
	TopK int
	// RequireGrounding makes retrieval failures fail the whole turn instead
	// of falling back to an ungrounded answer.
	RequireGrounding bool
}

type ChatService struct {
	retriever Retriever
	completer llm.Completer
	opts      Options
}

func NewChatService(retriever Retriever, completer llm.Completer, opts Options) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &ChatService{retriever: retriever, completer: completer, opts: opts}
}

func (s *ChatService) TopK() int { return s.opts.TopK }

// Retrieve exposes the raw ranked passages for a query.
func (s *ChatService) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k == 0 {
		k = s.opts.TopK
	}
	return s.retriever.Retrieve(ctx, query, k)
}

// Answer grounds message on the top passages and asks the completer. When
// the index is not ready or the embedding service fails, it answers without
// grounding unless RequireGrounding is set.
func (s *ChatService) Answer(ctx context.Context, message string) (*domain.Answer, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message must not be empty", domain.ErrInvalidArgument)
	}
	logger := logutil.GetLogger(ctx)

	sources, err := s.retriever.Retrieve(ctx, message, s.opts.TopK)
	if err != nil {
		// a caller that went away gets no answer at all
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", err, ctxErr)
		}
		if !degradable(err) || s.opts.RequireGrounding {
			return nil, err
		}
		logger.Warn("answering without grounding", zap.Error(err))
		sources = nil
	}

	text, err := s.completer.Complete(ctx, llm.Request{Question: message, Passages: domain.Texts(sources)})
	if err != nil {
		return nil, llm.Unavailable(err)
	}
	if sources == nil {
		sources = []domain.SearchResult{}
	}
	logger.Debug("chat answered",
		zap.String("completer", s.completer.Name()),
		zap.Int("sources", len(sources)),
	)
	return &domain.Answer{Text: text, Grounded: len(sources) > 0, Sources: sources}, nil
}

func degradable(err error) bool {
	return errors.Is(err, domain.ErrNotReady) || errors.Is(err, domain.ErrRetrievalUnavailable)
}
