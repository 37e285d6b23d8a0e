package llm

import (
	"context"
	"strings"
)

const noMatchAnswer = "I could not find anything about that in the coaching guides."

// SentenceRanker picks the sentences of text that best answer query.
// *summarizer.FrequencySummarizer implements it.
type SentenceRanker interface {
	SummarizeFor(query, text string, maxSentences int) (string, error)
}

// Extractive answers by quoting the best sentences of the retrieved
// passages. It needs no network and never invents text.
type Extractive struct {
	ranker       SentenceRanker
	maxSentences int
}

func NewExtractive(ranker SentenceRanker, maxSentences int) *Extractive {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &Extractive{ranker: ranker, maxSentences: maxSentences}
}

func (e *Extractive) Name() string { return "extractive" }

func (e *Extractive) Complete(_ context.Context, req Request) (string, error) {
	if len(req.Passages) == 0 {
		return noMatchAnswer, nil
	}
	out, err := e.ranker.SummarizeFor(req.Question, strings.Join(req.Passages, "\n\n"), e.maxSentences)
	if err != nil {
		return "", Unavailable(err)
	}
	if strings.TrimSpace(out) == "" {
		return noMatchAnswer, nil
	}
	return out, nil
}
