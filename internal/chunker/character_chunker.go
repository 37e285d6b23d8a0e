package chunker

import (
	"fmt"
	"strconv"
	"unicode"

	"devcoach/internal/domain"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Span is a half-open rune range [Start, End) of the input text.
type Span struct {
	Start int
	End   int
}

// CharacterChunker splits text into chunks of at most size runes where
// consecutive chunks share at most overlap runes. Cuts prefer paragraph,
// line, sentence and word boundaries, in that order.
type CharacterChunker struct {
	size    int
	overlap int
}

// NewCharacterChunker validates the configuration up front so that Chunk
// itself never fails on bad parameters.
func NewCharacterChunker(size, overlap int) (*CharacterChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidArgument, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrInvalidArgument, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", domain.ErrInvalidArgument, overlap, size)
	}
	return &CharacterChunker{size: size, overlap: overlap}, nil
}

func (c *CharacterChunker) Size() int    { return c.size }
func (c *CharacterChunker) Overlap() int { return c.overlap }

// Chunk splits the document into chunks. Chunk text is the exact substring
// covered by the span; nothing is trimmed.
func (c *CharacterChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	runes := []rune(document.Content)
	spans := c.split(runes)
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, sp := range spans {
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(i),
			Source:     document.Path,
			Text:       string(runes[sp.Start:sp.End]),
			Index:      i,
			Start:      sp.Start,
			End:        sp.End,
		})
	}
	return chunks, nil
}

// Split returns the chunk spans for text, in rune offsets.
func (c *CharacterChunker) Split(text string) []Span {
	return c.split([]rune(text))
}

func (c *CharacterChunker) split(runes []rune) []Span {
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= c.size {
		return []Span{{Start: 0, End: n}}
	}
	var spans []Span
	start := 0
	for {
		end := start + c.size
		if end >= n {
			spans = append(spans, Span{Start: start, End: n})
			return spans
		}
		cut := c.findCut(runes, start, end)
		spans = append(spans, Span{Start: start, End: cut})
		start = c.nextStart(runes, cut)
	}
}

// findCut picks the cut position in (start+overlap, end]. The lower bound
// guarantees that the next chunk starts strictly after this one.
func (c *CharacterChunker) findCut(runes []rune, start, end int) int {
	lo := start + c.overlap + 1
	if half := start + c.size/2; half > lo {
		lo = half
	}
	for _, boundary := range boundaries {
		for p := end; p >= lo; p-- {
			if boundary(runes, p) {
				return p
			}
		}
	}
	return end
}

// nextStart backs up overlap runes from cut and then moves forward to the
// next word start, if one exists before cut.
func (c *CharacterChunker) nextStart(runes []rune, cut int) int {
	next := cut - c.overlap
	if c.overlap == 0 || unicode.IsSpace(runes[next-1]) {
		return next
	}
	for i := next; i < cut-1; i++ {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return next
}

// A boundary reports whether a cut right before runes[p] is a good split.
type boundary func(runes []rune, p int) bool

var boundaries = []boundary{
	func(r []rune, p int) bool { return p >= 2 && r[p-1] == '\n' && r[p-2] == '\n' },
	func(r []rune, p int) bool { return r[p-1] == '\n' },
	func(r []rune, p int) bool { return p >= 2 && unicode.IsSpace(r[p-1]) && isSentenceEnd(r[p-2]) },
	func(r []rune, p int) bool { return unicode.IsSpace(r[p-1]) },
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '？', '！':
		return true
	}
	return false
}
