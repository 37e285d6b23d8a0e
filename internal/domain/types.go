package domain

import "context"

// Document represents a single source loaded into the corpus at startup.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a contiguous span of a document used as the unit of retrieval.
// Start and End are rune offsets into the document content.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Source     string
	Text       string
	Index      int
	Start      int
	End        int
}

// SearchResult represents a matching chunk with its cosine similarity to the query.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Answer is the chat response together with the passages that grounded it.
type Answer struct {
	Text     string
	Grounded bool
	Sources  []SearchResult
}

// Embedder converts texts into vectors, one per input and in input order.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Preparer is implemented by embedders that need to see the corpus before
// they can embed anything, such as TF-IDF.
type Preparer interface {
	Prepare(corpus []string) error
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Texts drops the scores and returns the chunk texts in rank order.
func Texts(results []SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Chunk.Text)
	}
	return out
}
