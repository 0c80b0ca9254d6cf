package model

// Chunk export formats.
const (
	FormatMarkdown = "markdown"
	FormatChunk    = "chunk"
)

// DocumentChunk is a span of a source document stored in the vector index.
type DocumentChunk struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// ScoredChunk is a search hit. Score is cosine similarity, higher is better.
type ScoredChunk struct {
	DocumentChunk
	Score float64 `json:"score"`
}
