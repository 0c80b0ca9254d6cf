// Package document implements the document handler on top of the vector
// index connector and the documents category of the memory store.
package document

import (
	"context"
	"strings"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
	"github.com/rcliao/site-assistant/internal/vectorindex"
)

const (
	defaultSearchLimit = 5
	defaultListLimit   = 10
	firstChunkPreview  = 100
)

// Processing types reported by ListRecent.
const (
	ProcessingConverted = "converted"
	ProcessingLegacy    = "legacy"
)

// Index is the vector index connector capability.
type Index interface {
	ProcessDocument(ctx context.Context, path string, meta map[string]any) (*vectorindex.ProcessResult, error)
	SearchDocuments(ctx context.Context, query string, k int, filter map[string]any) ([]model.ScoredChunk, error)
	GetDocument(ctx context.Context, id string) ([]model.DocumentChunk, error)
}

// Searcher reads document records from the memory store.
type Searcher interface {
	Search(ctx context.Context, p store.SearchParams) ([]model.Record, error)
}

// Service is the document handler.
type Service struct {
	index  Index
	memory Searcher
	logger logging.Logger
}

// NewService returns a document handler.
func NewService(index Index, memory Searcher, logger logging.Logger) *Service {
	return &Service{index: index, memory: memory, logger: logging.OrNop(logger)}
}

// ProcessRequest asks for a file to be converted and indexed.
type ProcessRequest struct {
	FilePath string         `json:"file_path"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ProcessResponse summarizes a processed document.
type ProcessResponse struct {
	Message           string `json:"message"`
	DocumentID        string `json:"document_id"`
	RecordID          string `json:"record_id"`
	DocumentCount     int    `json:"document_count"`
	FirstChunkPreview string `json:"first_chunk_preview"`
}

// Process converts and indexes a document.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*ProcessResponse, error) {
	if strings.TrimSpace(req.FilePath) == "" {
		return nil, apperr.Required("document.Process", "file_path")
	}
	res, err := s.index.ProcessDocument(ctx, req.FilePath, req.Metadata)
	if err != nil {
		return nil, err
	}
	preview := ""
	if len(res.Chunks) > 0 {
		preview = prefix(res.Chunks[0].Content, firstChunkPreview)
	}
	return &ProcessResponse{
		Message:           "Document processed successfully: " + res.FileName,
		DocumentID:        res.DocumentID,
		RecordID:          res.RecordID,
		DocumentCount:     len(res.Chunks),
		FirstChunkPreview: preview,
	}, nil
}

// SearchRequest is a semantic document query.
type SearchRequest struct {
	Query          string         `json:"query"`
	Limit          int            `json:"limit,omitempty"`
	MetadataFilter map[string]any `json:"metadata_filter,omitempty"`
}

// Search returns the chunks most similar to the query.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]model.ScoredChunk, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, apperr.Required("document.Search", "query")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	hits, err := s.index.SearchDocuments(ctx, req.Query, limit, req.MetadataFilter)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []model.ScoredChunk{}
	}
	return hits, nil
}

// Document is a stored document reassembled from its chunks.
type Document struct {
	DocumentID string         `json:"document_id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	ChunkCount int            `json:"chunk_count"`
}

// Get returns a document by chunk id or by document (source) id.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	chunks, err := s.index.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return &Document{
		DocumentID: id,
		Content:    strings.Join(parts, "\n\n"),
		Metadata:   chunks[0].Metadata,
		ChunkCount: len(chunks),
	}, nil
}

// RecentDocument is an entry of ListRecent.
type RecentDocument struct {
	FileName       string         `json:"file_name"`
	Timestamp      int64          `json:"timestamp"`
	ProcessingType string         `json:"processing_type"`
	ChunkCount     int            `json:"chunk_count,omitempty"`
	Source         string         `json:"source,omitempty"`
	DocumentID     string         `json:"document_id,omitempty"`
	Metadata       map[string]any `json:"metadata"`
}

// ListRecent returns the newest document records.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]RecentDocument, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	recs, err := s.memory.Search(ctx, store.SearchParams{
		Category:   model.CategoryDocuments,
		Limit:      limit,
		SortByTime: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]RecentDocument, 0, len(recs))
	for _, r := range recs {
		d := RecentDocument{
			FileName:       r.MetaString(vectorindex.MetaFileName),
			Timestamp:      r.Timestamp(),
			ProcessingType: ProcessingLegacy,
			Metadata:       r.Metadata,
			DocumentID:     r.MetaString(vectorindex.MetaSourceID),
		}
		if processed, _ := r.Metadata["docling_processed"].(bool); processed {
			d.ProcessingType = ProcessingConverted
			d.ChunkCount = int(r.MetaFloat("chunk_count"))
			if d.ChunkCount == 0 {
				d.ChunkCount = 1
			}
			d.Source = r.MetaString("source")
		} else if d.DocumentID == "" {
			d.DocumentID = r.MetaString("document_id")
		}
		out = append(out, d)
	}
	return out, nil
}

// ExtractEntities runs the rule-based extractor over a document.
func (s *Service) ExtractEntities(ctx context.Context, id string) (map[string][]string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, apperr.Validation("document.ExtractEntities", "document_id", "document has no text content")
	}
	entities := ExtractEntities(doc.Content)
	s.logger.Debug("entities extracted", "document_id", id, "labels", len(entities))
	return entities, nil
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
