package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/docconv"
	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
)

// Chunk metadata keys set by ProcessDocument.
const (
	MetaSourceID   = "source_id"
	MetaChunkIndex = "chunk_index"
	MetaFileName   = "file_name"
)

const (
	previewLimit      = 1000
	chunkPreviewLimit = 150
	previewChunks     = 3
	// postFilterFactor widens the candidate pool when filtering happens
	// after the index query.
	postFilterFactor = 4
	// documentPage is the first filtered query size when collecting a
	// document's chunks; it doubles until a query comes back short.
	documentPage = 200
)

// MemoryWriter is the slice of the memory store the connector writes to.
type MemoryWriter interface {
	Add(ctx context.Context, p store.AddParams) (string, error)
}

// ProcessResult describes a processed document.
type ProcessResult struct {
	DocumentID string                `json:"document_id"`
	RecordID   string                `json:"record_id"`
	FileName   string                `json:"file_name"`
	Chunks     []model.DocumentChunk `json:"chunks"`
}

// Connector converts documents, indexes their chunks, and records a
// summary of each processed document in the memory store.
type Connector struct {
	index     Index
	filter    FilterQuerier
	getter    Getter
	converter docconv.Converter
	memory    MemoryWriter
	mode      string
	logger    logging.Logger
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithExportMode selects docconv.ModeChunks (default) or docconv.ModeMarkdown.
func WithExportMode(mode string) ConnectorOption {
	return func(c *Connector) { c.mode = mode }
}

// WithConnectorLogger sets the logger.
func WithConnectorLogger(l logging.Logger) ConnectorOption {
	return func(c *Connector) { c.logger = logging.OrNop(l) }
}

// NewConnector wires an index, a converter and the memory store.
// Optional index capabilities are resolved here, once.
func NewConnector(idx Index, conv docconv.Converter, memory MemoryWriter, opts ...ConnectorOption) *Connector {
	c := &Connector{
		index:     idx,
		converter: conv,
		memory:    memory,
		mode:      docconv.ModeChunks,
		logger:    logging.Nop(),
	}
	c.filter, _ = idx.(FilterQuerier)
	c.getter, _ = idx.(Getter)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProcessDocument converts and indexes the file at path and writes a
// preview record to the documents category. Processing the same file
// twice indexes it twice.
func (c *Connector) ProcessDocument(ctx context.Context, path string, meta map[string]any) (*ProcessResult, error) {
	const op = "vectorindex.ProcessDocument"
	if strings.TrimSpace(path) == "" {
		return nil, apperr.Required(op, "file_path")
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.NotFound(op, "file", path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	chunks, err := docconv.Export(ctx, c.converter, path, c.mode)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	docID := uuid.NewString()
	for i := range chunks {
		m := make(map[string]any, len(chunks[i].Metadata)+len(meta)+3)
		for k, v := range chunks[i].Metadata {
			m[k] = v
		}
		for k, v := range meta {
			m[k] = v
		}
		m[MetaSourceID] = docID
		m[MetaChunkIndex] = i
		m[MetaFileName] = name
		chunks[i].ID = uuid.NewString()
		chunks[i].Metadata = m
	}

	if err := c.index.Upsert(ctx, chunks); err != nil {
		return nil, apperr.External(op, "vector index", 0, err)
	}

	recordMeta := map[string]any{
		MetaFileName:        name,
		"docling_processed": true,
		"chunk_count":       len(chunks),
	}
	for k, v := range chunks[0].Metadata {
		recordMeta[k] = v
	}
	if len(chunks) > 1 {
		recordMeta["total_chunks"] = len(chunks)
	}

	recordID, err := c.memory.Add(ctx, store.AddParams{
		Text:     previewText(name, chunks),
		Category: model.CategoryDocuments,
		Metadata: recordMeta,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("document processed", "file", name, "document_id", docID, "chunks", len(chunks))
	return &ProcessResult{DocumentID: docID, RecordID: recordID, FileName: name, Chunks: chunks}, nil
}

func previewText(name string, chunks []model.DocumentChunk) string {
	var b strings.Builder
	b.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks) && i <= previewChunks; i++ {
		fmt.Fprintf(&b, "\n\nChunk %d preview: %s...", i+1, truncate(chunks[i].Content, chunkPreviewLimit))
	}
	return fmt.Sprintf("Document: %s\n\nContent preview: %s...", name, truncate(b.String(), previewLimit))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SearchDocuments returns up to k chunks similar to query. Every filter key
// must match exactly; indexes without native filtering are post-filtered.
func (c *Connector) SearchDocuments(ctx context.Context, query string, k int, filter map[string]any) ([]model.ScoredChunk, error) {
	const op = "vectorindex.SearchDocuments"
	if k <= 0 {
		k = 5
	}
	if len(filter) > 0 && c.filter != nil {
		res, err := c.filter.QueryFiltered(ctx, query, k, filter)
		if err != nil {
			return nil, apperr.External(op, "vector index", 0, err)
		}
		return res, nil
	}

	fetch := k
	if len(filter) > 0 {
		fetch = k * postFilterFactor
	}
	res, err := c.index.Query(ctx, query, fetch)
	if err != nil {
		return nil, apperr.External(op, "vector index", 0, err)
	}
	if len(filter) == 0 {
		return res, nil
	}
	out := res[:0]
	for _, r := range res {
		if matches(r.Metadata, filter) {
			out = append(out, r)
		}
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// SearchDocumentsWithScore is an unfiltered SearchDocuments. Scores are
// cosine similarity, higher is better.
func (c *Connector) SearchDocumentsWithScore(ctx context.Context, query string, k int) ([]model.ScoredChunk, error) {
	return c.SearchDocuments(ctx, query, k, nil)
}

// GetDocument returns the chunk with the given id, or, failing that, every
// chunk whose source_id is id in chunk order.
func (c *Connector) GetDocument(ctx context.Context, id string) ([]model.DocumentChunk, error) {
	const op = "vectorindex.GetDocument"
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Required(op, "document_id")
	}

	if c.getter != nil {
		chunk, err := c.getter.GetByID(ctx, id)
		if err == nil {
			return []model.DocumentChunk{*chunk}, nil
		}
		if apperr.KindOf(err) != apperr.KindNotFound {
			return nil, apperr.External(op, "vector index", 0, err)
		}
	}

	var hits []model.ScoredChunk
	for k := documentPage; ; k *= 2 {
		var err error
		hits, err = c.SearchDocuments(ctx, "", k, map[string]any{MetaSourceID: id})
		if err != nil {
			return nil, err
		}
		if len(hits) < k {
			break
		}
	}
	if len(hits) == 0 {
		return nil, apperr.NotFound(op, "document", id)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return chunkIndex(hits[i].Metadata) < chunkIndex(hits[j].Metadata)
	})
	out := make([]model.DocumentChunk, len(hits))
	for i, h := range hits {
		out[i] = h.DocumentChunk
	}
	return out, nil
}

func chunkIndex(meta map[string]any) int {
	switch v := meta[MetaChunkIndex].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}
