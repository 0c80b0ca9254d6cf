package vectorindex

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/embedding"
	"github.com/rcliao/site-assistant/internal/model"
)

// ChromemIndex is an Index backed by an embedded chromem-go collection.
// Scores are cosine similarity: higher is better.
type ChromemIndex struct {
	db       *chromem.DB
	col      *chromem.Collection
	embedder embedding.Embedder
}

// NewChromemIndex opens the named collection. An empty dir keeps the index
// in memory; otherwise chromem persists it under dir.
func NewChromemIndex(dir, collection string, compress bool, e embedding.Embedder) (*ChromemIndex, error) {
	var db *chromem.DB
	if dir == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(dir, compress)
		if err != nil {
			return nil, fmt.Errorf("open vector db: %w", err)
		}
	}

	ef := func(ctx context.Context, text string) ([]float32, error) {
		return e.Embed(ctx, text)
	}
	col, err := db.GetOrCreateCollection(collection, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", collection, err)
	}
	return &ChromemIndex{db: db, col: col, embedder: e}, nil
}

// Count returns the number of stored chunks.
func (c *ChromemIndex) Count() int { return c.col.Count() }

func (c *ChromemIndex) Upsert(ctx context.Context, chunks []model.DocumentChunk) error {
	docs := make([]chromem.Document, 0, len(chunks))
	for _, ch := range chunks {
		if ch.ID == "" {
			return apperr.Required("vectorindex.Upsert", "id")
		}
		meta, err := encodeMetadata(ch.Metadata)
		if err != nil {
			return err
		}
		docs = append(docs, chromem.Document{ID: ch.ID, Content: ch.Content, Metadata: meta})
	}
	if len(docs) == 0 {
		return nil
	}
	if err := c.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (c *ChromemIndex) Query(ctx context.Context, query string, k int) ([]model.ScoredChunk, error) {
	return c.query(ctx, query, k, nil)
}

func (c *ChromemIndex) QueryFiltered(ctx context.Context, query string, k int, filter map[string]any) ([]model.ScoredChunk, error) {
	var where map[string]string
	if len(filter) > 0 {
		where = make(map[string]string, len(filter))
		for key, v := range filter {
			where[key] = filterString(v)
		}
	}
	return c.query(ctx, query, k, where)
}

func (c *ChromemIndex) query(ctx context.Context, query string, k int, where map[string]string) ([]model.ScoredChunk, error) {
	n := c.col.Count()
	if n == 0 || k <= 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}
	if strings.TrimSpace(query) == "" {
		// Empty queries have no useful embedding; rank against the filter.
		query = whereText(where)
	}

	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// chromem-go requires nResults <= the matching document count, so
	// retry with smaller limits.
	for limit := k; limit >= 1; limit-- {
		results, err := c.col.QueryEmbedding(ctx, vec, limit, where, nil)
		if err == nil {
			return toScored(results), nil
		}
		if !isInsufficientDocsError(err) {
			return nil, fmt.Errorf("chromem query: %w", err)
		}
	}
	return nil, nil
}

func (c *ChromemIndex) GetByID(ctx context.Context, id string) (*model.DocumentChunk, error) {
	doc, err := c.col.GetByID(ctx, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "empty") {
			return nil, apperr.NotFound("vectorindex.GetByID", "document chunk", id)
		}
		return nil, fmt.Errorf("chromem get: %w", err)
	}
	return &model.DocumentChunk{ID: doc.ID, Content: doc.Content, Metadata: decodeMetadata(doc.Metadata)}, nil
}

func toScored(results []chromem.Result) []model.ScoredChunk {
	out := make([]model.ScoredChunk, 0, len(results))
	for _, r := range results {
		out = append(out, model.ScoredChunk{
			DocumentChunk: model.DocumentChunk{ID: r.ID, Content: r.Content, Metadata: decodeMetadata(r.Metadata)},
			Score:         float64(r.Similarity),
		})
	}
	return out
}

func whereText(where map[string]string) string {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+where[k])
	}
	if len(parts) == 0 {
		return "document"
	}
	return strings.Join(parts, " ")
}

func isInsufficientDocsError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
