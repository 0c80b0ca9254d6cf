package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
	"github.com/rcliao/site-assistant/internal/tool"
)

const (
	searchLimit    = 5
	contentPreview = 200
)

type queryArgs struct {
	Query string `json:"query"`
}

type memorySearchArgs struct {
	Query    string         `json:"query"`
	Category model.Category `json:"category"`
	Limit    int            `json:"limit"`
}

type documentSearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

var delegateSchema = tool.Object(map[string]any{
	"query": tool.String("The full request for the specialist, including identifiers and amounts"),
}, "query")

func (o *Orchestrator) buildTools() []tool.Tool {
	tools := make([]tool.Tool, 0, len(o.domains)+2)
	for _, d := range o.domains {
		tools = append(tools, tool.Typed(d.ToolName(), d.Routing, delegateSchema,
			func(ctx context.Context, a queryArgs) (any, error) {
				if strings.TrimSpace(a.Query) == "" {
					return nil, apperr.Required(d.ToolName(), "query")
				}
				return o.Delegate(ctx, d, a.Query)
			}))
	}

	tools = append(tools,
		tool.Typed("search_memory", "Search for information in the system's memory",
			tool.Object(map[string]any{
				"query":    tool.String("Search text"),
				"category": tool.Enum("Restrict to one category", categoryNames()...),
				"limit":    tool.Integer("Maximum results (default 5)"),
			}, "query"),
			func(ctx context.Context, a memorySearchArgs) (any, error) {
				return o.SearchMemory(ctx, a.Query, a.Category, a.Limit)
			}),

		tool.Typed("search_documents", "Search for information in stored documents",
			tool.Object(map[string]any{
				"query": tool.String("Search text"),
				"limit": tool.Integer("Maximum results (default 5)"),
			}, "query"),
			func(ctx context.Context, a documentSearchArgs) (any, error) {
				return o.SearchDocuments(ctx, a.Query, a.Limit)
			}),
	)
	return tools
}

func categoryNames() []string {
	names := model.DefaultTaxonomy().Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

// SearchMemory searches the memory store and formats the hits for a reader.
func (o *Orchestrator) SearchMemory(ctx context.Context, query string, c model.Category, limit int) (string, error) {
	if limit <= 0 {
		limit = searchLimit
	}
	recs, err := o.memory.Search(ctx, store.SearchParams{Query: query, Category: c, Limit: limit})
	if err != nil {
		o.logger.Error("search memory", "err", err)
		return "", fmt.Errorf("search memory: %w", err)
	}
	return FormatMemoryResults(recs), nil
}

// SearchDocuments searches the vector index and formats the hits.
func (o *Orchestrator) SearchDocuments(ctx context.Context, query string, limit int) (string, error) {
	if o.docs == nil {
		return "", apperr.Configuration("orchestrator.SearchDocuments", "no document index is configured")
	}
	if limit <= 0 {
		limit = searchLimit
	}
	hits, err := o.docs.SearchDocumentsWithScore(ctx, query, limit)
	if err != nil {
		o.logger.Error("search documents", "err", err)
		return "", err
	}
	return FormatDocumentResults(hits), nil
}

// FormatMemoryResults renders memory records as a numbered list.
func FormatMemoryResults(recs []model.Record) string {
	if len(recs) == 0 {
		return "No relevant memories found."
	}
	var b strings.Builder
	b.WriteString("Memory search results:\n\n")
	for i, r := range recs {
		category := string(r.Category)
		if category == "" {
			category = "none"
		}
		fmt.Fprintf(&b, "%d. Category: %s\n", i+1, category)
		fmt.Fprintf(&b, "   Content: %s\n", r.Text)
		if len(r.Metadata) > 0 {
			fmt.Fprintf(&b, "   Metadata: %s\n", metaJSON(r.Metadata))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatDocumentResults renders scored chunks as a numbered list.
func FormatDocumentResults(hits []model.ScoredChunk) string {
	if len(hits) == 0 {
		return "No relevant documents found."
	}
	var b strings.Builder
	b.WriteString("Document search results:\n\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. Relevance: %.2f\n", i+1, h.Score)
		fmt.Fprintf(&b, "   Content: %s...\n", prefix(h.Content, contentPreview))
		if len(h.Metadata) > 0 {
			fmt.Fprintf(&b, "   Metadata: %s\n", metaJSON(h.Metadata))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func metaJSON(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprint(m)
	}
	return string(b)
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
