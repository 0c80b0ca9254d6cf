package document

import (
	"context"

	"github.com/rcliao/site-assistant/internal/tool"
)

// Handler descriptors used when delegating to this domain.
const (
	Name        = "Document Processing"
	Description = "document processing, information extraction, and document search for construction documents"
)

type idArgs struct {
	DocumentID string `json:"document_id"`
}

type listArgs struct {
	Limit int `json:"limit"`
}

var idSchema = tool.Object(map[string]any{
	"document_id": tool.String("Document id (source_id) or chunk id"),
}, "document_id")

// Tools exposes the handler operations as tools.
func (s *Service) Tools() []tool.Tool {
	return []tool.Tool{
		tool.Typed("process_document", "Process a document file to extract text and metadata",
			tool.Object(map[string]any{
				"file_path": tool.String("Path of the file to process"),
				"metadata":  tool.FreeObject("Metadata merged into every chunk, e.g. project_id"),
			}, "file_path"),
			func(ctx context.Context, req ProcessRequest) (any, error) {
				return s.Process(ctx, req)
			}),

		tool.Typed("search_documents", "Search for documents based on content",
			tool.Object(map[string]any{
				"query":           tool.String("Search text"),
				"limit":           tool.Integer("Maximum results (default 5)"),
				"metadata_filter": tool.FreeObject("Exact-match metadata filter"),
			}, "query"),
			func(ctx context.Context, req SearchRequest) (any, error) {
				hits, err := s.Search(ctx, req)
				if err != nil {
					return nil, err
				}
				return map[string]any{"results": hits, "count": len(hits)}, nil
			}),

		tool.Typed("get_document_by_id", "Retrieve a document by its ID", idSchema,
			func(ctx context.Context, a idArgs) (any, error) {
				return s.Get(ctx, a.DocumentID)
			}),

		tool.Typed("list_recent_documents", "List recently processed documents",
			tool.Object(map[string]any{
				"limit": tool.Integer("Maximum documents (default 10)"),
			}),
			func(ctx context.Context, a listArgs) (any, error) {
				docs, err := s.ListRecent(ctx, a.Limit)
				if err != nil {
					return nil, err
				}
				return map[string]any{"documents": docs}, nil
			}),

		tool.Typed("extract_entities", "Extract dates, amounts, contacts, companies and permit numbers from a document", idSchema,
			func(ctx context.Context, a idArgs) (any, error) {
				entities, err := s.ExtractEntities(ctx, a.DocumentID)
				if err != nil {
					return nil, err
				}
				return map[string]any{"document_id": a.DocumentID, "entities": entities}, nil
			}),
	}
}
