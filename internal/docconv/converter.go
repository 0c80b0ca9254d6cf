// Package docconv converts source files into markdown and document chunks.
package docconv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/chunker"
	"github.com/rcliao/site-assistant/internal/model"
)

// Export modes.
const (
	ModeMarkdown = "markdown"
	ModeChunks   = "chunks"
)

// Document is a converted source file.
type Document struct {
	Source   string // path as given
	Name     string // base file name
	Format   string // source format, e.g. "markdown", "text"
	Markdown string
}

// Converter is the document conversion capability.
type Converter interface {
	Convert(ctx context.Context, path string) (*Document, error)
	Chunk(doc *Document) []model.DocumentChunk
	ToMarkdown(doc *Document) string
}

// Export converts path and returns one markdown chunk (ModeMarkdown) or the
// semantic chunks of the document (ModeChunks).
func Export(ctx context.Context, c Converter, path, mode string) ([]model.DocumentChunk, error) {
	doc, err := c.Convert(ctx, path)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeMarkdown:
		md := c.ToMarkdown(doc)
		if strings.TrimSpace(md) == "" {
			return nil, apperr.Validation("docconv.Export", "path", "document has no text content: "+doc.Name)
		}
		return []model.DocumentChunk{{
			Content: md,
			Metadata: map[string]any{
				"source": doc.Source,
				"format": model.FormatMarkdown,
			},
		}}, nil
	case ModeChunks, "":
		chunks := c.Chunk(doc)
		if len(chunks) == 0 {
			return nil, apperr.Validation("docconv.Export", "path", "document has no text content: "+doc.Name)
		}
		return chunks, nil
	default:
		return nil, apperr.Configuration("docconv.Export", fmt.Sprintf("unknown export mode %q", mode))
	}
}

var textFormats = map[string]string{
	".md":       "markdown",
	".markdown": "markdown",
	".txt":      "text",
	".text":     "text",
	".log":      "text",
	".csv":      "csv",
}

// TextConverter handles markdown and plain-text sources. Binary formats
// such as PDF or scanned images need OCR and are rejected.
type TextConverter struct {
	Options chunker.Options
}

// NewTextConverter returns a converter using the default chunk sizes.
func NewTextConverter() *TextConverter {
	return &TextConverter{Options: chunker.DefaultOptions()}
}

func (c *TextConverter) Convert(ctx context.Context, path string) (*Document, error) {
	const op = "docconv.Convert"
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, ok := textFormats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, apperr.Validation(op, "path", "unsupported document format: "+filepath.Ext(path))
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.NotFound(op, "file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &Document{
		Source:   path,
		Name:     filepath.Base(path),
		Format:   format,
		Markdown: toMarkdown(format, string(b)),
	}, nil
}

func (c *TextConverter) ToMarkdown(doc *Document) string {
	return doc.Markdown
}

func (c *TextConverter) Chunk(doc *Document) []model.DocumentChunk {
	results := chunker.Chunk(doc.Markdown, c.Options)
	chunks := make([]model.DocumentChunk, 0, len(results))
	for _, r := range results {
		meta := map[string]any{
			"source": doc.Source,
			"format": model.FormatChunk,
			"provenance": map[string]any{
				"start_line":    r.StartLine,
				"end_line":      r.EndLine,
				"source_format": doc.Format,
			},
		}
		if len(r.Headings) > 0 {
			meta["headings"] = r.Headings
		}
		chunks = append(chunks, model.DocumentChunk{Content: r.Text, Metadata: meta})
	}
	return chunks
}

// toMarkdown renders CSV rows as a markdown table and passes other text
// through unchanged.
func toMarkdown(format, text string) string {
	if format != "csv" {
		return text
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return ""
	}
	var b strings.Builder
	for i, line := range lines {
		cells := strings.Split(strings.TrimRight(line, "\r"), ",")
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if i == 0 {
			b.WriteString("|" + strings.Repeat(" --- |", len(cells)) + "\n")
		}
	}
	return b.String()
}
