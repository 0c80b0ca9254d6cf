// Package store provides the memory store interface and its SQLite
// implementation.
package store

import (
	"context"

	"github.com/rcliao/site-assistant/internal/model"
)

// AddParams holds parameters for adding a record.
type AddParams struct {
	Text     string
	Category model.Category
	Metadata map[string]any
}

// SearchParams holds parameters for searching records.
type SearchParams struct {
	// Query is free text. Empty matches every record that passes the
	// category and metadata filters.
	Query    string
	Category model.Category
	// Filter requires exact equality on each metadata key.
	Filter     map[string]any
	Limit      int
	SortByTime bool
}

// UpdateParams holds replacement values. Nil fields are left unchanged;
// a non-nil Metadata replaces the metadata wholesale.
type UpdateParams struct {
	Text     *string
	Category *model.Category
	Metadata map[string]any
}

// Store defines the memory store interface.
type Store interface {
	// Add stores a record and returns its id. metadata.timestamp is
	// set to the write time.
	Add(ctx context.Context, p AddParams) (string, error)

	// BulkAdd applies Add in order and stops at the first failure,
	// returning the ids written so far.
	BulkAdd(ctx context.Context, items []AddParams) ([]string, error)

	// Search returns matching records, newest first when SortByTime is
	// set and most relevant first otherwise.
	Search(ctx context.Context, p SearchParams) ([]model.Record, error)

	// Get returns the record with the given id.
	Get(ctx context.Context, id string) (*model.Record, error)

	// Update replaces the provided fields of an existing record.
	Update(ctx context.Context, id string, p UpdateParams) (*model.Record, error)

	// Delete removes a record. It reports whether a record was removed.
	Delete(ctx context.Context, id string) (bool, error)

	// GetByCategory is Search with an empty query.
	GetByCategory(ctx context.Context, c model.Category, limit int) ([]model.Record, error)

	// CreateCategory writes a category marker record once per store
	// lifetime. It reports whether a marker was written.
	CreateCategory(ctx context.Context, name model.Category, description string) (bool, error)

	// Close closes the store.
	Close() error
}
