// Package category provisions the fixed memory category taxonomy.
package category

import (
	"context"
	"fmt"

	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/model"
)

// Creator is the part of the memory store the manager needs.
type Creator interface {
	CreateCategory(ctx context.Context, name model.Category, description string) (bool, error)
}

// Manager registers every category of a taxonomy with the store.
type Manager struct {
	store    Creator
	taxonomy model.Taxonomy
	logger   logging.Logger
}

// NewManager creates a manager for the given taxonomy.
func NewManager(store Creator, taxonomy model.Taxonomy, logger logging.Logger) *Manager {
	return &Manager{store: store, taxonomy: taxonomy, logger: logging.OrNop(logger)}
}

// Result reports what Initialize did for one category.
type Result struct {
	Category model.Category `json:"category"`
	Created  bool           `json:"created"`
}

// Initialize creates every category in order and stops at the first error.
func (m *Manager) Initialize(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(m.taxonomy))
	for _, info := range m.taxonomy {
		created, err := m.store.CreateCategory(ctx, info.Name, info.Description)
		if err != nil {
			return results, fmt.Errorf("create category %s: %w", info.Name, err)
		}
		results = append(results, Result{Category: info.Name, Created: created})
	}
	m.logger.Debug("memory categories initialized", "count", len(results))
	return results, nil
}

// List returns the taxonomy.
func (m *Manager) List() model.Taxonomy {
	return m.taxonomy
}
