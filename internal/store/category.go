package store

import (
	"context"
	"fmt"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/model"
)

// Marker metadata keys.
const (
	MetaIsCategory  = "isCategoryMetadata"
	MetaDescription = "description"
)

// CreateCategory writes one "Category description" marker record the first
// time a name is seen by this store instance. Later calls are no-ops. The
// check is local: two store instances on the same database each write a
// marker unless SeedCategories ran first.
func (s *SQLiteStore) CreateCategory(ctx context.Context, name model.Category, description string) (bool, error) {
	if name == "" {
		return false, apperr.Required("store.CreateCategory", "name")
	}

	s.catMu.Lock()
	defer s.catMu.Unlock()
	if s.created[name] {
		return false, nil
	}

	_, err := s.Add(ctx, AddParams{
		Text:     "Category description: " + description,
		Category: name,
		Metadata: map[string]any{
			MetaIsCategory:  true,
			MetaDescription: description,
		},
	})
	if err != nil {
		return false, err
	}

	s.created[name] = true
	s.logger.Info("created memory category", "category", string(name))
	return true, nil
}

// SeedCategories marks every category that already has a marker record in
// the database as created, so CreateCategory skips it. It returns the
// categories found.
func (s *SQLiteStore) SeedCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT category FROM records
		 WHERE category IS NOT NULL AND json_extract(metadata, '$.%s') = 1
		 ORDER BY category`, MetaIsCategory))
	if err != nil {
		return nil, fmt.Errorf("load category markers: %w", err)
	}
	defer rows.Close()

	var found []model.Category
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		found = append(found, model.Category(c))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.catMu.Lock()
	for _, c := range found {
		s.created[c] = true
	}
	s.catMu.Unlock()
	return found, nil
}
