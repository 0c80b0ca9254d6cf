package store

import (
	"context"
	"os"

	"github.com/rcliao/site-assistant/internal/model"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string          `json:"db_path"`
	DBSizeBytes   int64           `json:"db_size_bytes"`
	TotalRecords  int             `json:"total_records"`
	Embedded      int             `json:"embedded_records"`
	Uncategorized int             `json:"uncategorized"`
	Categories    []CategoryStats `json:"categories"`
}

// CategoryStats holds per-category counts.
type CategoryStats struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Known    bool   `json:"known"`
	NewestTS int64  `json:"newest_timestamp"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path}

	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&st.TotalRecords)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE embedding IS NOT NULL`).Scan(&st.Embedded)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE category IS NULL`).Scan(&st.Uncategorized)

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) AS cnt, MAX(ts)
		FROM records WHERE category IS NOT NULL
		GROUP BY category ORDER BY cnt DESC, category`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var cs CategoryStats
		if err := rows.Scan(&cs.Category, &cs.Count, &cs.NewestTS); err != nil {
			return st, err
		}
		cs.Known = s.taxonomy.Has(model.Category(cs.Category))
		st.Categories = append(st.Categories, cs)
	}
	return st, rows.Err()
}
