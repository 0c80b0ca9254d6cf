package store

import (
	"context"

	"github.com/rcliao/site-assistant/internal/model"
)

// ExportAll returns every record oldest first, optionally limited to one
// category.
func (s *SQLiteStore) ExportAll(ctx context.Context, c model.Category) ([]model.Record, error) {
	where := "1 = 1"
	var args []interface{}
	if c != "" {
		where = "r.category = ?"
		args = append(args, string(c))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records r WHERE `+where+` ORDER BY r.created_at, r.rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Import re-adds exported records through BulkAdd. Ids and timestamps are
// assigned fresh; the original timestamp is kept as metadata.imported_from_ts.
func (s *SQLiteStore) Import(ctx context.Context, records []model.Record) (int, error) {
	items := make([]AddParams, 0, len(records))
	for _, r := range records {
		meta := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		if ts := r.Timestamp(); ts > 0 {
			meta["imported_from_ts"] = ts
		}
		delete(meta, model.MetaTimestamp)
		items = append(items, AddParams{Text: r.Text, Category: r.Category, Metadata: meta})
	}
	ids, err := s.BulkAdd(ctx, items)
	return len(ids), err
}
