package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/embedding"
	"github.com/rcliao/site-assistant/internal/model"
)

const (
	defaultSearchLimit = 10
	// candidatePool bounds each candidate source scored when ranking by
	// embedding similarity.
	candidatePool = 1000
)

var metaKeyRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Search finds records by category, metadata filter and query text.
//
// An empty query lists records newest first. With a query and SortByTime
// the records must match the query terms and are ordered newest first.
// Otherwise results are ranked by embedding cosine similarity when an
// embedder is configured, or by FTS5 bm25 when it is not; in both cases
// Score is higher-is-better.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.Record, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	where, args, err := filterClause(p)
	if err != nil {
		return nil, err
	}

	terms := ftsQuery(p.Query)
	switch {
	case terms == "":
		return s.queryRecords(ctx, where, args, limit)
	case p.SortByTime:
		where = append(where, "r.rowid IN (SELECT rowid FROM records_fts WHERE records_fts MATCH ?)")
		args = append(args, terms)
		return s.queryRecords(ctx, where, args, limit)
	case s.embedder != nil:
		return s.searchByEmbedding(ctx, p.Query, terms, where, args, limit)
	default:
		return s.searchFTS(ctx, terms, where, args, limit)
	}
}

func (s *SQLiteStore) GetByCategory(ctx context.Context, c model.Category, limit int) ([]model.Record, error) {
	return s.Search(ctx, SearchParams{Category: c, Limit: limit})
}

func filterClause(p SearchParams) ([]string, []interface{}, error) {
	where := []string{"1 = 1"}
	var args []interface{}

	if p.Category != "" {
		where = append(where, "r.category = ?")
		args = append(args, string(p.Category))
	}

	keys := make([]string, 0, len(p.Filter))
	for k := range p.Filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !metaKeyRe.MatchString(k) {
			return nil, nil, apperr.Validation("store.Search", "filter", fmt.Sprintf("invalid metadata key %q", k))
		}
		if k == model.MetaTimestamp {
			where = append(where, "r.ts = ?")
		} else {
			where = append(where, fmt.Sprintf("json_extract(r.metadata, '$.%s') = ?", k))
		}
		args = append(args, filterValue(p.Filter[k]))
	}
	return where, args, nil
}

// filterValue converts a metadata value to the form json_extract returns.
func filterValue(v any) interface{} {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case string, int, int64, float64, float32, int32:
		return x
	case model.Category:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func (s *SQLiteStore) queryRecords(ctx context.Context, where []string, args []interface{}, limit int) ([]model.Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM records r WHERE %s
		ORDER BY r.created_at DESC, r.rowid DESC LIMIT ?`, recordColumns, strings.Join(where, " AND "))
	rows, err := s.db.QueryContext(ctx, q, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
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

func (s *SQLiteStore) searchFTS(ctx context.Context, terms string, where []string, args []interface{}, limit int) ([]model.Record, error) {
	q := fmt.Sprintf(`SELECT %s, bm25(records_fts) AS rank
		FROM records_fts JOIN records r ON r.rowid = records_fts.rowid
		WHERE records_fts MATCH ? AND %s
		ORDER BY rank LIMIT ?`, recordColumns, strings.Join(where, " AND "))
	all := append([]interface{}{terms}, args...)
	rows, err := s.db.QueryContext(ctx, q, append(all, limit)...)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rank float64
		r, err := scanRecord(rows, &rank)
		if err != nil {
			return nil, err
		}
		score := -rank
		r.Score = &score
		records = append(records, r)
	}
	return records, rows.Err()
}

// searchByEmbedding ranks candidates by cosine similarity. Candidates are
// the best bm25 matches for the query terms plus the most recent embedded
// records, each side capped at candidatePool. A candidate without an
// embedding is scored by bm25 mapped into [0, 1).
func (s *SQLiteStore) searchByEmbedding(ctx context.Context, query, terms string, where []string, args []interface{}, limit int) ([]model.Record, error) {
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperr.External("store.Search", "embedding", 0, err)
	}

	cond := strings.Join(where, " AND ")
	matched := fmt.Sprintf(`SELECT %s, r.embedding, bm25(records_fts) AS rank
		FROM records_fts JOIN records r ON r.rowid = records_fts.rowid
		WHERE records_fts MATCH ? AND %s
		ORDER BY rank LIMIT ?`, recordColumns, cond)
	recent := fmt.Sprintf(`SELECT %s, r.embedding, 0.0 FROM records r
		WHERE %s AND r.embedding IS NOT NULL
		ORDER BY r.created_at DESC LIMIT ?`, recordColumns, cond)

	seen := map[string]bool{}
	var records []model.Record
	collect := func(q string, qargs []interface{}) error {
		rows, err := s.db.QueryContext(ctx, q, qargs...)
		if err != nil {
			return fmt.Errorf("search records: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				blob []byte
				rank float64
			)
			r, err := scanRecord(rows, &blob, &rank)
			if err != nil {
				return err
			}
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			var score float64
			if len(blob) > 0 {
				score = embedding.CosineSimilarity(qvec, decodeVector(blob))
			} else {
				bm := -rank
				score = bm / (1 + bm)
			}
			r.Score = &score
			records = append(records, r)
		}
		return rows.Err()
	}

	matchArgs := append([]interface{}{terms}, args...)
	if err := collect(matched, append(matchArgs, candidatePool)); err != nil {
		return nil, err
	}
	recentArgs := append(append([]interface{}{}, args...), candidatePool)
	if err := collect(recent, recentArgs); err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool { return *records[i].Score > *records[j].Score })
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ftsQuery turns free text into an FTS5 OR-query of quoted terms, or "" when
// the text has no searchable terms.
func ftsQuery(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := map[string]bool{}
	var terms []string
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " OR ")
}
