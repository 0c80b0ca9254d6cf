package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/embedding"
	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	embedder embedding.Embedder
	taxonomy model.Taxonomy
	logger   logging.Logger

	mu      sync.Mutex
	entropy *rand.Rand

	// catMu is held for a whole CreateCategory call.
	catMu   sync.Mutex
	created map[model.Category]bool
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithEmbedder enables embedding-ranked search.
func WithEmbedder(e embedding.Embedder) Option {
	return func(s *SQLiteStore) { s.embedder = e }
}

// WithTaxonomy sets the registered category set used to validate writes.
func WithTaxonomy(t model.Taxonomy) Option {
	return func(s *SQLiteStore) { s.taxonomy = t }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *SQLiteStore) { s.logger = logging.OrNop(l) }
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, apperr.Configuration("store.Open", "database path is not configured")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:       db,
		path:     dbPath,
		taxonomy: model.DefaultTaxonomy(),
		logger:   logging.Nop(),
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
		created:  make(map[model.Category]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id          TEXT PRIMARY KEY,
		text        TEXT NOT NULL,
		category    TEXT,
		metadata    TEXT NOT NULL DEFAULT '{}',
		ts          INTEGER NOT NULL,
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER,
		embedding   BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_records_category ON records(category, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at DESC);

	CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
		text,
		content=records,
		content_rowid=rowid
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 triggers keep records_fts in sync with records.text
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS records_ai AFTER INSERT ON records BEGIN
			INSERT INTO records_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS records_ad AFTER DELETE ON records BEGIN
			INSERT INTO records_fts(records_fts, rowid, text) VALUES('delete', old.rowid, old.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS records_au AFTER UPDATE OF text ON records BEGIN
			INSERT INTO records_fts(records_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			INSERT INTO records_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
	}
	for _, t := range triggers {
		if _, err := s.db.Exec(t); err != nil {
			return fmt.Errorf("create trigger: %w", err)
		}
	}
	return nil
}

// checkCategory logs, but does not reject, categories outside the taxonomy.
func (s *SQLiteStore) checkCategory(op string, c model.Category) {
	if c != "" && !s.taxonomy.Has(c) {
		s.logger.Warn("unknown memory category", "op", op, "category", string(c))
	}
}

func (s *SQLiteStore) embed(ctx context.Context, op, text string) ([]byte, error) {
	if s.embedder == nil {
		return nil, nil
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, apperr.External(op, "embedding", 0, err)
	}
	return encodeVector(vec), nil
}

func (s *SQLiteStore) Add(ctx context.Context, p AddParams) (string, error) {
	const op = "store.Add"
	if s == nil || s.db == nil {
		return "", apperr.Configuration(op, "memory store is not connected")
	}
	if p.Text == "" {
		return "", apperr.Required(op, "text")
	}
	s.checkCategory(op, p.Category)

	now := time.Now()
	meta := make(map[string]any, len(p.Metadata)+1)
	for k, v := range p.Metadata {
		meta[k] = v
	}
	meta[model.MetaTimestamp] = now.Unix()

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", apperr.Validation(op, "metadata", "metadata is not serializable: "+err.Error())
	}

	vec, err := s.embed(ctx, op, p.Text)
	if err != nil {
		return "", err
	}

	id := s.newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, text, category, metadata, ts, created_at, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.Text, nullCategory(p.Category), string(metaJSON), now.Unix(), now.UnixNano(), vec)
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) BulkAdd(ctx context.Context, items []AddParams) ([]string, error) {
	ids := make([]string, 0, len(items))
	for i, item := range items {
		id, err := s.Add(ctx, item)
		if err != nil {
			return ids, fmt.Errorf("bulk add item %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records r WHERE r.id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("store.Get", "memory record", id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, p UpdateParams) (*model.Record, error) {
	const op = "store.Update"
	cur, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound(op, "memory record", id)
		}
		return nil, err
	}

	textChanged := false
	if p.Text != nil {
		if *p.Text == "" {
			return nil, apperr.Required(op, "text")
		}
		textChanged = *p.Text != cur.Text
		cur.Text = *p.Text
	}
	if p.Category != nil {
		s.checkCategory(op, *p.Category)
		cur.Category = *p.Category
	}
	if p.Metadata != nil {
		ts := cur.Timestamp()
		cur.Metadata = make(map[string]any, len(p.Metadata)+1)
		for k, v := range p.Metadata {
			cur.Metadata[k] = v
		}
		cur.Metadata[model.MetaTimestamp] = ts
	}

	metaJSON, err := json.Marshal(cur.Metadata)
	if err != nil {
		return nil, apperr.Validation(op, "metadata", "metadata is not serializable: "+err.Error())
	}

	if textChanged {
		vec, err := s.embed(ctx, op, cur.Text)
		if err != nil {
			return nil, err
		}
		_, err = s.db.ExecContext(ctx,
			`UPDATE records SET text = ?, category = ?, metadata = ?, updated_at = ?, embedding = ? WHERE id = ?`,
			cur.Text, nullCategory(cur.Category), string(metaJSON), time.Now().UnixNano(), vec, id)
		if err != nil {
			return nil, fmt.Errorf("update record: %w", err)
		}
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE records SET category = ?, metadata = ?, updated_at = ? WHERE id = ?`,
			nullCategory(cur.Category), string(metaJSON), time.Now().UnixNano(), id)
		if err != nil {
			return nil, fmt.Errorf("update record: %w", err)
		}
	}
	return cur, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const recordColumns = `r.id, r.text, r.category, r.metadata, r.ts, r.created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner, extra ...interface{}) (model.Record, error) {
	var r model.Record
	var category sql.NullString
	var meta string
	var ts, createdAt int64

	dest := append([]interface{}{&r.ID, &r.Text, &category, &meta, &ts, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return r, err
	}

	if category.Valid {
		r.Category = model.Category(category.String)
	}
	r.Metadata = map[string]any{}
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &r.Metadata); err != nil {
			return r, fmt.Errorf("decode metadata for %s: %w", r.ID, err)
		}
	}
	r.Metadata[model.MetaTimestamp] = ts
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	return r, nil
}

func nullCategory(c model.Category) interface{} {
	if c == "" {
		return nil
	}
	return string(c)
}

func encodeVector(v embedding.Vector) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) embedding.Vector {
	v := make(embedding.Vector, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
