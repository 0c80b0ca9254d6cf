package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/model"
)

func newTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"), opts...)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type warnRecorder struct {
	mu    sync.Mutex
	warns []string
}

func (w *warnRecorder) Debug(string, ...any) {}
func (w *warnRecorder) Info(string, ...any)  {}
func (w *warnRecorder) Error(string, ...any) {}
func (w *warnRecorder) Warn(msg string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warns = append(w.warns, msg)
}

func TestAddAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	before := time.Now().Unix()
	id, err := s.Add(ctx, AddParams{
		Text:     "Foundation inspection passed",
		Category: model.CategoryProjects,
		Metadata: map[string]any{"project_id": "p-1"},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty ID")
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != "Foundation inspection passed" {
		t.Errorf("unexpected text %q", got.Text)
	}
	if got.Category != model.CategoryProjects {
		t.Errorf("expected category projects, got %q", got.Category)
	}
	if got.Timestamp() < before {
		t.Errorf("timestamp %d earlier than add-call time %d", got.Timestamp(), before)
	}
	if got.MetaString("project_id") != "p-1" {
		t.Errorf("metadata not preserved: %v", got.Metadata)
	}
	if got.Score != nil {
		t.Error("score must only be set on search results")
	}
}

func TestAddOverridesCallerTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, _ := s.Add(ctx, AddParams{Text: "x", Metadata: map[string]any{"timestamp": -5}})
	got, _ := s.Get(ctx, id)
	if got.Timestamp() <= 0 {
		t.Errorf("expected store-assigned timestamp, got %d", got.Timestamp())
	}
}

func TestAddUnknownCategoryWarns(t *testing.T) {
	ctx := context.Background()
	rec := &warnRecorder{}
	s := newTestStore(t, WithLogger(rec))

	id, err := s.Add(ctx, AddParams{Text: "Delegated task", Category: "delegations"})
	if err != nil {
		t.Fatalf("unknown category must not be rejected: %v", err)
	}
	got, _ := s.Get(ctx, id)
	if got.Category != "delegations" {
		t.Errorf("expected category kept, got %q", got.Category)
	}
	if len(rec.warns) != 1 {
		t.Errorf("expected 1 warning, got %d", len(rec.warns))
	}
}

func TestAddRequiresText(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add(context.Background(), AddParams{Category: model.CategoryTasks})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestOpenWithoutPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}

	var zero SQLiteStore
	_, err = zero.Add(context.Background(), AddParams{Text: "x"})
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("expected configuration error from unconnected store, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "01NOPE")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBulkAddStopsAtFirstError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ids, err := s.BulkAdd(ctx, []AddParams{
		{Text: "one", Category: model.CategoryTasks},
		{Text: ""},
		{Text: "three", Category: model.CategoryTasks},
	})
	if err == nil {
		t.Fatal("expected error from empty item")
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 id written before failure, got %d", len(ids))
	}

	recs, _ := s.GetByCategory(ctx, model.CategoryTasks, 10)
	if len(recs) != 1 {
		t.Errorf("expected prior success to remain, got %d records", len(recs))
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, _ := s.Add(ctx, AddParams{
		Text:     "Order 40 yards of concrete",
		Category: model.CategoryResources,
		Metadata: map[string]any{"supplier": "acme"},
	})
	orig, _ := s.Get(ctx, id)

	newText := "Order 45 yards of concrete"
	updated, err := s.Update(ctx, id, UpdateParams{Text: &newText})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != id || updated.Text != newText {
		t.Errorf("unexpected update result %+v", updated)
	}
	if updated.Category != model.CategoryResources || updated.MetaString("supplier") != "acme" {
		t.Error("fields not provided must be preserved")
	}

	updated, err = s.Update(ctx, id, UpdateParams{Metadata: map[string]any{"supplier": "bolt"}})
	if err != nil {
		t.Fatalf("update metadata: %v", err)
	}
	got, _ := s.Get(ctx, id)
	if got.MetaString("supplier") != "bolt" || got.Text != newText {
		t.Errorf("unexpected record after metadata update: %+v", got)
	}
	if got.Timestamp() != orig.Timestamp() {
		t.Errorf("update must keep the write timestamp: %d != %d", got.Timestamp(), orig.Timestamp())
	}

	// Search index follows text changes
	res, _ := s.Search(ctx, SearchParams{Query: "45"})
	if len(res) != 1 {
		t.Errorf("expected updated text to be searchable, got %d", len(res))
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)
	text := "x"
	_, err := s.Update(context.Background(), "missing", UpdateParams{Text: &text})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, _ := s.Add(ctx, AddParams{Text: "temporary note"})
	ok, err := s.Delete(ctx, id)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	ok, err = s.Delete(ctx, id)
	if err != nil || ok {
		t.Errorf("second delete should report false, got ok=%v err=%v", ok, err)
	}
}

func TestCreateCategoryOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateCategory(ctx, model.CategoryCompliance, "Permits and codes")
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	created, err = s.CreateCategory(ctx, model.CategoryCompliance, "Permits and codes")
	if err != nil || created {
		t.Fatalf("second create must be a no-op: created=%v err=%v", created, err)
	}

	recs, _ := s.Search(ctx, SearchParams{
		Category: model.CategoryCompliance,
		Filter:   map[string]any{MetaIsCategory: true},
	})
	if len(recs) != 1 {
		t.Fatalf("expected exactly 1 marker, got %d", len(recs))
	}
	if recs[0].Text != "Category description: Permits and codes" {
		t.Errorf("unexpected marker text %q", recs[0].Text)
	}
}

func TestCreateCategoryIsPerInstance(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	a, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	a.CreateCategory(ctx, model.CategoryClients, "Clients")
	b.CreateCategory(ctx, model.CategoryClients, "Clients")

	recs, _ := a.GetByCategory(ctx, model.CategoryClients, 10)
	if len(recs) != 2 {
		t.Errorf("independent instances each write a marker, got %d", len(recs))
	}
}

func TestCreateCategoryConcurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CreateCategory(ctx, model.CategoryResources, "Resources"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	recs, _ := s.GetByCategory(ctx, model.CategoryResources, 10)
	if len(recs) != 1 {
		t.Errorf("expected exactly 1 marker, got %d", len(recs))
	}
}

func TestSeedCategories(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	a, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	a.CreateCategory(ctx, model.CategoryProjects, "Projects")
	a.Add(ctx, AddParams{Text: "Kickoff meeting notes", Category: model.CategoryClients})
	a.Close()

	b, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	found, err := b.SeedCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0] != model.CategoryProjects {
		t.Fatalf("found = %v", found)
	}

	created, err := b.CreateCategory(ctx, model.CategoryProjects, "Projects")
	if err != nil || created {
		t.Fatalf("seeded category must not be rewritten: created=%v err=%v", created, err)
	}
	created, err = b.CreateCategory(ctx, model.CategoryClients, "Clients")
	if err != nil || !created {
		t.Fatalf("unmarked category must be created: created=%v err=%v", created, err)
	}

	recs, _ := b.Search(ctx, SearchParams{Filter: map[string]any{MetaIsCategory: true}})
	if len(recs) != 2 {
		t.Errorf("expected 2 markers, got %d", len(recs))
	}
}

func TestStatsAndExportImport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Text: "Budget approved", Category: model.CategoryFinancial})
	s.Add(ctx, AddParams{Text: "Invoice received", Category: model.CategoryFinancial})
	s.Add(ctx, AddParams{Text: "Call with owner", Category: model.CategoryConversations})
	s.Add(ctx, AddParams{Text: "loose note"})

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalRecords != 4 || st.Uncategorized != 1 {
		t.Errorf("unexpected totals %+v", st)
	}
	if len(st.Categories) != 2 || st.Categories[0].Category != "financial" || st.Categories[0].Count != 2 {
		t.Errorf("unexpected category stats %+v", st.Categories)
	}

	exported, err := s.ExportAll(ctx, model.CategoryFinancial)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exported) != 2 || exported[0].Text != "Budget approved" {
		t.Fatalf("unexpected export %+v", exported)
	}

	dst := newTestStore(t)
	n, err := dst.Import(ctx, exported)
	if err != nil || n != 2 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	recs, _ := dst.GetByCategory(ctx, model.CategoryFinancial, 10)
	if len(recs) != 2 {
		t.Errorf("expected 2 imported records, got %d", len(recs))
	}
	if recs[0].Metadata["imported_from_ts"] == nil {
		t.Error("expected original timestamp to be kept")
	}
}
