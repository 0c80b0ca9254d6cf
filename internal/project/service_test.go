package project

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
	"github.com/rcliao/site-assistant/internal/tool"
	"github.com/rcliao/site-assistant/internal/tracker"
)

// fakeTracker keeps folders, lists and tasks in memory.
type fakeTracker struct {
	spaces  []tracker.Space
	folders map[string]*tracker.Folder
	lists   map[string][]tracker.List
	tasks   map[string][]model.Task
	deps    map[string][]string
	nextID  int
	failOn  string
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		spaces:  []tracker.Space{{ID: "S1", Name: "Construction"}},
		folders: map[string]*tracker.Folder{},
		lists:   map[string][]tracker.List{},
		tasks:   map[string][]model.Task{},
		deps:    map[string][]string{},
	}
}

func (f *fakeTracker) id(prefix string) string {
	f.nextID++
	return prefix + strconv.Itoa(f.nextID)
}

func (f *fakeTracker) fail(op string) error {
	if f.failOn == op {
		return apperr.External("tracker."+op, "clickup", 500, assert.AnError)
	}
	return nil
}

func (f *fakeTracker) ConstructionSpace(context.Context) (*tracker.Space, error) {
	return &f.spaces[0], f.fail("ConstructionSpace")
}

func (f *fakeTracker) Folders(context.Context, string) ([]tracker.Folder, error) {
	var out []tracker.Folder
	for _, fo := range f.folders {
		out = append(out, *fo)
	}
	return out, f.fail("Folders")
}

func (f *fakeTracker) Folder(_ context.Context, id string) (*tracker.Folder, error) {
	fo, ok := f.folders[id]
	if !ok {
		return nil, apperr.External("tracker.Folder", "clickup", 404, assert.AnError)
	}
	return fo, nil
}

func (f *fakeTracker) CreateFolder(_ context.Context, _ string, name string) (*tracker.Folder, error) {
	fo := &tracker.Folder{ID: f.id("F"), Name: name}
	f.folders[fo.ID] = fo
	return fo, f.fail("CreateFolder")
}

func (f *fakeTracker) Lists(_ context.Context, folderID string) ([]tracker.List, error) {
	return f.lists[folderID], f.fail("Lists")
}

func (f *fakeTracker) CreateList(_ context.Context, folderID, name, content string) (*tracker.List, error) {
	l := tracker.List{ID: f.id("L"), Name: name, Content: content}
	f.lists[folderID] = append(f.lists[folderID], l)
	return &l, nil
}

func (f *fakeTracker) Tasks(_ context.Context, listID string) ([]model.Task, error) {
	out := make([]model.Task, 0, len(f.tasks[listID]))
	for _, t := range f.tasks[listID] {
		t.DependsOn = f.deps[t.ID]
		out = append(out, t)
	}
	return out, f.fail("Tasks")
}

func (f *fakeTracker) CreateTask(_ context.Context, listID string, in tracker.TaskInput) (*model.Task, error) {
	t := model.Task{ID: f.id("T"), Name: in.Name, Status: "to do", StartDate: in.StartDate, DueDate: in.DueDate, ListID: listID}
	f.tasks[listID] = append(f.tasks[listID], t)
	return &t, f.fail("CreateTask")
}

func (f *fakeTracker) UpdateTask(_ context.Context, taskID string, u tracker.TaskUpdate) (*model.Task, error) {
	for listID, ts := range f.tasks {
		for i := range ts {
			if ts[i].ID == taskID {
				if u.Status != "" {
					ts[i].Status = u.Status
					ts[i].Closed = u.Status == "complete"
				}
				if u.Name != "" {
					ts[i].Name = u.Name
				}
				f.tasks[listID] = ts
				t := ts[i]
				return &t, nil
			}
		}
	}
	return nil, apperr.External("tracker.UpdateTask", "clickup", 404, assert.AnError)
}

func (f *fakeTracker) AddDependency(_ context.Context, taskID, dependsOn string) error {
	f.deps[taskID] = append(f.deps[taskID], dependsOn)
	return f.fail("AddDependency")
}

func newTestService(t *testing.T, tr Tracker) (*Service, *store.SQLiteStore) {
	t.Helper()
	mem, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })
	return NewService(tr, mem, nil), mem
}

const day = int64(24 * 60 * 60 * 1000)

func TestCreateProjectAndTasks(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTracker()
	svc, mem := newTestService(t, tr)

	budget := 500000.0
	p, err := svc.CreateProject(ctx, CreateProjectRequest{Name: "Harbor Lofts", Budget: &budget, Client: "Harbor LLC"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ListID)

	recs, err := mem.GetByCategory(ctx, model.CategoryProjects, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Project 'Harbor Lofts' created with ID: "+p.ID, recs[0].Text)
	assert.Equal(t, "Harbor LLC", recs[0].Metadata["client"])

	a, err := svc.CreateTask(ctx, CreateTaskRequest{Name: "Excavate", ProjectID: p.ID, StartDate: day, DueDate: 3 * day})
	require.NoError(t, err)
	b, err := svc.CreateTask(ctx, CreateTaskRequest{Name: "Footings", ProjectID: p.ID, Dependencies: []string{a.ID}, StartDate: 3 * day, DueDate: 6 * day})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, b.DependsOn)

	taskRecs, err := mem.GetByCategory(ctx, model.CategoryTasks, 5)
	require.NoError(t, err)
	assert.Len(t, taskRecs, 2)

	sched, err := svc.CriticalPath(ctx, CriticalPathRequest{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, 5, sched.CompletionTime)
	assert.Equal(t, []string{a.ID, b.ID}, sched.CriticalPath)
}

func TestCreateTaskValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, newFakeTracker())

	_, err := svc.CreateTask(ctx, CreateTaskRequest{ProjectID: "F1"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.CreateTask(ctx, CreateTaskRequest{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.CreateTask(ctx, CreateTaskRequest{Name: "x", ProjectID: "F1", Priority: 7})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.CreateTask(ctx, CreateTaskRequest{Name: "x", ProjectID: "empty-folder"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateTaskAndStatus(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTracker()
	svc, _ := newTestService(t, tr)

	p, err := svc.CreateProject(ctx, CreateProjectRequest{Name: "Mill Street"})
	require.NoError(t, err)
	a, err := svc.CreateTask(ctx, CreateTaskRequest{Name: "Demo", ProjectID: p.ID})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, CreateTaskRequest{Name: "Rough-in", ProjectID: p.ID})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, UpdateTaskRequest{TaskID: a.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	updated, err := svc.UpdateTask(ctx, UpdateTaskRequest{TaskID: a.ID, Status: "complete"})
	require.NoError(t, err)
	assert.True(t, updated.Closed)

	st, err := svc.ProjectStatus(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mill Street", st.Name)
	assert.Equal(t, 2, st.TotalTasks)
	assert.Equal(t, 1, st.CompletedTasks)
	assert.InDelta(t, 50.0, st.Progress, 1e-9)
	assert.Equal(t, map[string]int{"complete": 1, "to do": 1}, st.StatusCounts)

	projects, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 2, projects[0].TotalTasks)
}

func TestTrackerFailureSurfacesExternalError(t *testing.T) {
	tr := newFakeTracker()
	tr.failOn = "CreateFolder"
	svc, _ := newTestService(t, tr)

	_, err := svc.CreateProject(context.Background(), CreateProjectRequest{Name: "Doomed"})
	assert.ErrorIs(t, err, apperr.ErrExternalService)
}

func TestWithoutTracker(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.CreateProject(ctx, CreateProjectRequest{Name: "No tracker"})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	_, err = svc.CriticalPath(ctx, CriticalPathRequest{ProjectID: "F1"})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	sched, err := svc.CriticalPath(ctx, CriticalPathRequest{Tasks: []model.Task{
		{ID: "A", Duration: 2},
		{ID: "B", Duration: 3, DependsOn: []string{"A"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, 5, sched.CompletionTime)
}

func TestProjectTools(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	reg := tool.NewRegistry(svc.Tools()...)

	assert.ElementsMatch(t, []string{
		"create_project", "create_task", "update_task",
		"get_project_status", "get_critical_path", "list_projects",
	}, reg.Names())

	args := json.RawMessage(`{"tasks":[
		{"id":"A","name":"Site prep","duration":1},
		{"id":"B","duration":5,"depends_on":["A"]},
		{"id":"C","duration":2,"depends_on":["A"]},
		{"id":"D","duration":1,"depends_on":["B","C"]}]}`)
	res := reg.Call(ctx, "get_critical_path", args)
	require.True(t, res.Success, res.Error)
	data := res.Data.(map[string]any)
	sched := data["schedule"].(*model.Schedule)
	assert.Equal(t, 7, sched.CompletionTime)
	assert.Contains(t, data["summary"], "- Site prep (Duration: 1 days)")

	res = reg.Call(ctx, "get_critical_path", json.RawMessage(`{"tasks":[{"id":"A","depends_on":["B"]},{"id":"B","depends_on":["A"]}]}`))
	assert.Equal(t, apperr.KindValidation, res.Kind)

	res = reg.Call(ctx, "list_projects", nil)
	assert.Equal(t, apperr.KindConfiguration, res.Kind)
}
