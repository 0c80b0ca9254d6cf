package tracker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/config"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(config.TrackerConfig{Token: "pk_test", WorkspaceID: "900", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(config.TrackerConfig{})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestConstructionSpace(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/team/900/space", r.URL.Path)
		assert.Equal(t, "pk_test", r.Header.Get("Authorization"))
		io.WriteString(w, `{"spaces":[{"id":"1","name":"Marketing"},{"id":"2","name":"Construction Ops"}]}`)
	}))

	s, err := c.ConstructionSpace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", s.ID)
}

func TestConstructionSpaceFallsBackToFirst(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"spaces":[{"id":"7","name":"Team"}]}`)
	}))
	s, err := c.ConstructionSpace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", s.ID)
}

func TestTasksDecoding(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/L1/task", r.URL.Path)
		io.WriteString(w, `{"tasks":[{
			"id":"b","name":"Framing",
			"status":{"status":"in progress","type":"custom"},
			"start_date":"1704067200000","due_date":"1704326400000",
			"dependencies":[{"task_id":"b","depends_on":"a"},{"task_id":"c","depends_on":"b"}],
			"assignees":[{"id":42}],
			"priority":{"id":"2"},
			"list":{"id":"L1"}
		},{
			"id":"a","name":"Foundation","status":{"status":"complete","type":"closed"},
			"start_date":null,"due_date":null,"priority":null
		}]}`)
	}))

	tasks, err := c.Tasks(context.Background(), "L1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	framing := tasks[0]
	assert.Equal(t, []string{"a"}, framing.DependsOn)
	assert.Equal(t, int64(1704067200000), framing.StartDate)
	assert.Equal(t, int64(1704326400000), framing.DueDate)
	assert.Equal(t, []int{42}, framing.AssigneeIDs)
	assert.Equal(t, 2, framing.Priority)
	assert.False(t, framing.Closed)

	assert.True(t, tasks[1].Closed)
	assert.Zero(t, tasks[1].StartDate)
}

func TestCreateTaskAndDependency(t *testing.T) {
	var deps []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/list/L1/task":
			var in TaskInput
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "Pour slab", in.Name)
			io.WriteString(w, `{"id":"t9","name":"Pour slab","status":{"status":"to do"}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/task/t9/dependency":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			deps = append(deps, body["depends_on"])
			io.WriteString(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))

	ctx := context.Background()
	task, err := c.CreateTask(ctx, "L1", TaskInput{Name: "Pour slab"})
	require.NoError(t, err)
	assert.Equal(t, "t9", task.ID)

	require.NoError(t, c.AddDependency(ctx, "t9", "t1"))
	assert.Equal(t, []string{"t1"}, deps)
}

func TestUpstreamError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"err":"Token invalid","ECODE":"OAUTH_025"}`)
	}))

	_, err := c.Folder(context.Background(), "f1")
	require.ErrorIs(t, err, apperr.ErrExternalService)
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusUnauthorized, e.Status)
	assert.Contains(t, err.Error(), "Token invalid (OAUTH_025)")
}

func TestIDsAreEscapedInPaths(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/folder/a%2F..%2Fb%3Fx", r.URL.EscapedPath())
		assert.Empty(t, r.URL.RawQuery)
		io.WriteString(w, `{"id":"a/../b?x","name":"Riverside"}`)
	}))

	f, err := c.Folder(context.Background(), "a/../b?x")
	require.NoError(t, err)
	assert.Equal(t, "Riverside", f.Name)
}

func TestSpacesRequiresWorkspace(t *testing.T) {
	c, err := New(config.TrackerConfig{Token: "pk"})
	require.NoError(t, err)
	_, err = c.Spaces(context.Background())
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}
