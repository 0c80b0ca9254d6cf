package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rcliao/site-assistant/internal/model"
)

// millis decodes ClickUp timestamps, which arrive as strings of unix
// milliseconds, numbers, or null.
type millis int64

func (m *millis) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*m = 0
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*m = millis(v)
	return nil
}

type wireTask struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Status      struct {
		Status string `json:"status"`
		Type   string `json:"type"`
	} `json:"status"`
	StartDate    millis `json:"start_date"`
	DueDate      millis `json:"due_date"`
	Dependencies []struct {
		TaskID    string `json:"task_id"`
		DependsOn string `json:"depends_on"`
	} `json:"dependencies"`
	Assignees []struct {
		ID int `json:"id"`
	} `json:"assignees"`
	Priority *struct {
		ID string `json:"id"`
	} `json:"priority"`
	List struct {
		ID string `json:"id"`
	} `json:"list"`
}

func (w wireTask) toModel() model.Task {
	t := model.Task{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		URL:         w.URL,
		Status:      w.Status.Status,
		Closed:      w.Status.Type == "closed" || w.Status.Status == "complete",
		StartDate:   int64(w.StartDate),
		DueDate:     int64(w.DueDate),
		ListID:      w.List.ID,
	}
	for _, d := range w.Dependencies {
		// ClickUp lists both directions; keep the edges where this task waits.
		if d.TaskID == w.ID && d.DependsOn != "" {
			t.DependsOn = append(t.DependsOn, d.DependsOn)
		}
	}
	for _, a := range w.Assignees {
		t.AssigneeIDs = append(t.AssigneeIDs, a.ID)
	}
	if w.Priority != nil {
		t.Priority, _ = strconv.Atoi(w.Priority.ID)
	}
	return t
}

// Tasks lists the tasks of a list.
func (c *Client) Tasks(ctx context.Context, listID string) ([]model.Task, error) {
	var out struct {
		Tasks []wireTask `json:"tasks"`
	}
	if err := c.do(ctx, "tracker.Tasks", http.MethodGet, "/list/"+url.PathEscape(listID)+"/task", nil, &out); err != nil {
		return nil, err
	}
	tasks := make([]model.Task, len(out.Tasks))
	for i, w := range out.Tasks {
		tasks[i] = w.toModel()
	}
	return tasks, nil
}

// TaskInput holds the fields of a new task.
type TaskInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartDate   int64  `json:"start_date,omitempty"`
	DueDate     int64  `json:"due_date,omitempty"`
	Assignees   []int  `json:"assignees,omitempty"`
	Priority    int    `json:"priority,omitempty"`
}

// CreateTask creates a task in a list.
func (c *Client) CreateTask(ctx context.Context, listID string, in TaskInput) (*model.Task, error) {
	var w wireTask
	if err := c.do(ctx, "tracker.CreateTask", http.MethodPost, "/list/"+url.PathEscape(listID)+"/task", in, &w); err != nil {
		return nil, err
	}
	t := w.toModel()
	return &t, nil
}

// TaskUpdate holds replacement task fields. Zero values are not sent.
type TaskUpdate struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	DueDate     int64  `json:"due_date,omitempty"`
	Priority    int    `json:"priority,omitempty"`
}

// UpdateTask changes a task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, u TaskUpdate) (*model.Task, error) {
	var w wireTask
	if err := c.do(ctx, "tracker.UpdateTask", http.MethodPut, "/task/"+url.PathEscape(taskID), u, &w); err != nil {
		return nil, err
	}
	t := w.toModel()
	return &t, nil
}

// AddDependency records that taskID waits on dependsOn.
func (c *Client) AddDependency(ctx context.Context, taskID, dependsOn string) error {
	body := map[string]string{"depends_on": dependsOn}
	var discard json.RawMessage
	return c.do(ctx, "tracker.AddDependency", http.MethodPost, "/task/"+url.PathEscape(taskID)+"/dependency", body, &discard)
}
