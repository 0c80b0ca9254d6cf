// Package project implements the project handler: projects and tasks in
// the project tracker, progress reporting, and critical-path scheduling.
package project

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
	"github.com/rcliao/site-assistant/internal/tracker"
)

const defaultListName = "Tasks"

// Tracker is the project-tracking capability.
type Tracker interface {
	ConstructionSpace(ctx context.Context) (*tracker.Space, error)
	Folders(ctx context.Context, spaceID string) ([]tracker.Folder, error)
	Folder(ctx context.Context, folderID string) (*tracker.Folder, error)
	CreateFolder(ctx context.Context, spaceID, name string) (*tracker.Folder, error)
	Lists(ctx context.Context, folderID string) ([]tracker.List, error)
	CreateList(ctx context.Context, folderID, name, content string) (*tracker.List, error)
	Tasks(ctx context.Context, listID string) ([]model.Task, error)
	CreateTask(ctx context.Context, listID string, in tracker.TaskInput) (*model.Task, error)
	UpdateTask(ctx context.Context, taskID string, u tracker.TaskUpdate) (*model.Task, error)
	AddDependency(ctx context.Context, taskID, dependsOn string) error
}

// MemoryWriter records project events in the memory store.
type MemoryWriter interface {
	Add(ctx context.Context, p store.AddParams) (string, error)
}

// Service is the project handler. A nil tracker limits it to critical
// path over inline task lists.
type Service struct {
	tracker Tracker
	memory  MemoryWriter
	logger  logging.Logger
}

// NewService returns a project handler.
func NewService(t Tracker, memory MemoryWriter, logger logging.Logger) *Service {
	return &Service{tracker: t, memory: memory, logger: logging.OrNop(logger)}
}

func (s *Service) requireTracker(op string) error {
	if s.tracker == nil {
		return apperr.Configuration(op, "project tracker is not configured; set CLICKUP_API_TOKEN")
	}
	return nil
}

// CreateProjectRequest describes a new project.
type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	DueDate     int64    `json:"due_date,omitempty"`
	Budget      *float64 `json:"budget,omitempty"`
	Client      string   `json:"client,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// CreateProject creates a project folder with a default task list.
func (s *Service) CreateProject(ctx context.Context, req CreateProjectRequest) (*model.Project, error) {
	const op = "project.CreateProject"
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Required(op, "name")
	}
	if req.Budget != nil && *req.Budget <= 0 {
		return nil, apperr.Validation(op, "budget", "budget must be positive")
	}
	if err := s.requireTracker(op); err != nil {
		return nil, err
	}

	space, err := s.tracker.ConstructionSpace(ctx)
	if err != nil {
		return nil, err
	}
	folder, err := s.tracker.CreateFolder(ctx, space.ID, req.Name)
	if err != nil {
		return nil, err
	}
	list, err := s.tracker.CreateList(ctx, folder.ID, defaultListName, req.Description)
	if err != nil {
		return nil, err
	}
	p := &model.Project{ID: folder.ID, Name: req.Name, ListID: list.ID}

	meta := map[string]any{
		"event":      "project_created",
		"project_id": p.ID,
		"list_id":    p.ListID,
	}
	if req.Client != "" {
		meta["client"] = req.Client
	}
	if req.Location != "" {
		meta["location"] = req.Location
	}
	if req.Budget != nil {
		meta["budget"] = *req.Budget
	}
	if req.DueDate > 0 {
		meta["due_date"] = req.DueDate
	}
	s.record(ctx, model.CategoryProjects, fmt.Sprintf("Project '%s' created with ID: %s", p.Name, p.ID), meta)
	s.logger.Info("project created", "project_id", p.ID, "name", p.Name)
	return p, nil
}

// CreateTaskRequest describes a new task. ListID defaults to the first
// list of the project.
type CreateTaskRequest struct {
	Name         string   `json:"name"`
	ProjectID    string   `json:"project_id"`
	ListID       string   `json:"list_id,omitempty"`
	Description  string   `json:"description,omitempty"`
	StartDate    int64    `json:"start_date,omitempty"`
	DueDate      int64    `json:"due_date,omitempty"`
	Assignees    []int    `json:"assignees,omitempty"`
	Priority     int      `json:"priority,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// CreateTask creates a task and its dependency edges.
func (s *Service) CreateTask(ctx context.Context, req CreateTaskRequest) (*model.Task, error) {
	const op = "project.CreateTask"
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Required(op, "name")
	}
	if req.ProjectID == "" && req.ListID == "" {
		return nil, apperr.Required(op, "project_id")
	}
	if err := validPriority(op, req.Priority); err != nil {
		return nil, err
	}
	if err := s.requireTracker(op); err != nil {
		return nil, err
	}

	listID := req.ListID
	if listID == "" {
		lists, err := s.tracker.Lists(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}
		if len(lists) == 0 {
			return nil, apperr.NotFound(op, "task list in project", req.ProjectID)
		}
		listID = lists[0].ID
	}

	t, err := s.tracker.CreateTask(ctx, listID, tracker.TaskInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		Assignees:   req.Assignees,
		Priority:    req.Priority,
	})
	if err != nil {
		return nil, err
	}
	for _, dep := range req.Dependencies {
		if err := s.tracker.AddDependency(ctx, t.ID, dep); err != nil {
			return nil, fmt.Errorf("add dependency %s -> %s: %w", t.ID, dep, err)
		}
		t.DependsOn = append(t.DependsOn, dep)
	}

	s.record(ctx, model.CategoryTasks, fmt.Sprintf("Task '%s' created in project %s with ID: %s", t.Name, req.ProjectID, t.ID), map[string]any{
		"event":      "task_created",
		"task_id":    t.ID,
		"project_id": req.ProjectID,
		"list_id":    listID,
		"depends_on": t.DependsOn,
	})
	return t, nil
}

// UpdateTaskRequest holds replacement task fields.
type UpdateTaskRequest struct {
	TaskID      string `json:"task_id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	DueDate     int64  `json:"due_date,omitempty"`
	Priority    int    `json:"priority,omitempty"`
}

// UpdateTask changes a task. At least one field besides the id is required.
func (s *Service) UpdateTask(ctx context.Context, req UpdateTaskRequest) (*model.Task, error) {
	const op = "project.UpdateTask"
	if req.TaskID == "" {
		return nil, apperr.Required(op, "task_id")
	}
	if req.Name == "" && req.Description == "" && req.Status == "" && req.DueDate == 0 && req.Priority == 0 {
		return nil, apperr.Validation(op, "task_id", "at least one field to update must be provided")
	}
	if err := validPriority(op, req.Priority); err != nil {
		return nil, err
	}
	if err := s.requireTracker(op); err != nil {
		return nil, err
	}

	t, err := s.tracker.UpdateTask(ctx, req.TaskID, tracker.TaskUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, model.CategoryTasks, fmt.Sprintf("Task '%s' updated", t.Name), map[string]any{
		"event":   "task_updated",
		"task_id": t.ID,
		"status":  t.Status,
	})
	return t, nil
}

// Status summarizes task progress in a project.
type Status struct {
	ProjectID      string         `json:"project_id"`
	Name           string         `json:"name"`
	TotalTasks     int            `json:"total_tasks"`
	CompletedTasks int            `json:"completed_tasks"`
	Progress       float64        `json:"progress_percentage"`
	StatusCounts   map[string]int `json:"status_counts"`
}

// ProjectStatus reports progress of a project.
func (s *Service) ProjectStatus(ctx context.Context, projectID string) (*Status, error) {
	const op = "project.ProjectStatus"
	if projectID == "" {
		return nil, apperr.Required(op, "project_id")
	}
	if err := s.requireTracker(op); err != nil {
		return nil, err
	}
	folder, err := s.tracker.Folder(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.projectTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	st := summarize(tasks)
	st.ProjectID = projectID
	st.Name = folder.Name
	return st, nil
}

func summarize(tasks []model.Task) *Status {
	st := &Status{TotalTasks: len(tasks), StatusCounts: map[string]int{}}
	for _, t := range tasks {
		if t.Closed {
			st.CompletedTasks++
		}
		st.StatusCounts[t.Status]++
	}
	if st.TotalTasks > 0 {
		st.Progress = float64(st.CompletedTasks) / float64(st.TotalTasks) * 100
	}
	return st
}

// CriticalPathRequest selects tasks by project or supplies them inline.
// Inline tasks take precedence.
type CriticalPathRequest struct {
	ProjectID string       `json:"project_id,omitempty"`
	Tasks     []model.Task `json:"tasks,omitempty"`
}

// CriticalPath schedules the tasks of a project.
func (s *Service) CriticalPath(ctx context.Context, req CriticalPathRequest) (*model.Schedule, error) {
	const op = "project.CriticalPath"
	tasks := req.Tasks
	if len(tasks) == 0 {
		if req.ProjectID == "" {
			return nil, apperr.Required(op, "project_id")
		}
		if err := s.requireTracker(op); err != nil {
			return nil, err
		}
		var err error
		tasks, err = s.projectTasks(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}
		if len(tasks) == 0 {
			return nil, apperr.NotFound(op, "tasks in project", req.ProjectID)
		}
	}
	return CriticalPath(tasks)
}

// Summary is a project entry of ListProjects.
type Summary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	Progress       float64 `json:"progress_percentage"`
}

// ListProjects lists the projects of the construction space.
func (s *Service) ListProjects(ctx context.Context) ([]Summary, error) {
	const op = "project.ListProjects"
	if err := s.requireTracker(op); err != nil {
		return nil, err
	}
	space, err := s.tracker.ConstructionSpace(ctx)
	if err != nil {
		return nil, err
	}
	folders, err := s.tracker.Folders(ctx, space.ID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(folders))
	for _, f := range folders {
		tasks, err := s.projectTasks(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		st := summarize(tasks)
		out = append(out, Summary{
			ID:             f.ID,
			Name:           f.Name,
			TotalTasks:     st.TotalTasks,
			CompletedTasks: st.CompletedTasks,
			Progress:       st.Progress,
		})
	}
	return out, nil
}

func (s *Service) projectTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	lists, err := s.tracker.Lists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var tasks []model.Task
	for _, l := range lists {
		lt, err := s.tracker.Tasks(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, lt...)
	}
	return tasks, nil
}

// record writes a project event. The tracker already holds the change, so
// a failed memory write is logged rather than returned.
func (s *Service) record(ctx context.Context, c model.Category, text string, meta map[string]any) {
	if s.memory == nil {
		return
	}
	if _, err := s.memory.Add(ctx, store.AddParams{Text: text, Category: c, Metadata: meta}); err != nil {
		s.logger.Error("record project event", "category", c, "err", err)
	}
}

func validPriority(op string, p int) error {
	if p != 0 && (p < 1 || p > 4) {
		return apperr.Validation(op, "priority", "priority must be between 1 and 4")
	}
	return nil
}
