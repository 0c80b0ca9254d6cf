package project

import (
	"context"
	"fmt"

	"github.com/rcliao/site-assistant/internal/tool"
)

// Handler descriptors used when delegating to this domain.
const (
	Name        = "Project Management"
	Description = "construction project management, task tracking, timelines, and critical path scheduling"
)

type projectArgs struct {
	ProjectID string `json:"project_id"`
}

var taskSchema = tool.Object(map[string]any{
	"id":         tool.String("Task id"),
	"name":       tool.String("Task name"),
	"duration":   tool.Integer("Duration in days; derived from dates when absent"),
	"start_date": tool.Integer("Start, unix milliseconds"),
	"due_date":   tool.Integer("Due, unix milliseconds"),
	"depends_on": tool.Array("Ids of tasks that must finish first", tool.String("Task id")),
}, "id")

// Tools exposes the handler operations as tools.
func (s *Service) Tools() []tool.Tool {
	return []tool.Tool{
		tool.Typed("create_project", "Create a new construction project with specified parameters",
			tool.Object(map[string]any{
				"name":        tool.String("Project name"),
				"description": tool.String("Project description"),
				"due_date":    tool.Integer("Due date, unix milliseconds"),
				"budget":      tool.Number("Project budget"),
				"client":      tool.String("Client name"),
				"location":    tool.String("Site location"),
			}, "name"),
			func(ctx context.Context, req CreateProjectRequest) (any, error) {
				p, err := s.CreateProject(ctx, req)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"project": p,
					"message": fmt.Sprintf("Successfully created project: %s with ID: %s", p.Name, p.ID),
				}, nil
			}),

		tool.Typed("create_task", "Create a new task within a project",
			tool.Object(map[string]any{
				"name":         tool.String("Task name"),
				"project_id":   tool.String("Project (folder) id"),
				"list_id":      tool.String("List id; defaults to the project's first list"),
				"description":  tool.String("Task description"),
				"start_date":   tool.Integer("Start, unix milliseconds"),
				"due_date":     tool.Integer("Due, unix milliseconds"),
				"assignees":    tool.Array("Assignee user ids", tool.Integer("User id")),
				"priority":     tool.Integer("Priority 1-4, 1 is urgent"),
				"dependencies": tool.Array("Ids of tasks this task depends on", tool.String("Task id")),
			}, "name", "project_id"),
			func(ctx context.Context, req CreateTaskRequest) (any, error) {
				t, err := s.CreateTask(ctx, req)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"task":    t,
					"message": fmt.Sprintf("Successfully created task: %s with ID: %s", t.Name, t.ID),
				}, nil
			}),

		tool.Typed("update_task", "Update the status, priority, or details of a task",
			tool.Object(map[string]any{
				"task_id":     tool.String("Task id"),
				"name":        tool.String("New name"),
				"description": tool.String("New description"),
				"status":      tool.String("New status"),
				"due_date":    tool.Integer("New due date, unix milliseconds"),
				"priority":    tool.Integer("New priority 1-4"),
			}, "task_id"),
			func(ctx context.Context, req UpdateTaskRequest) (any, error) {
				t, err := s.UpdateTask(ctx, req)
				if err != nil {
					return nil, err
				}
				return map[string]any{"task": t, "message": "Successfully updated task: " + t.Name}, nil
			}),

		tool.Typed("get_project_status", "Get the current status of a project",
			tool.Object(map[string]any{"project_id": tool.String("Project (folder) id")}, "project_id"),
			func(ctx context.Context, a projectArgs) (any, error) {
				return s.ProjectStatus(ctx, a.ProjectID)
			}),

		tool.Typed("get_critical_path", "Identify the critical path of tasks for a project or an inline task list",
			tool.Object(map[string]any{
				"project_id": tool.String("Project (folder) id"),
				"tasks":      tool.Array("Inline tasks; used instead of the tracker when given", taskSchema),
			}),
			func(ctx context.Context, req CriticalPathRequest) (any, error) {
				sched, err := s.CriticalPath(ctx, req)
				if err != nil {
					return nil, err
				}
				return map[string]any{"schedule": sched, "summary": FormatSchedule(sched)}, nil
			}),

		tool.Typed("list_projects", "List all active construction projects", tool.Object(nil),
			func(ctx context.Context, _ struct{}) (any, error) {
				projects, err := s.ListProjects(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"projects": projects}, nil
			}),
	}
}

