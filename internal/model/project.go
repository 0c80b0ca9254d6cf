package model

// Task is a schedulable unit of project work.
type Task struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Status      string   `json:"status,omitempty"`
	StartDate   int64    `json:"start_date,omitempty"` // unix millis
	DueDate     int64    `json:"due_date,omitempty"`   // unix millis
	DependsOn   []string `json:"depends_on,omitempty"`
	Duration    int      `json:"duration,omitempty"` // days; derived from dates when zero
	Description string   `json:"description,omitempty"`
	AssigneeIDs []int    `json:"assignees,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Closed      bool     `json:"closed,omitempty"`
	ListID      string   `json:"list_id,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// Project is a tracked construction project.
type Project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	ListID string `json:"list_id,omitempty"`
}

// ScheduledTask is a task annotated with critical-path timings, in days.
type ScheduledTask struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Duration      int    `json:"duration"`
	EarliestStart int    `json:"earliest_start"`
	LatestStart   int    `json:"latest_start"`
	Slack         int    `json:"slack"`
	Critical      bool   `json:"critical"`
}

// Schedule is the result of a critical-path computation.
type Schedule struct {
	CompletionTime int             `json:"project_completion_time"`
	CriticalPath   []string        `json:"critical_path"`
	Tasks          []ScheduledTask `json:"tasks"`
}
