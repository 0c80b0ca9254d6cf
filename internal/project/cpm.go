package project

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/model"
)

const msPerDay = 24 * 60 * 60 * 1000

// Duration returns a task's length in whole days: the explicit duration if
// set, else due minus start rounded half to even with a minimum of one,
// else one.
func Duration(t model.Task) int {
	if t.Duration > 0 {
		return t.Duration
	}
	if t.StartDate > 0 && t.DueDate > 0 {
		d := int(math.RoundToEven(float64(t.DueDate-t.StartDate) / msPerDay))
		if d < 1 {
			d = 1
		}
		return d
	}
	return 1
}

// CriticalPath schedules tasks with the critical path method. A task that
// depends on another starts after it finishes; dependencies on ids outside
// the task list are ignored. A dependency cycle is a validation error.
func CriticalPath(tasks []model.Task) (*model.Schedule, error) {
	const op = "project.CriticalPath"
	if len(tasks) == 0 {
		return nil, apperr.Validation(op, "tasks", "at least one task is required")
	}

	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if t.ID == "" {
			return nil, apperr.Validation(op, fmt.Sprintf("tasks[%d].id", i), "task id is required")
		}
		if _, dup := index[t.ID]; dup {
			return nil, apperr.Validation(op, "tasks", "duplicate task id: "+t.ID)
		}
		index[t.ID] = i
	}

	n := len(tasks)
	dur := make([]int, n)
	succ := make([][]int, n)
	indeg := make([]int, n)
	for i, t := range tasks {
		dur[i] = Duration(t)
		seen := make(map[int]bool)
		for _, dep := range t.DependsOn {
			p, ok := index[dep]
			if !ok || seen[p] {
				continue
			}
			seen[p] = true
			succ[p] = append(succ[p], i)
			indeg[i]++
		}
	}

	// Kahn's algorithm; ties keep input order.
	order := make([]int, 0, n)
	queue := make([]int, 0, n)
	for i := range tasks {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, s := range succ[i] {
			indeg[s]--
			if indeg[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	if len(order) < n {
		var stuck []string
		for i, t := range tasks {
			if indeg[i] > 0 {
				stuck = append(stuck, t.ID)
			}
		}
		sort.Strings(stuck)
		return nil, apperr.Validation(op, "tasks", "dependency cycle among tasks: "+strings.Join(stuck, ", "))
	}

	earliest := make([]int, n)
	for _, i := range order {
		for _, s := range succ[i] {
			earliest[s] = max(earliest[s], earliest[i]+dur[i])
		}
	}

	completion := 0
	for i := range tasks {
		if len(succ[i]) == 0 {
			completion = max(completion, earliest[i]+dur[i])
		}
	}

	latest := make([]int, n)
	for i := range tasks {
		latest[i] = completion - dur[i]
	}
	for k := n - 1; k >= 0; k-- {
		i := order[k]
		for _, s := range succ[i] {
			latest[i] = min(latest[i], latest[s]-dur[i])
		}
	}

	sched := &model.Schedule{
		CompletionTime: completion,
		CriticalPath:   []string{},
		Tasks:          make([]model.ScheduledTask, 0, n),
	}
	for _, i := range order {
		slack := latest[i] - earliest[i]
		st := model.ScheduledTask{
			ID:            tasks[i].ID,
			Name:          tasks[i].Name,
			Duration:      dur[i],
			EarliestStart: earliest[i],
			LatestStart:   latest[i],
			Slack:         slack,
			Critical:      slack == 0,
		}
		sched.Tasks = append(sched.Tasks, st)
		if st.Critical {
			sched.CriticalPath = append(sched.CriticalPath, st.ID)
		}
	}
	return sched, nil
}

// FormatSchedule renders a schedule for people.
func FormatSchedule(s *model.Schedule) string {
	var b strings.Builder
	b.WriteString("Critical Path Analysis:\n")
	fmt.Fprintf(&b, "Project Duration: %d days\n", s.CompletionTime)
	b.WriteString("Critical Path Tasks:\n")
	for _, t := range s.Tasks {
		if t.Critical {
			name := t.Name
			if name == "" {
				name = t.ID
			}
			fmt.Fprintf(&b, "- %s (Duration: %d days)\n", name, t.Duration)
		}
	}
	b.WriteString("\nThese tasks must be completed on time to avoid project delays.")
	return b.String()
}
