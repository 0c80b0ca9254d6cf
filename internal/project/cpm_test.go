package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/model"
)

func task(id string, days int, deps ...string) model.Task {
	return model.Task{ID: id, Name: id, Duration: days, DependsOn: deps}
}

func slackByID(s *model.Schedule) map[string]int {
	out := make(map[string]int, len(s.Tasks))
	for _, t := range s.Tasks {
		out[t.ID] = t.Slack
	}
	return out
}

func TestCriticalPathChain(t *testing.T) {
	s, err := CriticalPath([]model.Task{
		task("C", 4, "B"),
		task("A", 2),
		task("B", 3, "A"),
	})
	require.NoError(t, err)
	assert.Equal(t, 9, s.CompletionTime)
	assert.Equal(t, []string{"A", "B", "C"}, s.CriticalPath)
	assert.Equal(t, map[string]int{"A": 0, "B": 0, "C": 0}, slackByID(s))
}

func TestCriticalPathDiamond(t *testing.T) {
	s, err := CriticalPath([]model.Task{
		task("A", 1),
		task("B", 5, "A"),
		task("C", 2, "A"),
		task("D", 1, "B", "C"),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, s.CompletionTime)
	assert.ElementsMatch(t, []string{"A", "B", "D"}, s.CriticalPath)
	assert.Equal(t, 3, slackByID(s)["C"])

	for _, st := range s.Tasks {
		if st.ID == "D" {
			assert.Equal(t, 6, st.EarliestStart)
			assert.Equal(t, 6, st.LatestStart)
		}
	}
}

func TestCriticalPathParallelChains(t *testing.T) {
	s, err := CriticalPath([]model.Task{
		task("excavate", 3),
		task("footings", 2, "excavate"),
		task("order-steel", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, s.CompletionTime)
	assert.Equal(t, []string{"excavate", "footings"}, s.CriticalPath)
	assert.Equal(t, 4, slackByID(s)["order-steel"])
}

func TestCriticalPathCycle(t *testing.T) {
	_, err := CriticalPath([]model.Task{
		task("A", 1, "C"),
		task("B", 1, "A"),
		task("C", 1, "B"),
		task("D", 1),
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "dependency cycle among tasks: A, B, C")

	_, err = CriticalPath([]model.Task{task("self", 1, "self")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCriticalPathInvalidInput(t *testing.T) {
	_, err := CriticalPath(nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = CriticalPath([]model.Task{task("A", 1), task("A", 2)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = CriticalPath([]model.Task{{Name: "nameless"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCriticalPathIgnoresUnknownDependencies(t *testing.T) {
	s, err := CriticalPath([]model.Task{task("A", 2, "elsewhere")})
	require.NoError(t, err)
	assert.Equal(t, 2, s.CompletionTime)
}

func TestDuration(t *testing.T) {
	day := int64(msPerDay)
	tests := []struct {
		name string
		task model.Task
		want int
	}{
		{"explicit", model.Task{Duration: 4}, 4},
		{"no dates", model.Task{}, 1},
		{"start only", model.Task{StartDate: day}, 1},
		{"three days", model.Task{StartDate: day, DueDate: 4 * day}, 3},
		{"rounds up", model.Task{StartDate: 0 + day, DueDate: day + day*5/2 + 1}, 3},
		{"half day rounds to even down", model.Task{StartDate: day, DueDate: day + day*5/2}, 2},
		{"half day rounds to even up", model.Task{StartDate: day, DueDate: day + day*7/2}, 4},
		{"same day", model.Task{StartDate: day, DueDate: day + 1000}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.task))
		})
	}
}

func TestFormatSchedule(t *testing.T) {
	s, err := CriticalPath([]model.Task{task("A", 2), task("B", 3, "A")})
	require.NoError(t, err)
	out := FormatSchedule(s)
	assert.Contains(t, out, "Project Duration: 5 days")
	assert.Contains(t, out, "- A (Duration: 2 days)")
	assert.Contains(t, out, "- B (Duration: 3 days)")
}
