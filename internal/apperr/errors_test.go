package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
	}{
		{"validation", Required("finance.CreateBudget", "project_id"), ErrValidation, KindValidation},
		{"not found", NotFound("store.Get", "record", "01ABC"), ErrNotFound, KindNotFound},
		{"configuration", Configuration("store.Open", "database path is empty"), ErrConfiguration, KindConfiguration},
		{"external", External("tracker.GetTasks", "clickup", 502, errors.New("bad gateway")), ErrExternalService, KindExternalService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(wrapped))
			assert.NotErrorIs(t, wrapped, errUnrelated)
		})
	}
}

var errUnrelated = errors.New("unrelated")

func TestValidationFieldAndMessage(t *testing.T) {
	err := Required("finance.RecordTransaction", "amount")

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "amount", e.Field)
	assert.Equal(t, "finance.RecordTransaction: amount is required", err.Error())
	assert.Equal(t, "amount is required", Message(fmt.Errorf("wrap: %w", err)))
}

func TestExternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := External("llm.Respond", "anthropic", 0, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "anthropic request failed")
	assert.Contains(t, Message(err), "connection refused")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}
