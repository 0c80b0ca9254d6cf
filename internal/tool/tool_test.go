package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/site-assistant/internal/apperr"
)

type echoArgs struct {
	Message string `json:"message"`
}

func echoTool() *Func {
	return Typed("echo", "Echo a message", Object(map[string]any{
		"message": String("Text to echo"),
	}, "message"), func(_ context.Context, a echoArgs) (any, error) {
		if a.Message == "" {
			return nil, apperr.Required("echo", "message")
		}
		return map[string]string{"echo": a.Message}, nil
	})
}

func TestRunSuccess(t *testing.T) {
	res := Run(context.Background(), echoTool(), json.RawMessage(`{"message":"pour slab"}`))
	require.True(t, res.Success)
	assert.Equal(t, map[string]string{"echo": "pour slab"}, res.Data)
	assert.Empty(t, res.Error)
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	res := Run(ctx, echoTool(), json.RawMessage(`{}`))
	assert.False(t, res.Success)
	assert.Equal(t, apperr.KindValidation, res.Kind)
	assert.Contains(t, res.Error, "message is required")

	res = Run(ctx, echoTool(), json.RawMessage(`{"message":`))
	assert.Equal(t, apperr.KindValidation, res.Kind)

	boom := New("boom", "panics", Object(nil), func(context.Context, json.RawMessage) (any, error) {
		panic("kaboom")
	})
	res = Run(ctx, boom, nil)
	assert.False(t, res.Success)
	assert.Equal(t, apperr.KindInternal, res.Kind)
	assert.Contains(t, res.Error, "kaboom")
}

func TestRegistry(t *testing.T) {
	noop := New("noop", "does nothing", Object(nil), func(context.Context, json.RawMessage) (any, error) {
		return nil, nil
	})
	r := NewRegistry(echoTool(), noop)

	assert.Equal(t, []string{"echo", "noop"}, r.Names())
	assert.Len(t, r.List(), 2)
	assert.Contains(t, r.Describe(), "- echo: Echo a message")

	res := r.Call(context.Background(), "missing", nil)
	assert.False(t, res.Success)
	assert.Equal(t, apperr.KindNotFound, res.Kind)

	res = r.Call(context.Background(), "echo", json.RawMessage(`{"message":"hi"}`))
	assert.True(t, res.Success)
}

func TestSchemaHelpers(t *testing.T) {
	s := Object(map[string]any{"a": Number("x")}, "a")
	assert.Equal(t, []string{"a"}, Required(s))
	assert.Contains(t, Properties(s), "a")

	var decoded map[string]any
	b, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, []string{"a"}, Required(decoded))
	assert.Empty(t, Properties(map[string]any{}))
}
