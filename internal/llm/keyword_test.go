package llm

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/tool"
)

type queryArgs struct {
	Query string `json:"query"`
}

func echoTool(name, desc string) tool.Tool {
	return tool.Typed(name, desc,
		tool.Object(map[string]any{"query": tool.String("text")}, "query"),
		func(_ context.Context, a queryArgs) (any, error) {
			return name + ":" + a.Query, nil
		})
}

func TestKeywordDirectInvocation(t *testing.T) {
	sum := tool.Typed("add", "Add two numbers",
		tool.Object(map[string]any{"a": tool.Number("a"), "b": tool.Number("b")}, "a", "b"),
		func(_ context.Context, a struct{ A, B float64 }) (any, error) {
			return map[string]float64{"sum": a.A + a.B}, nil
		})

	out, err := NewKeyword().Respond(context.Background(), Request{
		Input: `{"tool": "add", "args": {"a": 2, "b": 3}}`,
		Tools: []tool.Tool{sum},
	})
	require.NoError(t, err)

	var res struct {
		Success bool
		Data    map[string]float64
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 5.0, res.Data["sum"])
}

func TestKeywordUnknownTool(t *testing.T) {
	_, err := NewKeyword().Respond(context.Background(), Request{Input: `{"tool": "nope"}`})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestKeywordPicksBestMatch(t *testing.T) {
	tools := []tool.Tool{
		echoTool("search_memory", "Search for information in the system's memory"),
		echoTool("search_documents", "Search for information in stored documents"),
	}

	out, err := NewKeyword().Respond(context.Background(), Request{Input: "find documents about drywall", Tools: tools})
	require.NoError(t, err)
	assert.Equal(t, "search_documents:find documents about drywall", out)

	out, err = NewKeyword().Respond(context.Background(), Request{Input: "what happened yesterday", Tools: tools})
	require.NoError(t, err)
	assert.Equal(t, "search_memory:what happened yesterday", out, "no overlap falls back to the first candidate")
}

func TestKeywordSkipsToolsWithoutQuery(t *testing.T) {
	budget := tool.New("create_budget", "Create a budget for documents", tool.Object(nil), nil)

	out, err := NewKeyword().Respond(context.Background(), Request{Input: "budget documents", Tools: []tool.Tool{budget}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "No language model is configured."))
	assert.Contains(t, out, "- create_budget: Create a budget for documents")
}

func TestParseInvocation(t *testing.T) {
	_, ok := ParseInvocation("plain text")
	assert.False(t, ok)
	_, ok = ParseInvocation(`{"args": {}}`)
	assert.False(t, ok)
	inv, ok := ParseInvocation(` {"tool": "get_budget", "args": {"project_id": "p1"}} `)
	require.True(t, ok)
	assert.Equal(t, "get_budget", inv.Tool)
	assert.JSONEq(t, `{"project_id": "p1"}`, string(inv.Args))
}
