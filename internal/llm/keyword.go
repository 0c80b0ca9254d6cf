package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/tool"
)

// Keyword is an offline Responder. Input of the form
// {"tool": "name", "args": {...}} calls that tool directly. Any other input
// is passed as {"query": input} to the tool whose name and description share
// the most words with it, among tools that accept a query argument.
type Keyword struct{}

// NewKeyword returns the offline router.
func NewKeyword() *Keyword { return &Keyword{} }

// Invocation is the direct-call form accepted by Keyword.
type Invocation struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// ParseInvocation reports whether input is a direct tool call.
func ParseInvocation(input string) (Invocation, bool) {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, "{") {
		return Invocation{}, false
	}
	var inv Invocation
	if err := json.Unmarshal([]byte(s), &inv); err != nil || inv.Tool == "" {
		return Invocation{}, false
	}
	return inv, true
}

func (k *Keyword) Respond(ctx context.Context, req Request) (string, error) {
	if inv, ok := ParseInvocation(req.Input); ok {
		t, found := findTool(req.Tools, inv.Tool)
		if !found {
			return "", apperr.NotFound("llm.Keyword", "tool", inv.Tool)
		}
		return render(tool.Run(ctx, t, inv.Args)), nil
	}

	t := bestMatch(req.Input, req.Tools)
	if t == nil {
		return usage(req.Tools), nil
	}
	args, err := json.Marshal(map[string]string{"query": req.Input})
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	return render(tool.Run(ctx, t, args)), nil
}

// bestMatch picks the query-accepting tool with the highest word overlap.
// Ties keep the earlier tool; with no overlap the first candidate wins.
func bestMatch(input string, tools []tool.Tool) tool.Tool {
	words := wordSet(input)
	var best tool.Tool
	bestScore := -1
	for _, t := range tools {
		if _, ok := tool.Properties(t.Schema())["query"]; !ok {
			continue
		}
		score := 0
		for w := range wordSet(t.Name() + " " + t.Description()) {
			if words[w] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	return best
}

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) > 2 {
			out[strings.TrimSuffix(w, "s")] = true
		}
	}
	return out
}

// render returns string data as-is and everything else as the JSON envelope.
func render(res tool.Result) string {
	if s, ok := res.Data.(string); ok && res.Success {
		return s
	}
	return res.JSON()
}

func usage(tools []tool.Tool) string {
	var b strings.Builder
	b.WriteString(`No language model is configured. Call a tool directly with {"tool": "<name>", "args": {...}}. Available tools:`)
	b.WriteString("\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	return b.String()
}
