// Package llm provides the language-model capability used by the
// orchestrator: given input text, a history and a tool set, produce a reply.
package llm

import (
	"context"

	"github.com/rcliao/site-assistant/internal/tool"
)

// Roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the input to a Responder.
type Request struct {
	System  string
	Input   string
	History []Message
	Tools   []tool.Tool
}

// Responder produces a reply for a request, calling tools as needed.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, req Request) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func findTool(tools []tool.Tool, name string) (tool.Tool, bool) {
	for _, t := range tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}
