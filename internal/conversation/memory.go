// Package conversation keeps the running chat history for a responder and
// optionally mirrors every exchange into the memory store.
package conversation

import (
	"context"
	"sync"

	"github.com/rcliao/site-assistant/internal/llm"
)

// Memory holds conversation history.
type Memory interface {
	History(ctx context.Context) ([]llm.Message, error)
	Save(ctx context.Context, input, output string) error
}

// Buffer is an in-process Memory that keeps the most recent messages.
type Buffer struct {
	mu       sync.Mutex
	messages []llm.Message
	max      int
}

// NewBuffer returns a buffer keeping at most max messages. Zero or less
// keeps everything.
func NewBuffer(max int, seed ...llm.Message) *Buffer {
	b := &Buffer{max: max}
	b.messages = append(b.messages, seed...)
	b.trim()
	return b
}

func (b *Buffer) History(context.Context) ([]llm.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]llm.Message(nil), b.messages...), nil
}

func (b *Buffer) Save(_ context.Context, input, output string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages,
		llm.Message{Role: llm.RoleUser, Content: input},
		llm.Message{Role: llm.RoleAssistant, Content: output})
	b.trim()
	return nil
}

// Clear drops all messages.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

func (b *Buffer) trim() {
	if b.max > 0 && len(b.messages) > b.max {
		b.messages = append([]llm.Message(nil), b.messages[len(b.messages)-b.max:]...)
	}
}
