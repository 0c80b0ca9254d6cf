package conversation

import (
	"context"
	"fmt"

	"github.com/rcliao/site-assistant/internal/llm"
	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
)

// Metadata keys on conversation records.
const (
	MetaRole  = "role"
	MetaAgent = "agent"
)

// Writer is the slice of the memory store Persisting writes to.
type Writer interface {
	Add(ctx context.Context, p store.AddParams) (string, error)
}

// Persisting wraps a Memory and also stores every exchange as two records
// in the conversations category, one per role.
type Persisting struct {
	base   Memory
	store  Writer
	agent  string
	logger logging.Logger
}

// NewPersisting decorates base. agent, when set, is stored on every record.
func NewPersisting(base Memory, w Writer, agent string, logger logging.Logger) *Persisting {
	return &Persisting{base: base, store: w, agent: agent, logger: logging.OrNop(logger)}
}

func (p *Persisting) History(ctx context.Context) ([]llm.Message, error) {
	return p.base.History(ctx)
}

// Save updates the wrapped memory first, then writes the user and assistant
// records. A failed write is returned after the wrapped memory is updated.
func (p *Persisting) Save(ctx context.Context, input, output string) error {
	if err := p.base.Save(ctx, input, output); err != nil {
		return err
	}
	if err := p.write(ctx, llm.RoleUser, input); err != nil {
		return err
	}
	return p.write(ctx, llm.RoleAssistant, output)
}

func (p *Persisting) write(ctx context.Context, role, text string) error {
	if text == "" {
		return nil
	}
	meta := map[string]any{MetaRole: role}
	if p.agent != "" {
		meta[MetaAgent] = p.agent
	}
	if _, err := p.store.Add(ctx, store.AddParams{
		Text:     text,
		Category: model.CategoryConversations,
		Metadata: meta,
	}); err != nil {
		p.logger.Error("persist conversation turn", "role", role, "agent", p.agent, "err", err)
		return fmt.Errorf("persist %s message: %w", role, err)
	}
	return nil
}

// Searcher reads conversation records.
type Searcher interface {
	Search(ctx context.Context, p store.SearchParams) ([]model.Record, error)
}

// LoadHistory returns up to limit stored messages for agent, oldest first.
// An empty agent selects the top-level conversation.
func LoadHistory(ctx context.Context, s Searcher, agent string, limit int) ([]llm.Message, error) {
	recs, err := s.Search(ctx, store.SearchParams{
		Category:   model.CategoryConversations,
		Limit:      limit * 4,
		SortByTime: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var msgs []llm.Message
	for _, r := range recs {
		role := r.MetaString(MetaRole)
		if role != llm.RoleUser && role != llm.RoleAssistant {
			continue
		}
		if r.MetaString(MetaAgent) != agent {
			continue
		}
		msgs = append(msgs, llm.Message{Role: role, Content: r.Text})
		if len(msgs) == limit {
			break
		}
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
