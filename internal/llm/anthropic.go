package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/config"
	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/tool"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	defaultMaxTurns  = 8
)

// Anthropic runs a Claude tool-use loop: each turn sends the conversation
// and tool definitions, executes any requested tools, and feeds the results
// back until the model answers with text only.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	maxTurns  int
	logger    logging.Logger
}

// AnthropicOption configures an Anthropic responder.
type AnthropicOption func(*anthropicOptions)

type anthropicOptions struct {
	requestOpts []option.RequestOption
	logger      logging.Logger
}

// WithRequestOptions passes extra options to the underlying client, such as
// a base URL or HTTP client.
func WithRequestOptions(opts ...option.RequestOption) AnthropicOption {
	return func(o *anthropicOptions) { o.requestOpts = append(o.requestOpts, opts...) }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) AnthropicOption {
	return func(o *anthropicOptions) { o.logger = l }
}

// NewAnthropic creates a responder from cfg. A missing API key is a
// configuration error.
func NewAnthropic(cfg config.LLMConfig, opts ...AnthropicOption) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, apperr.Configuration("llm.NewAnthropic", "ANTHROPIC_API_KEY is not set")
	}
	o := anthropicOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	a := &Anthropic{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		maxTurns:  cfg.MaxTurns,
		logger:    logging.OrNop(o.logger),
	}
	if a.model == "" {
		a.model = defaultModel
	}
	if a.maxTokens <= 0 {
		a.maxTokens = defaultMaxTokens
	}
	if a.maxTurns <= 0 {
		a.maxTurns = defaultMaxTurns
	}

	clientOpts := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, o.requestOpts...)
	a.client = anthropic.NewClient(clientOpts...)
	return a, nil
}

func (a *Anthropic) Respond(ctx context.Context, req Request) (string, error) {
	const op = "llm.Respond"

	msgs := historyMessages(req.History)
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Input)))
	apiTools := toAPITools(req.Tools)

	for turn := 0; ; turn++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("respond: %w", err)
		}
		if turn >= a.maxTurns {
			return "", apperr.External(op, "anthropic", 0, fmt.Errorf("exceeded maximum turns (%d)", a.maxTurns))
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: a.maxTokens,
			Messages:  msgs,
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}
		if len(apiTools) > 0 {
			params.Tools = apiTools
		}

		resp, err := a.client.Messages.New(ctx, params)
		if err != nil {
			var apiErr *anthropic.Error
			if errors.As(err, &apiErr) {
				return "", apperr.External(op, "anthropic", apiErr.StatusCode, err)
			}
			return "", apperr.External(op, "anthropic", 0, err)
		}
		a.logger.Debug("llm turn", "turn", turn+1, "input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens, "stop_reason", string(resp.StopReason))

		var text strings.Builder
		var assistant, results []anthropic.ContentBlockParamUnion
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text.WriteString(block.Text)
				assistant = append(assistant, anthropic.NewTextBlock(block.Text))
			case "tool_use":
				assistant = append(assistant, anthropic.NewToolUseBlock(block.ID, block.Input, block.Name))
				results = append(results, a.runTool(ctx, req.Tools, block.ID, block.Name, block.Input))
			}
		}

		if len(results) == 0 {
			return text.String(), nil
		}
		msgs = append(msgs, anthropic.NewAssistantMessage(assistant...), anthropic.NewUserMessage(results...))
	}
}

func (a *Anthropic) runTool(ctx context.Context, tools []tool.Tool, id, name string, input json.RawMessage) anthropic.ContentBlockParamUnion {
	t, ok := findTool(tools, name)
	if !ok {
		return anthropic.NewToolResultBlock(id, fmt.Sprintf("unknown tool: %s", name), true)
	}
	res := tool.Run(ctx, t, input)
	if !res.Success {
		a.logger.Warn("tool call failed", "tool", name, "kind", string(res.Kind), "error", res.Error)
	}
	return anthropic.NewToolResultBlock(id, res.JSON(), !res.Success)
}

func historyMessages(history []Message) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return msgs
}

func toAPITools(tools []tool.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := t.Schema()
		u := anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
			Properties: tool.Properties(schema),
			Required:   tool.Required(schema),
		}, t.Name())
		u.OfTool.Description = anthropic.String(t.Description())
		out = append(out, u)
	}
	return out
}
